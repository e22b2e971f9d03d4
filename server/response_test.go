package server

import (
	"strings"
	"testing"
	"time"
)

var testDate = time.Date(2026, 10, 19, 13, 5, 9, 0, time.UTC)

func TestResponseHeader(t *testing.T) {
	tests := []struct {
		status      int
		contentType ContentType
		expected    string
	}{
		{200, ContentCSS, "HTTP/1.1 200 OK\nContent-Type: text/css\nDate: 10/19/2026 1:05:09 PM\nServer: 127.0.0.1"},
		{200, ContentNone, "HTTP/1.1 200 OK\nDate: 10/19/2026 1:05:09 PM\nServer: 127.0.0.1"},
		{404, ContentSVG, "HTTP/1.1 404 Not Found\nDate: 10/19/2026 1:05:09 PM\nServer: 127.0.0.1"},
		{304, ContentHTML, "HTTP/1.1 304 Not Modified\nDate: 10/19/2026 1:05:09 PM\nServer: 127.0.0.1"},
		{405, ContentNone, "HTTP/1.1 405 Method Not Allowed\nDate: 10/19/2026 1:05:09 PM\nServer: 127.0.0.1"},
		{500, ContentNone, "HTTP/1.1 500 Internal Server Error\nDate: 10/19/2026 1:05:09 PM\nServer: 127.0.0.1"},
		{418, ContentHTML, "HTTP/1.1 418\nDate: 10/19/2026 1:05:09 PM\nServer: 127.0.0.1"},
	}

	for _, test := range tests {
		got := ResponseHeader(test.status, test.contentType, "HTTP/1.1", testDate, "127.0.0.1")
		if got != test.expected {
			t.Errorf("Status %d: expected %q, got %q", test.status, test.expected, got)
		}
	}
}

func TestCreateResponseBytes(t *testing.T) {
	resp := Response{Status: StatusOK, ContentType: ContentHTML, Body: "<p>hi</p>"}
	got := string(CreateResponseBytes(resp, "HTTP/1.0", testDate, "10.0.0.1"))

	if !strings.HasPrefix(got, "HTTP/1.0 200 OK\nContent-Type: text/html\n") {
		t.Errorf("Unexpected header: %q", got)
	}
	if !strings.HasSuffix(got, "\nServer: 10.0.0.1\n\n<p>hi</p>") {
		t.Errorf("Body should follow a blank line: %q", got)
	}
	if strings.Contains(got, "Content-Length") {
		t.Error("Response should not contain Content-Length")
	}
}

func TestContentTypes(t *testing.T) {
	tests := []struct {
		path     string
		legacy   bool
		expected ContentType
	}{
		{"style.css", false, ContentCSS},
		{"app.js", false, ContentJS},
		{"logo.png", false, ContentPNG},
		{"icon.svg", false, ContentSVG},
		{"page.html", false, ContentHTML},
		{"data.unknownext", false, ContentHTML},
		{"dir.v2/readme", false, ContentHTML},
		{"style.css", true, ContentHTML},
		{"style.cssx", true, ContentCSS},
	}

	for _, test := range tests {
		got := contentTypeFor(fileExtension(test.path, test.legacy))
		if got != test.expected {
			t.Errorf("%s (legacy=%v): expected %s, got %s", test.path, test.legacy, test.expected, got)
		}
	}
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		path     string
		offByOne bool
		expected string
	}{
		{"a/b/style.css", false, "css"},
		{"a/b/style.css", true, "cs"},
		{"noext", false, ""},
		{"trailing.", false, ""},
		{"trailing.", true, ""},
	}

	for _, test := range tests {
		if got := fileExtension(test.path, test.offByOne); got != test.expected {
			t.Errorf("fileExtension(%q, %v): expected %q, got %q", test.path, test.offByOne, test.expected, got)
		}
	}
}

func TestContentTypeString(t *testing.T) {
	if ContentNone.String() != "" {
		t.Error("ContentNone should have no label")
	}
	if ContentSVG.String() != "image/svg+xml" {
		t.Errorf("Unexpected SVG label %s", ContentSVG)
	}
	if ContentType(99).String() != "" {
		t.Error("Unknown content type should have no label")
	}
}
