package server

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/codetesla51/raw-http-db/sqlgen"
)

func readRaw(t *testing.T, raw string) *Request {
	t.Helper()
	req, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)), 8192, 1<<20)
	if err != nil {
		t.Fatalf("ReadRequest(%q) failed: %v", raw, err)
	}
	return req
}

func fieldValue(fields sqlgen.Fields, key string) string {
	for _, field := range fields {
		if field.Key == key {
			return field.Value
		}
	}
	return ""
}

func TestReadRequest(t *testing.T) {
	req := readRaw(t, "GET /db/users?id=3&name=Ann HTTP/1.1\r\nHost: localhost:8080\r\nAccept: */*\r\n\r\n")

	if req.Method != "GET" {
		t.Errorf("Expected method GET, got %s", req.Method)
	}
	if req.Path != "/db/users?id=3&name=Ann" {
		t.Errorf("Expected path with query, got %s", req.Path)
	}
	if req.Version != "HTTP/1.1" {
		t.Errorf("Expected version HTTP/1.1, got %s", req.Version)
	}
	if req.Headers["Host"] != "localhost:8080" {
		t.Errorf("Expected Host split on first colon, got %q", req.Headers["Host"])
	}
	if req.StartLine() != "GET /db/users?id=3&name=Ann HTTP/1.1" {
		t.Errorf("Unexpected start line %q", req.StartLine())
	}
	if v := fieldValue(req.Query, "id"); v != "3" {
		t.Errorf("Expected id=3, got %q", v)
	}
	if keys := req.Query.Keys(); len(keys) != 2 || keys[0] != "id" || keys[1] != "name" {
		t.Errorf("Expected query keys [id name], got %v", keys)
	}
	if req.Body != "" {
		t.Errorf("Expected empty body, got %q", req.Body)
	}
}

func TestReadRequestBodyWithContentLength(t *testing.T) {
	body := `{"id":"5","name":"Ann"}`
	raw := fmt.Sprintf("PUT /insert/users HTTP/1.1\r\nContent-Length: %d\r\n\r\n%s", len(body), body)

	req := readRaw(t, raw)

	if req.Body != body+"\n" {
		t.Errorf("Expected body %q, got %q", body+"\n", req.Body)
	}
}

func TestReadRequestBodyWithoutContentLength(t *testing.T) {
	req := readRaw(t, "PUT /notes.txt HTTP/1.1\nHost: x\n\nline one\r\nkey: value\nline three")

	expected := "line one\nkey: value\nline three\n"
	if req.Body != expected {
		t.Errorf("Expected body %q, got %q", expected, req.Body)
	}
	if _, ok := req.Headers["key"]; ok {
		t.Error("Body lines must not be parsed as headers")
	}
}

func TestReadRequestMalformedLinesOverwriteStart(t *testing.T) {
	req := readRaw(t, "GET /index.html HTTP/1.1\nfirst junk\nHost: x\nsecond junk\n\n")

	if req.StartLine() != "second junk" {
		t.Errorf("Expected last malformed line to win, got %q", req.StartLine())
	}
	if req.Valid() {
		t.Error("Request with overwritten start line should not be valid")
	}
}

func TestReadRequestDuplicateHeaders(t *testing.T) {
	req := readRaw(t, "GET /a.css HTTP/1.1\nX-Test: one\nX-Test: two\nx-test: three\n\n")

	if req.Headers["X-Test"] != "two" {
		t.Errorf("Expected last write to win, got %q", req.Headers["X-Test"])
	}
	if req.Headers["x-test"] != "three" {
		t.Errorf("Header keys should be case-sensitive, got %q", req.Headers["x-test"])
	}
}

func TestReadRequestWithoutBlankLine(t *testing.T) {
	req := readRaw(t, "PUT /a.txt HTTP/1.0\nHost: x")

	if req.Method != "PUT" || req.Version != "HTTP/1.0" {
		t.Errorf("Unexpected start line parse: %+v", req)
	}
	if req.Body != "" {
		t.Errorf("Body should stay empty without a blank line, got %q", req.Body)
	}
}

func TestReadRequestSingleToken(t *testing.T) {
	req := readRaw(t, "GARBAGE\r\n\r\n")

	if req.Valid() {
		t.Error("Single-token start line should not be valid")
	}
	if req.StartLine() != "GARBAGE" {
		t.Errorf("Expected start GARBAGE, got %q", req.StartLine())
	}
}

func TestReadRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"headers too large", "GET / HTTP/1.1\nX-Big: " + strings.Repeat("a", 200) + "\n\n"},
	}

	for _, test := range tests {
		_, err := ReadRequest(bufio.NewReader(strings.NewReader(test.raw)), 100, 1<<20)
		if !errors.Is(err, ErrMalformedRequest) {
			t.Errorf("%s: expected ErrMalformedRequest, got %v", test.name, err)
		}
	}
}

func TestReadRequestBodyTooLarge(t *testing.T) {
	raw := "PUT /a.txt HTTP/1.1\nContent-Length: 50\n\n" + strings.Repeat("x", 50)
	_, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)), 8192, 10)
	if !errors.Is(err, ErrMalformedRequest) {
		t.Errorf("Expected ErrMalformedRequest, got %v", err)
	}
}

func TestParseKeyValuePairs(t *testing.T) {
	tests := []struct {
		input    string
		expected map[string]string
	}{
		{
			"key1=value1&key2=value2",
			map[string]string{"key1": "value1", "key2": "value2"},
		},
		{
			"name=John%20Doe&age=30",
			map[string]string{"name": "John Doe", "age": "30"},
		},
		{
			"a=b=c&flag&x=1",
			map[string]string{"a": "b=c", "x": "1"},
		},
		{
			"",
			map[string]string{},
		},
	}

	for _, test := range tests {
		result := make(map[string]string)
		for _, field := range parseKeyValuePairs(test.input) {
			result[field.Key] = field.Value
		}

		if len(result) != len(test.expected) {
			t.Errorf("Expected %d pairs, got %d", len(test.expected), len(result))
			continue
		}

		for key, expectedValue := range test.expected {
			if actualValue, exists := result[key]; !exists || actualValue != expectedValue {
				t.Errorf("Expected %s=%s, got %s=%s", key, expectedValue, key, actualValue)
			}
		}
	}
}

func TestParseFlatObject(t *testing.T) {
	fields, err := parseFlatObject(`{"id": "5", "age": 30, "active": true, "meta": {"a": 1}}` + "\n")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expectedKeys := []string{"id", "age", "active", "meta"}
	keys := fields.Keys()
	if len(keys) != len(expectedKeys) {
		t.Fatalf("Expected keys %v, got %v", expectedKeys, keys)
	}
	for i := range expectedKeys {
		if keys[i] != expectedKeys[i] {
			t.Errorf("Expected key %d to be %s, got %s", i, expectedKeys[i], keys[i])
		}
	}

	expected := map[string]string{
		"id":     "5",
		"age":    "30",
		"active": "true",
		"meta":   `{"a": 1}`,
	}
	for key, value := range expected {
		if got := fieldValue(fields, key); got != value {
			t.Errorf("Expected %s=%s, got %s", key, value, got)
		}
	}
}

func TestParseFlatObjectInvalid(t *testing.T) {
	for _, body := range []string{"not json", `["a","b"]`, `{"a":`} {
		if _, err := parseFlatObject(body); !errors.Is(err, ErrMalformedRequest) {
			t.Errorf("Expected ErrMalformedRequest for %q, got %v", body, err)
		}
	}

	fields, err := parseFlatObject("  \n")
	if err != nil || len(fields) != 0 {
		t.Errorf("Empty body should decode to no fields, got %v, %v", fields, err)
	}
}
