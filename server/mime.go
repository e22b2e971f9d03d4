package server

import "strings"

// ContentType is one of the content types the server emits
type ContentType int

const (
	ContentNone ContentType = iota
	ContentHTML
	ContentCSS
	ContentJS
	ContentPNG
	ContentSVG
)

var contentTypeNames = [...]string{
	ContentNone: "",
	ContentHTML: "text/html",
	ContentCSS:  "text/css",
	ContentJS:   "application/javascript",
	ContentPNG:  "image/png",
	ContentSVG:  "image/svg+xml",
}

var extensionTypes = map[string]ContentType{
	"css": ContentCSS,
	"js":  ContentJS,
	"png": ContentPNG,
	"svg": ContentSVG,
}

// String returns the MIME label
func (c ContentType) String() string {
	if c < 0 || int(c) >= len(contentTypeNames) {
		return ""
	}
	return contentTypeNames[c]
}

// contentTypeFor maps an extension (without the dot) to a content type.
// Unknown extensions are served as HTML.
func contentTypeFor(ext string) ContentType {
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}
	return ContentHTML
}

// fileExtension returns the text after the last '.' of path.
// With offByOne set the final character of path is excluded as well.
func fileExtension(path string, offByOne bool) string {
	dot := strings.LastIndex(path, ".")
	end := len(path)
	if offByOne {
		end--
	}
	if dot < 0 || dot+1 > end {
		return ""
	}
	return path[dot+1 : end]
}
