package server

import (
	"bytes"
	"strconv"
	"time"
)

const (
	StatusOK                  = 200
	StatusNotModified         = 304
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusInternalServerError = 500
)

var statusText = map[int]string{
	StatusOK:                  "OK",
	StatusNotModified:         "Not Modified",
	StatusNotFound:            "Not Found",
	StatusMethodNotAllowed:    "Method Not Allowed",
	StatusInternalServerError: "Internal Server Error",
}

// dateLayout renders the Date header as MM/dd/yyyy h:mm:ss AM
const dateLayout = "01/02/2006 3:04:05 PM"

// Response is the outcome of routing one request
type Response struct {
	Status      int
	ContentType ContentType
	Body        string
}

// StatusText returns the reason phrase for code, or "" if unknown
func StatusText(code int) string {
	return statusText[code]
}

// writeResponseHeader writes the status line and headers. Content-Type is
// only sent with 200 responses; there is no Content-Length, the body ends
// when the connection closes.
func writeResponseHeader(buf *bytes.Buffer, status int, contentType ContentType, version string, date time.Time, origin string) {
	buf.WriteString(version)
	buf.WriteString(" ")
	buf.WriteString(strconv.Itoa(status))
	if text := StatusText(status); text != "" {
		buf.WriteString(" ")
		buf.WriteString(text)
	}
	if status == StatusOK && contentType != ContentNone {
		buf.WriteString("\nContent-Type: ")
		buf.WriteString(contentType.String())
	}
	buf.WriteString("\nDate: ")
	buf.WriteString(date.Format(dateLayout))
	buf.WriteString("\nServer: ")
	buf.WriteString(origin)
}

// ResponseHeader returns the header text without the blank separator line
func ResponseHeader(status int, contentType ContentType, version string, date time.Time, origin string) string {
	var buf bytes.Buffer
	writeResponseHeader(&buf, status, contentType, version, date, origin)
	return buf.String()
}

// CreateResponseBytes builds the full response: header, blank line, body
func CreateResponseBytes(resp Response, version string, date time.Time, origin string) []byte {
	buf := responseBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	defer func() {
		if buf.Cap() <= maxPoolBufferSize {
			responseBufferPool.Put(buf)
		}
	}()

	writeResponseHeader(buf, resp.Status, resp.ContentType, version, date, origin)
	buf.WriteString("\n\n")
	buf.WriteString(resp.Body)

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result
}

func notFound(contentType ContentType) Response {
	return Response{Status: StatusNotFound, ContentType: contentType, Body: "Resource not found!"}
}

func methodNotAllowed() Response {
	return Response{Status: StatusMethodNotAllowed, ContentType: ContentNone, Body: "Method not supported!"}
}

func internalError() Response {
	return Response{Status: StatusInternalServerError, ContentType: ContentNone}
}
