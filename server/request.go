package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/codetesla51/raw-http-db/sqlgen"
	"github.com/tidwall/gjson"
)

// ErrMalformedRequest is returned for requests that cannot be interpreted
var ErrMalformedRequest = errors.New("malformed request")

// errEmptyRequest is returned when the client closed without sending anything
var errEmptyRequest = fmt.Errorf("%w: empty request", ErrMalformedRequest)

// startKey holds the request line, or the last non-header line before the body
const startKey = "start"

// Request represents an incoming HTTP request
type Request struct {
	Method  string
	Path    string // includes any query string
	Version string
	Headers map[string]string
	Query   sqlgen.Fields
	Body    string
}

// Valid reports whether the start line had method, path and version
func (r *Request) Valid() bool {
	return r.Method != "" && r.Path != "" && r.Version != ""
}

// StartLine returns the synthetic start entry
func (r *Request) StartLine() string {
	return r.Headers[startKey]
}

// ReadRequest reads one request from r.
//
// Lines containing a colon before the blank separator are headers, split
// on the first colon. Any other non-empty line is stored under "start",
// so a malformed line overwrites the request line. After the blank line
// the body is read: Content-Length bytes when the header is present,
// otherwise whatever input is already buffered. Every body line is kept
// verbatim and terminated with "\n".
func ReadRequest(r *bufio.Reader, maxHeaderSize int, maxBodySize int64) (*Request, error) {
	req := &Request{Headers: make(map[string]string)}

	headerBytes := 0
	inBody := false
	sawInput := false

	for !inBody {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if len(line) > 0 {
			sawInput = true
		}
		headerBytes += len(line)
		if maxHeaderSize > 0 && headerBytes > maxHeaderSize {
			return nil, fmt.Errorf("%w: headers too large", ErrMalformedRequest)
		}

		atEOF := err == io.EOF
		line = strings.TrimRight(line, "\r\n")

		switch {
		case strings.Contains(line, ":"):
			key, value, _ := strings.Cut(line, ":")
			req.Headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
		case line != "":
			req.Headers[startKey] = line
		case !atEOF:
			inBody = true
		}

		if atEOF {
			break
		}
	}

	if !sawInput {
		return nil, errEmptyRequest
	}

	if inBody {
		raw, err := readBody(r, req.Headers, maxBodySize)
		if err != nil {
			return nil, err
		}
		req.Body = joinBodyLines(raw)
	}

	parseStartLine(req)
	return req, nil
}

// parseStartLine fills method, path, version and query from the start entry
func parseStartLine(req *Request) {
	parts := strings.Split(req.Headers[startKey], " ")
	if len(parts) < 3 {
		return
	}
	req.Method = parts[0]
	req.Path = parts[1]
	req.Version = parts[2]

	if _, query, ok := strings.Cut(req.Path, "?"); ok {
		req.Query = parseKeyValuePairs(query)
	}
}

// readBody reads the body bytes following the blank line
func readBody(r *bufio.Reader, headers map[string]string, maxBodySize int64) (string, error) {
	if lengthStr, ok := headerValue(headers, "Content-Length"); ok {
		length, err := strconv.ParseInt(lengthStr, 10, 64)
		if err == nil && length >= 0 {
			if maxBodySize > 0 && length > maxBodySize {
				return "", fmt.Errorf("%w: body too large", ErrMalformedRequest)
			}
			buf := make([]byte, length)
			n, err := io.ReadFull(r, buf)
			if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
				return "", err
			}
			return string(buf[:n]), nil
		}
	}

	n := r.Buffered()
	if maxBodySize > 0 && int64(n) > maxBodySize {
		n = int(maxBodySize)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// joinBodyLines rejoins raw body text line by line, each line ending in "\n"
func joinBodyLines(raw string) string {
	if raw == "" {
		return ""
	}
	lines := strings.Split(raw, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	var sb strings.Builder
	sb.Grow(len(raw) + 1)
	for _, line := range lines {
		sb.WriteString(strings.TrimSuffix(line, "\r"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// headerValue looks up a header ignoring case
func headerValue(headers map[string]string, name string) (string, bool) {
	if v, ok := headers[name]; ok {
		return v, true
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// parseKeyValuePairs parses "k=v&k2=v2". Only the first '=' separates key
// from value; pairs without one are skipped.
func parseKeyValuePairs(data string) sqlgen.Fields {
	var result sqlgen.Fields
	for _, pair := range strings.Split(data, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		result.Set(safeURLDecode(key), safeURLDecode(value))
	}
	return result
}

// parseFlatObject decodes a JSON object into pairs in document order.
// Nested values are kept as their raw JSON text.
func parseFlatObject(body string) (sqlgen.Fields, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil
	}
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrMalformedRequest)
	}
	parsed := gjson.Parse(body)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("%w: body is not an object", ErrMalformedRequest)
	}

	var result sqlgen.Fields
	parsed.ForEach(func(key, value gjson.Result) bool {
		result.Set(key.String(), value.String())
		return true
	})
	return result, nil
}

// safeURLDecode decodes a URL-encoded string, returning original on error
func safeURLDecode(encoded string) string {
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return encoded
	}
	return decoded
}
