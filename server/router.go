package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codetesla51/raw-http-db/sqlgen"
	"github.com/codetesla51/raw-http-db/store"
	"github.com/rs/zerolog"
)

// ErrUnknownOperation is returned for an unrecognised mutation verb
var ErrUnknownOperation = errors.New("unknown operation")

// tableSegment is the first path segment of table reads
const tableSegment = "db"

type operation int

const (
	opInsert operation = iota
	opUpdate
	opDelete
)

// operations maps the first path segment of a PUT to a mutation
var operations = map[string]operation{
	"insert":    opInsert,
	"update":    opUpdate,
	"delete":    opDelete,
	"db_insert": opInsert,
	"db_update": opUpdate,
	"db_delete": opDelete,
}

// Router turns a parsed request into a Response. Paths containing a '.'
// are files under the static root; everything else is a table endpoint.
type Router struct {
	config  *Config
	builder sqlgen.Builder
	logger  zerolog.Logger
}

// NewRouter creates a Router for config
func NewRouter(config *Config, logger zerolog.Logger) *Router {
	return &Router{
		config:  config,
		builder: sqlgen.Builder{LegacyWhere: config.Legacy.WhereSeparator},
		logger:  logger,
	}
}

// Route produces exactly one response for req. exec may be nil when the
// database is disabled.
func (r *Router) Route(ctx context.Context, req *Request, exec store.Executor) Response {
	if !req.Valid() {
		return notFound(ContentHTML)
	}

	path := strings.TrimPrefix(req.Path, "/")
	path, _, _ = strings.Cut(path, "?")
	isFile := strings.Contains(path, ".")

	switch req.Method {
	case "GET":
		if isFile {
			return r.readFile(path)
		}
		return r.selectTable(ctx, path, req.Query, exec)
	case "PUT":
		if isFile {
			return r.writeFile(path, req.Body)
		}
		return r.mutateTable(ctx, path, req.Query, req.Body, exec)
	default:
		return methodNotAllowed()
	}
}

func (r *Router) contentType(path string) ContentType {
	return contentTypeFor(fileExtension(path, r.config.Legacy.ExtensionOffByOne))
}

// readFile serves a regular file below the static root
func (r *Router) readFile(path string) Response {
	contentType := r.contentType(path)
	if !r.config.Static {
		return notFound(contentType)
	}

	filePath, ok := resolveStaticPath(r.config.Root, path)
	if !ok || !isRegularFile(filePath) {
		return notFound(contentType)
	}

	content, ok := readFileContent(filePath)
	if !ok {
		return notFound(contentType)
	}
	return Response{Status: StatusOK, ContentType: contentType, Body: string(content)}
}

// writeFile overwrites an existing regular file with body
func (r *Router) writeFile(path, body string) Response {
	contentType := r.contentType(path)
	if !r.config.Static {
		return notFound(contentType)
	}

	filePath, ok := resolveStaticPath(r.config.Root, path)
	if !ok || !isRegularFile(filePath) {
		return notFound(contentType)
	}

	if err := writeFileContent(filePath, []byte(body)); err != nil {
		r.logger.Error().Err(err).Str("file", filePath).Msg("failed to write file")
		return internalError()
	}
	return Response{Status: StatusOK, ContentType: contentType}
}

// tablePath splits "segment/table", reporting false for any other shape
func tablePath(path string) (segment, table string, ok bool) {
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// selectTable handles GET /db/{table}
func (r *Router) selectTable(ctx context.Context, path string, conditions sqlgen.Fields, exec store.Executor) Response {
	segment, table, ok := tablePath(path)
	if !ok || segment != tableSegment || !r.config.Database.Enabled {
		return notFound(ContentHTML)
	}
	if exec == nil {
		r.logger.Error().Msg("database enabled but worker has no executor")
		return internalError()
	}

	statement := r.builder.Select(table, conditions)
	r.logger.Debug().Str("statement", statement).Msg("select")

	result, err := exec.Query(ctx, statement)
	if err != nil {
		return r.errorResponse(err, statement)
	}

	return Response{Status: StatusOK, ContentType: ContentHTML, Body: store.RenderPage(r.template(), result)}
}

// mutateTable handles PUT /{insert|update|delete}/{table}
func (r *Router) mutateTable(ctx context.Context, path string, conditions sqlgen.Fields, body string, exec store.Executor) Response {
	verb, table, ok := tablePath(path)
	if !ok || !r.config.Database.Enabled {
		return notFound(ContentHTML)
	}
	if exec == nil {
		r.logger.Error().Msg("database enabled but worker has no executor")
		return internalError()
	}

	statement, err := r.mutationStatement(verb, table, conditions, body)
	if err != nil {
		return r.errorResponse(err, "")
	}
	r.logger.Debug().Str("statement", statement).Msg("mutation")

	if _, err := exec.Exec(ctx, statement); err != nil {
		return r.errorResponse(err, statement)
	}
	return Response{Status: StatusOK, ContentType: ContentHTML}
}

func (r *Router) mutationStatement(verb, table string, conditions sqlgen.Fields, body string) (string, error) {
	op, ok := operations[verb]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownOperation, verb)
	}

	if op == opDelete {
		return r.builder.Delete(table, conditions), nil
	}

	values, err := parseFlatObject(body)
	if err != nil {
		return "", err
	}
	if op == opInsert {
		return r.builder.Insert(table, values), nil
	}
	return r.builder.Update(table, conditions, values), nil
}

// errorResponse maps pipeline errors onto status codes
func (r *Router) errorResponse(err error, statement string) Response {
	event := r.logger.Warn().Err(err)
	if statement != "" {
		event = event.Str("statement", statement)
	}
	event.Msg("request failed")

	switch {
	case errors.Is(err, ErrUnknownOperation):
		return Response{Status: StatusMethodNotAllowed, ContentType: ContentNone}
	case errors.Is(err, ErrMalformedRequest):
		return notFound(ContentHTML)
	default:
		return internalError()
	}
}

// template returns the page template, falling back to the built-in one
func (r *Router) template() string {
	if r.config.Template != "" {
		if content, ok := readFileContent(r.config.Template); ok {
			return string(content)
		}
	}
	return store.DefaultTemplate
}
