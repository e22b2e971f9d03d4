package server

import (
	"bufio"
	"errors"
	"net"
	"runtime/debug"
	"time"

	"github.com/codetesla51/raw-http-db/store"
	"github.com/rs/zerolog"
)

type connState int

const (
	stateAccepted connState = iota
	stateParsing
	stateRouted
	stateResponding
	stateClosed
	stateFailed
)

func (s connState) String() string {
	switch s {
	case stateAccepted:
		return "accepted"
	case stateParsing:
		return "parsing"
	case stateRouted:
		return "routed"
	case stateResponding:
		return "responding"
	case stateClosed:
		return "closed"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// conn owns one accepted connection from parse to close
type conn struct {
	srv    *Server
	nc     net.Conn
	exec   store.Executor
	reader *bufio.Reader
	logger zerolog.Logger

	state  connState
	req    *Request
	resp   Response
	err    error
	closed bool
}

type stateFunc func(*conn) stateFunc

// serveConn runs the connection state machine. Failures never leave this
// function; a panic is answered with a best-effort 500.
func (s *Server) serveConn(nc net.Conn, exec store.Executor) {
	c := &conn{
		srv:    s,
		nc:     nc,
		exec:   exec,
		reader: getReader(nc),
		logger: s.logger.With().Str("conn", remoteAddr(nc)).Logger(),
		state:  stateAccepted,
	}
	defer putReader(c.reader)

	defer func() {
		if err := recover(); err != nil {
			wasResponding := c.state == stateResponding
			c.enter(stateFailed)
			c.logger.Error().Interface("panic", err).Bytes("stack", debug.Stack()).Msg("panic recovered")
			if !wasResponding && !c.closed {
				c.write(internalError())
			}
			c.close()
		}
	}()

	for state := parsing; state != nil; {
		state = state(c)
	}
}

func (c *conn) enter(state connState) {
	c.state = state
	c.logger.Debug().Stringer("state", state).Msg("connection state")
}

func parsing(c *conn) stateFunc {
	c.enter(stateParsing)
	cfg := c.srv.config
	if cfg.ReadTimeout > 0 {
		c.nc.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	}

	req, err := ReadRequest(c.reader, cfg.MaxHeaderSize, cfg.MaxBodySize)
	if err != nil {
		c.err = err
		return failed
	}
	c.req = req
	return routing
}

func routing(c *conn) stateFunc {
	c.resp = c.srv.router.Route(c.srv.ctx, c.req, c.exec)
	c.enter(stateRouted)
	return responding
}

func responding(c *conn) stateFunc {
	c.enter(stateResponding)
	if err := c.write(c.resp); err != nil {
		c.err = err
		return failed
	}
	logRequest(c.logger, c.req.Method, c.req.Path, c.resp.Status)
	return closing
}

func failed(c *conn) stateFunc {
	c.enter(stateFailed)
	switch {
	case errors.Is(c.err, errEmptyRequest):
		c.logger.Debug().Err(c.err).Msg("connection dropped")
	case errors.Is(c.err, ErrMalformedRequest):
		c.logger.Info().Err(c.err).Int("status", StatusNotFound).Msg("malformed request")
		if err := c.write(notFound(ContentHTML)); err != nil {
			c.logger.Debug().Err(err).Msg("write failed")
		}
	default:
		c.logger.Warn().Err(c.err).Msg("connection failed")
	}
	return closing
}

func closing(c *conn) stateFunc {
	c.close()
	c.enter(stateClosed)
	return nil
}

// write sends resp, answering with the request's version when known
func (c *conn) write(resp Response) error {
	cfg := c.srv.config
	version := cfg.DefaultVersion
	if c.req != nil && c.req.Version != "" {
		version = c.req.Version
	}
	if cfg.WriteTimeout > 0 {
		c.nc.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
	}

	data := CreateResponseBytes(resp, version, c.srv.now(), remoteHost(c.nc))
	_, err := c.nc.Write(data)
	return err
}

func (c *conn) close() {
	if c.closed {
		return
	}
	c.closed = true
	if err := c.nc.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("close failed")
	}
}

func remoteAddr(nc net.Conn) string {
	if addr := nc.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// remoteHost returns the client's address without the port
func remoteHost(nc net.Conn) string {
	addr := remoteAddr(nc)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
