package postgres

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/couchcryptid/envirocar-etl/internal/config"
	"github.com/couchcryptid/envirocar-etl/internal/domain"
	"github.com/jackc/pgx/v5"
)

// copyBufferSize batches small row writes before they cross the pipe.
const copyBufferSize = 64 * 1024

var errNotConnected = errors.New("postgres loader is not connected")

// Loader issues DDL and streams COPY data to PostgreSQL over a single
// connection. It implements pipeline.Loader and is not safe for concurrent use.
type Loader struct {
	url    string
	logger *slog.Logger
	conn   *pgx.Conn
}

// NewLoader creates a Loader for the configured destination. No connection
// is opened until Connect.
func NewLoader(cfg *config.Config, logger *slog.Logger) *Loader {
	return &Loader{url: cfg.PostgresURL, logger: logger}
}

// Connect opens the destination connection.
func (l *Loader) Connect(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.url)
	if err != nil {
		return fmt.Errorf("%w: connect postgres: %w", domain.ErrConnection, err)
	}
	l.conn = conn
	return nil
}

// Exec runs a single statement without arguments.
func (l *Loader) Exec(ctx context.Context, sql string) error {
	if l.conn == nil {
		return errNotConnected
	}
	if _, err := l.conn.Exec(ctx, sql); err != nil {
		return classify(l.conn, fmt.Sprintf("exec %q", sql), err)
	}
	return nil
}

// Copy starts sql, a COPY ... FROM STDIN statement, and returns the stream
// feeding it. Bytes written must already be in COPY text format. Closing the
// stream ends the COPY and reports its outcome; writes fail once the server
// has rejected the COPY.
func (l *Loader) Copy(ctx context.Context, sql string) (io.WriteCloser, error) {
	if l.conn == nil {
		return nil, errNotConnected
	}

	conn := l.conn
	return newCopyStream(copyBufferSize, func(r io.Reader) error {
		tag, err := conn.PgConn().CopyFrom(ctx, r, sql)
		if err != nil {
			return classify(conn, "copy", err)
		}
		l.logger.Info("copy completed", "rows", tag.RowsAffected())
		return nil
	}), nil
}

// Close closes the connection if one is open. It is safe to call more than once.
func (l *Loader) Close(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	conn := l.conn
	l.conn = nil
	return conn.Close(context.WithoutCancel(ctx))
}

// connState is the part of *pgx.Conn that classify inspects.
type connState interface {
	IsClosed() bool
}

// classify wraps err as a connection error when the connection did not
// survive it and as a query error otherwise.
func classify(conn connState, op string, err error) error {
	if conn.IsClosed() {
		return fmt.Errorf("%w: %s: %w", domain.ErrConnection, op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrQuery, op, err)
}

// copyStream is the client side of a running COPY.
type copyStream struct {
	pw   *io.PipeWriter
	buf  *bufio.Writer
	done chan error

	closeOnce sync.Once
	closeErr  error
}

// newCopyStream starts consume on the read side of a pipe and returns the
// buffered write side. An error from consume fails pending and later writes
// and is returned by Close.
func newCopyStream(bufSize int, consume func(r io.Reader) error) *copyStream {
	pr, pw := io.Pipe()
	s := &copyStream{
		pw:   pw,
		buf:  bufio.NewWriterSize(pw, bufSize),
		done: make(chan error, 1),
	}
	go func() {
		err := consume(pr)
		if err != nil {
			// Unblock any writer still waiting on the pipe.
			pr.CloseWithError(err)
		}
		s.done <- err
	}()
	return s
}

func (s *copyStream) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

// Close flushes buffered rows, signals end of data and waits for the server
// to acknowledge the COPY.
func (s *copyStream) Close() error {
	s.closeOnce.Do(func() {
		flushErr := s.buf.Flush()
		_ = s.pw.Close()
		if err := <-s.done; err != nil {
			s.closeErr = err
			return
		}
		s.closeErr = flushErr
	})
	return s.closeErr
}
