package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/couchcryptid/envirocar-etl/internal/config"
	"github.com/couchcryptid/envirocar-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyStream_DeliversAllBytes(t *testing.T) {
	var got strings.Builder
	s := newCopyStream(16, func(r io.Reader) error {
		_, err := io.Copy(&got, r)
		return err
	})

	for _, line := range []string{"a\tb\n", "c\t\\N\n", strings.Repeat("x", 100) + "\n"} {
		_, err := io.WriteString(s, line)
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())
	assert.Equal(t, "a\tb\nc\t\\N\n"+strings.Repeat("x", 100)+"\n", got.String())
}

func TestCopyStream_ServerRejects(t *testing.T) {
	rejected := errors.New("ERROR: invalid input syntax for type double precision")
	s := newCopyStream(16, func(r io.Reader) error {
		buf := make([]byte, 4)
		_, _ = r.Read(buf)
		return rejected
	})

	var writeErr error
	for i := 0; i < 100 && writeErr == nil; i++ {
		_, writeErr = io.WriteString(s, "row\tvalue\n")
	}
	require.Error(t, writeErr)
	assert.ErrorIs(t, writeErr, rejected)

	err := s.Close()
	assert.ErrorIs(t, err, rejected)
}

func TestCopyStream_ClassifiesServerFailure(t *testing.T) {
	cause := errors.New("ERROR: relation \"measurements\" does not exist")
	tests := []struct {
		name   string
		closed bool
		want   error
	}{
		{name: "connection survives", closed: false, want: domain.ErrQuery},
		{name: "connection lost", closed: true, want: domain.ErrConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newCopyStream(16, func(r io.Reader) error {
				return classify(fakeConn{closed: tt.closed}, "copy", cause)
			})

			var writeErr error
			for i := 0; i < 100 && writeErr == nil; i++ {
				_, writeErr = io.WriteString(s, "row\tvalue\n")
			}
			require.Error(t, writeErr)
			assert.ErrorIs(t, writeErr, tt.want)

			err := s.Close()
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, cause)
		})
	}
}

func TestClassify(t *testing.T) {
	cause := errors.New("boom")

	err := classify(fakeConn{}, "exec \"SELECT 1\"", cause)
	assert.ErrorIs(t, err, domain.ErrQuery)
	assert.NotErrorIs(t, err, domain.ErrConnection)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `exec "SELECT 1"`)

	err = classify(fakeConn{closed: true}, "copy", cause)
	assert.ErrorIs(t, err, domain.ErrConnection)
	assert.NotErrorIs(t, err, domain.ErrQuery)
}

func TestCopyStream_CloseIsIdempotent(t *testing.T) {
	s := newCopyStream(16, func(r io.Reader) error {
		_, err := io.Copy(io.Discard, r)
		return err
	})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestLoader_NotConnected(t *testing.T) {
	l := NewLoader(&config.Config{PostgresURL: "postgres://localhost/none"}, slog.Default())

	assert.ErrorIs(t, l.Exec(context.Background(), "SELECT 1"), errNotConnected)

	_, err := l.Copy(context.Background(), "COPY t(a) FROM STDIN")
	assert.ErrorIs(t, err, errNotConnected)

	assert.NoError(t, l.Close(context.Background()), "closing an absent connection is a no-op")
}

type fakeConn struct{ closed bool }

func (c fakeConn) IsClosed() bool { return c.closed }
