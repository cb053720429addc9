package postgres

import (
	"context"
	"io"

	"github.com/smr547/agdc/internal/domain"
)

// countingWriter tracks how much of an export reached the sink so a failure
// can report whether the output is partially written.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// copyCSV renders the listing with literals (COPY takes no bind parameters),
// wraps it in the bulk CSV export and streams it from the server to w.
// The returned count is the number of data rows copied.
func (s *TileStore) copyCSV(ctx context.Context, op, sql string, args []any, w io.Writer) (int64, error) {
	stmt, err := interpolate(copyStatement(sql), args)
	if err != nil {
		return 0, &domain.ExportError{Op: op, Err: err}
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return 0, &domain.ConnectError{Err: err}
	}
	defer conn.Release()

	s.logger.Debug("streaming export", "op", op)

	cw := &countingWriter{w: w}
	tag, err := conn.Conn().PgConn().CopyTo(ctx, cw, stmt)
	if err != nil {
		return 0, &domain.ExportError{Op: op, BytesWritten: cw.n, Err: err}
	}

	return tag.RowsAffected(), nil
}
