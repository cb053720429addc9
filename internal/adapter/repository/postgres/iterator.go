package postgres

import (
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/smr547/agdc/internal/domain"
)

// defaultFetchSize is how many rows an iterator buffers per batch when the
// store is constructed with a non-positive fetch size.
const defaultFetchSize = 100

// cellIterator pages cells out of a pgx result set in fixed-size batches.
// The result set (and its pooled connection) is released as soon as the rows
// are exhausted, an error occurs, or Close is called, whichever comes first.
type cellIterator struct {
	rows      pgx.Rows
	op        string
	fetchSize int
	buf       []domain.Cell
	cur       domain.Cell
	err       error
	done      bool
	closed    bool
}

func newCellIterator(rows pgx.Rows, op string, fetchSize int) *cellIterator {
	if fetchSize <= 0 {
		fetchSize = defaultFetchSize
	}
	return &cellIterator{rows: rows, op: op, fetchSize: fetchSize}
}

func (it *cellIterator) Next() bool {
	if len(it.buf) == 0 && !it.refill() {
		return false
	}
	it.cur = it.buf[0]
	it.buf = it.buf[1:]
	return true
}

func (it *cellIterator) refill() bool {
	if it.done {
		return false
	}
	for len(it.buf) < it.fetchSize {
		if !it.rows.Next() {
			if err := it.rows.Err(); err != nil {
				it.err = &domain.QueryError{Op: it.op, Err: err}
			}
			it.finish()
			break
		}
		var c domain.Cell
		if err := it.rows.Scan(&c.X, &c.Y); err != nil {
			it.err = &domain.QueryError{Op: it.op, Err: err}
			it.finish()
			break
		}
		it.buf = append(it.buf, c)
	}
	return len(it.buf) > 0
}

func (it *cellIterator) finish() {
	it.done = true
	it.Close()
}

func (it *cellIterator) Cell() domain.Cell { return it.cur }

func (it *cellIterator) Err() error { return it.err }

func (it *cellIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.rows.Close()
	return nil
}

// tileScanFunc converts the current row to a Tile. The column set varies by
// operation, so each listing supplies its own.
type tileScanFunc func(rows pgx.Rows) (domain.Tile, error)

// tileIterator is the tile counterpart of cellIterator.
type tileIterator struct {
	rows      pgx.Rows
	op        string
	scan      tileScanFunc
	fetchSize int
	buf       []domain.Tile
	cur       domain.Tile
	err       error
	done      bool
	closed    bool
}

func newTileIterator(rows pgx.Rows, op string, scan tileScanFunc, fetchSize int) *tileIterator {
	if fetchSize <= 0 {
		fetchSize = defaultFetchSize
	}
	return &tileIterator{rows: rows, op: op, scan: scan, fetchSize: fetchSize}
}

func (it *tileIterator) Next() bool {
	if len(it.buf) == 0 && !it.refill() {
		return false
	}
	it.cur = it.buf[0]
	it.buf = it.buf[1:]
	return true
}

func (it *tileIterator) refill() bool {
	if it.done {
		return false
	}
	for len(it.buf) < it.fetchSize {
		if !it.rows.Next() {
			if err := it.rows.Err(); err != nil {
				it.err = &domain.QueryError{Op: it.op, Err: err}
			}
			it.finish()
			break
		}
		t, err := it.scan(it.rows)
		if err != nil {
			it.err = &domain.QueryError{Op: it.op, Err: err}
			it.finish()
			break
		}
		it.buf = append(it.buf, t)
	}
	return len(it.buf) > 0
}

func (it *tileIterator) finish() {
	it.done = true
	it.Close()
}

func (it *tileIterator) Tile() domain.Tile { return it.cur }

func (it *tileIterator) Err() error { return it.err }

func (it *tileIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.rows.Close()
	return nil
}

// acquisitionTileScanner scans the acquisition columns plus one nullable
// pathname per level in pathLevels. Labels in nilLevels are included in the
// dataset map with a nil path (the "missing" listings select no path for the
// absent level but downstream consumers expect the key).
func acquisitionTileScanner(pathLevels, nilLevels []domain.ProcessingLevel) tileScanFunc {
	return func(rows pgx.Rows) (domain.Tile, error) {
		var (
			t     domain.Tile
			acqID int64
			sat   string
			start time.Time
			end   time.Time
			year  int
			month int
		)

		paths := make([]*string, len(pathLevels))
		dest := []any{&acqID, &sat, &start, &end, &year, &month, &t.X, &t.Y}
		for i := range paths {
			dest = append(dest, &paths[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return domain.Tile{}, err
		}

		satellite := domain.Satellite(sat)
		t.AcquisitionID = &acqID
		t.Satellite = &satellite
		t.Start = &start
		t.End = &end
		t.Year = &year
		t.Month = &month

		t.Datasets = make(map[string]*string, len(pathLevels)+len(nilLevels))
		for i, level := range pathLevels {
			t.Datasets[level.Label()] = paths[i]
		}
		for _, level := range nilLevels {
			t.Datasets[level.Label()] = nil
		}

		return t, nil
	}
}

// terrainTileScanner scans grid indices plus the four elevation paths; there
// are no acquisition columns.
func terrainTileScanner(levels []domain.ProcessingLevel) tileScanFunc {
	return func(rows pgx.Rows) (domain.Tile, error) {
		var t domain.Tile

		paths := make([]*string, len(levels))
		dest := []any{&t.X, &t.Y}
		for i := range paths {
			dest = append(dest, &paths[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return domain.Tile{}, err
		}

		t.Datasets = make(map[string]*string, len(levels))
		for i, level := range levels {
			t.Datasets[level.Label()] = paths[i]
		}

		return t, nil
	}
}
