package backtest

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// PriceFeed yields prices one at a time. Implementations return
// (ok=false, err=nil) at the end of the data.
type PriceFeed interface {
	Next() (price float64, ok bool, err error)
	Close() error
}

// SliceFeed replays an in-memory price series.
type SliceFeed struct {
	prices []float64
	i      int
}

func NewSliceFeed(prices []float64) *SliceFeed {
	return &SliceFeed{prices: prices}
}

func (f *SliceFeed) Next() (float64, bool, error) {
	if f.i >= len(f.prices) {
		return 0, false, nil
	}
	p := f.prices[f.i]
	f.i++
	return p, true, nil
}

func (f *SliceFeed) Close() error { return nil }

// DefaultCloseColumn is the close price column of a Binance kline row:
//
//	open_time,open,high,low,close,volume,...
const DefaultCloseColumn = 4

// CSVCloseFeed reads one price per CSV row from a fixed column.
//
// A single header row is allowed: the first row is skipped when its price
// column does not parse as a number. Empty and short rows are skipped.
type CSVCloseFeed struct {
	c      []io.Closer
	r      *csv.Reader
	column int
	line   int
}

// OpenCSVCloseFeed opens path and reads prices from column (zero-based).
// Files ending in .gz, .xz or .lzma are decompressed on the fly.
func OpenCSVCloseFeed(path string, column int) (*CSVCloseFeed, error) {
	if column < 0 {
		return nil, fmt.Errorf("csv feed: column must not be negative, got %d", column)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r, closer, err := decompress(fh, filepath.Ext(path))
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("csv feed: %s: %w", path, err)
	}

	feed := NewCSVCloseFeed(r, column)
	if closer != nil {
		feed.c = append(feed.c, closer)
	}
	feed.c = append(feed.c, fh)
	return feed, nil
}

func decompress(r io.Reader, ext string) (io.Reader, io.Closer, error) {
	switch strings.ToLower(ext) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr, nil
	case ".xz":
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return xr, nil, nil
	case ".lzma":
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return lr, nil, nil
	default:
		return r, nil, nil
	}
}

// NewCSVCloseFeed reads prices from column of r. The caller keeps
// ownership of r.
func NewCSVCloseFeed(r io.Reader, column int) *CSVCloseFeed {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &CSVCloseFeed{r: cr, column: column}
}

func (f *CSVCloseFeed) Close() error {
	var first error
	for _, c := range f.c {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	f.c = nil
	return first
}

func (f *CSVCloseFeed) Next() (float64, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, err
		}
		f.line++

		if len(row) <= f.column {
			continue
		}
		cell := strings.TrimSpace(row[f.column])
		if cell == "" {
			continue
		}

		p, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			if f.line == 1 {
				continue
			}
			return 0, false, fmt.Errorf("csv feed: line %d: bad price %q: %w", f.line, cell, err)
		}
		return p, true, nil
	}
}

// ReadPrices drains feed into a slice and closes it.
func ReadPrices(feed PriceFeed) ([]float64, error) {
	defer feed.Close()

	var out []float64
	for {
		p, ok, err := feed.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, p)
	}
}
