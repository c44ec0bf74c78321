package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"llm-trader/internal/types"
)

// CSVSource loads bars from per-symbol CSV files with the header
// timestamp,open,high,low,close,volume. Timestamps are RFC3339 or unix
// seconds.
type CSVSource struct {
	dir string
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

func (c *CSVSource) Bars(_ context.Context, symbol string, limit int) ([]types.Bar, error) {
	path := filepath.Join(c.dir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars for %s: %w", symbol, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) > 0 && rows[0][0] == "timestamp" {
		rows = rows[1:]
	}

	bars := make([]types.Bar, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("%s row %d: want 6 columns, got %d", path, i+1, len(row))
		}
		bar, err := rowToBar(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		bars = append(bars, bar)
	}
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

func rowToBar(row []string) (types.Bar, error) {
	var bar types.Bar
	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		sec, serr := strconv.ParseInt(row[0], 10, 64)
		if serr != nil {
			return bar, fmt.Errorf("bad timestamp %q", row[0])
		}
		ts = time.Unix(sec, 0).UTC()
	}
	bar.Ts = ts

	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return bar, fmt.Errorf("bad value %q", row[i+1])
		}
		vals[i] = v
	}
	bar.Open, bar.High, bar.Low, bar.Close, bar.Vol = vals[0], vals[1], vals[2], vals[3], vals[4]
	return bar, nil
}
