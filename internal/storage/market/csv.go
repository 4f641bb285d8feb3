package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kalletarpila/swingmaster/internal/core"
)

var requiredColumns = []string{"date", "open", "high", "low", "close"}

// ReadCSV parses daily bars from r. The header names the columns, matched
// case-insensitively: date, open, high, low and close are required, volume
// and ticker are optional. Rows without a ticker column use ticker.
func ReadCSV(r io.Reader, ticker string) ([]core.OHLCV, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}
	tickerCol, hasTicker := cols["ticker"]
	if !hasTicker && ticker == "" {
		return nil, errors.New("no ticker column and no ticker given")
	}

	var bars []core.OHLCV
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		b := core.OHLCV{Symbol: ticker}
		if hasTicker && strings.TrimSpace(rec[tickerCol]) != "" {
			b.Symbol = strings.TrimSpace(rec[tickerCol])
		}
		if b.Time, err = core.ParseDate(strings.TrimSpace(rec[cols["date"]])); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		prices := []struct {
			col string
			dst *float64
		}{
			{"open", &b.Open}, {"high", &b.High}, {"low", &b.Low}, {"close", &b.Close},
		}
		for _, p := range prices {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[cols[p.col]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, p.col, err)
			}
			*p.dst = v
		}
		if i, ok := cols["volume"]; ok && strings.TrimSpace(rec[i]) != "" {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: volume: %w", line, err)
			}
			b.Volume = int64(v)
		}

		if !b.IsValid() {
			return nil, fmt.Errorf("line %d: invalid bar for %s on %s", line, b.Symbol, b.Time.Format(core.DateLayout))
		}
		bars = append(bars, b)
	}
	return bars, nil
}
