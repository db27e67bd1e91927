// Package marketdata loads bar series from external sources.
package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"backtest-lab/internal/domain"
)

// Loader errors
var (
	ErrBadHeader = errors.New("unexpected csv header")
)

// csvHeader is the expected column layout.
var csvHeader = []string{"open_time_ms", "open", "high", "low", "close", "volume"}

// LoadCSV reads a bar series from a CSV file. The file must carry the
// header open_time_ms,open,high,low,close,volume and rows sorted by
// open_time_ms ASC.
func LoadCSV(name, path string) (*domain.BaseBarSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	bars, err := ReadBars(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return domain.NewBaseBarSeries(name, bars)
}

// ReadBars parses bars from CSV content.
func ReadBars(r io.Reader) ([]domain.Bar, error) {
	csvReader := csv.NewReader(r)

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if !headerMatches(header) {
		return nil, ErrBadHeader
	}

	var bars []domain.Bar
	line := 1
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		line++

		bar, err := parseBar(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(csvHeader) {
		return false
	}
	for i, col := range csvHeader {
		if header[i] != col {
			return false
		}
	}
	return true
}

func parseBar(row []string) (domain.Bar, error) {
	if len(row) != len(csvHeader) {
		return domain.Bar{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(row))
	}

	openTime, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parse open_time_ms: %w", err)
	}

	fields := make([]float64, 5)
	for i, col := range csvHeader[1:] {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("parse %s: %w", col, err)
		}
		fields[i] = v
	}

	return domain.Bar{
		OpenTimeMs: openTime,
		Open:       fields[0],
		High:       fields[1],
		Low:        fields[2],
		Close:      fields[3],
		Volume:     fields[4],
	}, nil
}
