package market

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Format identifies a bar file encoding
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Loader reads OHLCV bars from files
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a new bar loader
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger: logger.With().Str("component", "bar_loader").Logger(),
	}
}

// GetSupportedFormats returns the formats the loader can decode
func (l *Loader) GetSupportedFormats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatYAML}
}

// FormatFromPath picks a format based on the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported bar file: %s", path)
	}
}

// LoadFile reads bars from path, choosing the decoder by extension
func (l *Loader) LoadFile(path string) ([]Bar, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bar file: %w", err)
	}
	defer f.Close()

	bars, err := l.Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.logger.Debug().
		Str("path", path).
		Str("format", string(format)).
		Int("bars", len(bars)).
		Msg("Bars loaded")

	return bars, nil
}

// Decode reads bars in the given format and returns them oldest first
func (l *Loader) Decode(r io.Reader, format Format) ([]Bar, error) {
	var (
		bars []Bar
		err  error
	)

	switch format {
	case FormatCSV:
		bars, err = decodeCSV(r)
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&bars)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&bars)
		if err == io.EOF {
			err = nil
		}
	default:
		return nil, fmt.Errorf("unsupported bar format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	if hasTimestamps(bars) {
		sort.SliceStable(bars, func(i, j int) bool {
			return bars[i].Timestamp.Before(bars[j].Timestamp)
		})
	}

	return bars, nil
}

var csvColumns = []string{"timestamp", "open", "high", "low", "close", "volume"}

func decodeCSV(r io.Reader) ([]Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	// column name -> index; a header row is required
	index := make(map[string]int)
	for i, name := range records[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range csvColumns[1:5] {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q in csv header", col)
		}
	}

	bars := make([]Bar, 0, len(records)-1)
	for line, record := range records[1:] {
		bar, err := parseRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line+2, err)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

func parseRecord(record []string, index map[string]int) (Bar, error) {
	var bar Bar

	field := func(name string) (float64, error) {
		i, ok := index[name]
		if !ok || i >= len(record) || strings.TrimSpace(record[i]) == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q", name, record[i])
		}
		return v, nil
	}

	var err error
	if bar.Open, err = field("open"); err != nil {
		return bar, err
	}
	if bar.High, err = field("high"); err != nil {
		return bar, err
	}
	if bar.Low, err = field("low"); err != nil {
		return bar, err
	}
	if bar.Close, err = field("close"); err != nil {
		return bar, err
	}
	if bar.Volume, err = field("volume"); err != nil {
		return bar, err
	}

	if i, ok := index["timestamp"]; ok && i < len(record) {
		ts, err := parseTimestamp(strings.TrimSpace(record[i]))
		if err != nil {
			return bar, err
		}
		bar.Timestamp = ts
	}

	return bar, nil
}

// parseTimestamp accepts RFC3339 or unix seconds
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return ts, nil
}

func hasTimestamps(bars []Bar) bool {
	if len(bars) == 0 {
		return false
	}
	for _, bar := range bars {
		if bar.Timestamp.IsZero() {
			return false
		}
	}
	return true
}
