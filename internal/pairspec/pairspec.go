// Package pairspec resolves the pair list given on the command line.
//
// Accepted forms:
//
//	BTC/USD,ETH/USD           direct comma separated list
//	pairs.txt[:limit]         one pair per line, blanks and # comments skipped
//	ranking.csv:column[:limit] values of a named CSV column
//
// Values are trimmed and de-duplicated, keeping the first occurrence.
// The limit counts values read from the file, before de-duplication.
package pairspec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrEmpty is returned when a spec resolves to no pairs.
var ErrEmpty = errors.New("no pairs")

// Parse resolves a pair spec into an ordered, de-duplicated list.
func Parse(spec string) ([]string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("parse pair spec: %w: empty input", ErrEmpty)
	}

	var (
		values []string
		err    error
	)
	switch path, rest, _ := strings.Cut(spec, ":"); {
	case isFile(path, ".csv"):
		values, err = parseCSVSpec(path, rest)
	case isFile(path, ".txt"):
		values, err = parseTextSpec(path, rest)
	default:
		values = strings.Split(spec, ",")
	}
	if err != nil {
		return nil, fmt.Errorf("parse pair spec %q: %w", spec, err)
	}

	out := dedupe(values)
	if len(out) == 0 {
		return nil, fmt.Errorf("parse pair spec %q: %w", spec, ErrEmpty)
	}
	return out, nil
}

func isFile(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}

func parseTextSpec(path, rest string) ([]string, error) {
	limit, err := parseLimit(rest)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var values []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if limit > 0 && len(values) >= limit {
			break
		}
		values = append(values, line)
	}
	return values, nil
}

func parseCSVSpec(path, rest string) ([]string, error) {
	column, limitStr, _ := strings.Cut(rest, ":")
	column = strings.TrimSpace(column)
	if column == "" {
		return nil, errors.New("missing column name, use file.csv:column[:limit]")
	}
	limit, err := parseLimit(limitStr)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("empty CSV file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := -1
	for i, h := range header {
		if strings.TrimSpace(h) == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found, available: %s", column, strings.Join(header, ", "))
	}

	var values []string
	for limit <= 0 || len(values) < limit {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if idx >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[idx]); v != "" {
			values = append(values, v)
		}
	}
	return values, nil
}

// parseLimit returns 0 (no limit) for an empty string.
func parseLimit(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid limit %q", s)
	}
	return n, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
