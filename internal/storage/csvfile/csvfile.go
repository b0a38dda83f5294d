// Package csvfile persists rankings and ticker history as flat CSV tables.
//
// Each table is written once. The CSV columns are the flat table columns
// only, so fields outside them (conversion flags, missing field sets)
// do not survive a round trip.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"kraken-tools/internal/storage"
)

// writeOnce creates path and writes content. Returns ErrDuplicateKey if path exists.
func writeOnce(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, path)
		}
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// readTable reads a CSV file and checks its header.
// Returns ErrNotFound if the file does not exist.
func readTable(path, header string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 || strings.Join(rows[0], ",") != header {
		return nil, fmt.Errorf("read %s: unexpected header", path)
	}
	return rows[1:], nil
}

// checkName rejects identifiers that are not usable verbatim as a file name
// fragment. IDs are never rewritten, so two IDs can never share a file.
func checkName(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty %s", storage.ErrInvalidInput, kind)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %s %q may only contain letters, digits, '-' and '_'", storage.ErrInvalidInput, kind, id)
		}
	}
	return nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}
