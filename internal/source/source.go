// Package source turns uploaded list files into plain slices of email
// strings. Two inputs are supported: local files and S3 objects, both
// parsed the same way — CSV files contribute their first column, any
// other file is read line by line.
package source

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadFile loads emails from a local file.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list file: %w", err)
	}
	defer f.Close()

	return Parse(f, filepath.Ext(path))
}

// Parse extracts emails from a list stream. ext selects the format
// (".csv" for CSV, anything else is treated as line-per-email). Blank
// lines are dropped; a CSV header row is skipped when its first cell
// does not look like an address.
func Parse(r io.Reader, ext string) ([]string, error) {
	if strings.EqualFold(ext, ".csv") {
		return parseCSV(r)
	}
	return parseLines(r)
}

func parseCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var emails []string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		cell := strings.TrimSpace(record[0])
		if first {
			first = false
			if !strings.Contains(cell, "@") {
				continue // header row
			}
		}
		if cell != "" {
			emails = append(emails, cell)
		}
	}
	return emails, nil
}

func parseLines(r io.Reader) ([]string, error) {
	var emails []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			emails = append(emails, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list: %w", err)
	}
	return emails, nil
}
