// Package synclog keeps a CSV history of sync passes next to config.yaml.
package synclog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Pass outcomes.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Entry is one row in the sync log.
type Entry struct {
	Timestamp  time.Time
	Trigger    string // sync or watch
	Status     string
	Added      int
	Duplicates int
	Details    string
}

// Header is the CSV header for sync-log.csv.
const Header = "timestamp,trigger,status,added,duplicates,details"

const (
	numFields     = 6
	logDir        = "logs"
	logFile       = "sync-log.csv"
	colTimestamp  = 0
	colTrigger    = 1
	colStatus     = 2
	colAdded      = 3
	colDuplicates = 4
	colDetails    = 5
)

// Path returns the log file location under a config directory.
func Path(configDir string) string {
	return filepath.Join(configDir, logDir, logFile)
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colTrigger] = e.Trigger
	row[colStatus] = e.Status
	row[colAdded] = strconv.Itoa(e.Added)
	row[colDuplicates] = strconv.Itoa(e.Duplicates)
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	added, err := strconv.Atoi(record[colAdded])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing added %q: %w", record[colAdded], err)
	}
	dups, err := strconv.Atoi(record[colDuplicates])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing duplicates %q: %w", record[colDuplicates], err)
	}

	return Entry{
		Timestamp:  ts,
		Trigger:    record[colTrigger],
		Status:     record[colStatus],
		Added:      added,
		Duplicates: dups,
		Details:    record[colDetails],
	}, nil
}

// Append writes entries to <configDir>/logs/sync-log.csv, creating the file
// and header if needed.
func Append(configDir string, entries ...Entry) error {
	if err := os.MkdirAll(filepath.Join(configDir, logDir), 0o700); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(configDir)
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening sync log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries in file order. A missing file yields nil.
func Read(configDir string) ([]Entry, error) {
	f, err := os.Open(Path(configDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening sync log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// Tail returns at most n of the most recent entries, oldest first.
func Tail(configDir string, n int) ([]Entry, error) {
	entries, err := Read(configDir)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading sync log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
