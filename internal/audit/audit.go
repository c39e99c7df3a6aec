// Package audit maintains the append-only CSV trail of everything the
// pipeline does.
//
// The audit log is not just diagnostics: the reset tool replays it to
// learn which files exist on disk, so every materialization row must be
// durable before the engine moves on. Append flushes and syncs each row
// for that reason.
package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LogName is the audit log file under the output root.
const LogName = "audit_log.csv"

// Columns is the fixed audit log header.
var Columns = []string{"Timestamp", "Event Type", "Thread ID", "Email Date", "Subject", "Entity", "Status", "Details"}

// Record is one audit log row. For Saved attachment rows, Details
// carries the file path relative to the output root; the reset tool
// depends on that.
type Record struct {
	Timestamp string
	Event     string
	ThreadID  string
	EmailDate string // YYYY-MM-DD
	Subject   string
	Entity    string // filename or path the event concerns
	Status    string
	Details   string
}

// Log is an open audit log, appending rows to the end of the file.
type Log struct {
	f *os.File
	w *csv.Writer
}

// OpenLog opens (or creates) the audit log under root for appending.
// The header row is written only when the file is new.
func OpenLog(root string) (*Log, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", root, err)
	}

	path := filepath.Join(root, LogName)
	info, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr) || (statErr == nil && info.Size() == 0)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	l := &Log{f: f, w: csv.NewWriter(f)}
	if fresh {
		if err := l.write(Columns); err != nil {
			f.Close()
			return nil, fmt.Errorf("write audit header: %w", err)
		}
	}
	return l, nil
}

// Append writes one row and makes it durable before returning. An
// empty timestamp is filled with the current time.
func (l *Log) Append(r Record) error {
	if r.Timestamp == "" {
		r.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	row := []string{r.Timestamp, r.Event, r.ThreadID, r.EmailDate, r.Subject, r.Entity, r.Status, r.Details}
	if err := l.write(row); err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}
	return nil
}

func (l *Log) write(row []string) error {
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return err
	}
	return l.f.Sync()
}

// Close flushes and closes the log file.
func (l *Log) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}

// ReadLog returns every record in the audit log under root, oldest
// first. A missing log yields no records and no error.
func ReadLog(root string) ([]Record, error) {
	f, err := os.Open(filepath.Join(root, LogName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var records []Record
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read audit log: %w", err)
		}
		if first {
			first = false
			if len(row) > 0 && row[0] == Columns[0] {
				continue // header
			}
		}
		if len(row) < len(Columns) {
			continue
		}
		records = append(records, Record{
			Timestamp: row[0],
			Event:     row[1],
			ThreadID:  row[2],
			EmailDate: row[3],
			Subject:   row[4],
			Entity:    row[5],
			Status:    row[6],
			Details:   row[7],
		})
	}
}
