// Package reset undoes previously synced periods.
//
// Reset is log-driven: the audit log is the ground truth for what was
// written, so only files recorded there as Saved are ever deleted. A
// file written outside the logged flow is invisible to reset.
package reset

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/diasulisses/fiscal-fetch/internal/audit"
	"github.com/diasulisses/fiscal-fetch/internal/index"
	"github.com/diasulisses/fiscal-fetch/internal/types"
)

// PeriodAll removes every logged download regardless of date.
const PeriodAll = "all"

var periodPattern = regexp.MustCompile(`^\d{4}(-\d{2})?$`)

// ValidPeriod reports whether a period specifier is "all", a year, or
// a year-month.
func ValidPeriod(period string) bool {
	return period == PeriodAll || periodPattern.MatchString(period)
}

// logSink opens the audit log on first use, so a reset that touches
// nothing leaves no log (or output directory) behind.
type logSink struct {
	root string
	log  *audit.Log
}

func (s *logSink) append(rec audit.Record) {
	if s.log == nil {
		l, err := audit.OpenLog(s.root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ! audit log: %v\n", err)
			return
		}
		s.log = l
	}
	if err := s.log.Append(rec); err != nil {
		fmt.Fprintf(os.Stderr, "  ! audit log: %v\n", err)
	}
}

func (s *logSink) close() {
	if s.log != nil {
		s.log.Close()
	}
}

// Run deletes materialized files and report files for the given period
// and prunes the matching thread ids from the processed index. Each
// deletion is itself appended to the audit log.
func Run(root, period string, quiet bool) (*types.ResetResult, error) {
	if !ValidPeriod(period) {
		return nil, fmt.Errorf("invalid period %q: use 'all', YYYY, or YYYY-MM", period)
	}
	res := &types.ResetResult{Period: period}

	records, err := audit.ReadLog(root)
	if err != nil {
		return nil, err
	}

	sink := &logSink{root: root}
	defer sink.close()

	removal := make(map[string]struct{})
	for _, rec := range records {
		if rec.Event != types.EventAttachment || rec.Status != types.StatusSaved {
			continue
		}
		if period != PeriodAll && !strings.HasPrefix(rec.EmailDate, period) {
			continue
		}

		// The thread is forgotten even when its file is already gone,
		// so the next run can fetch it again.
		removal[rec.ThreadID] = struct{}{}

		rel := rec.Details
		path := filepath.Join(root, rel)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		del := audit.Record{
			Event:     types.EventFileDeletion,
			ThreadID:  rec.ThreadID,
			EmailDate: rec.EmailDate,
			Entity:    rel,
		}
		if err := os.Remove(path); err != nil {
			del.Status = types.StatusError
			del.Details = err.Error()
			res.Errors++
			if !quiet {
				fmt.Fprintf(os.Stderr, "  ! delete %s: %v\n", rel, err)
			}
		} else {
			del.Status = types.StatusSuccess
			res.FilesDeleted++
			if !quiet {
				fmt.Printf("  - deleted %s\n", rel)
			}
		}
		sink.append(del)
	}

	res.ReportsDeleted = deleteReports(root, period, quiet, sink, res)

	if len(removal) == 0 && res.ReportsDeleted == 0 {
		if !quiet {
			fmt.Printf("Nothing recorded for period %q; index untouched.\n", period)
		}
		return res, nil
	}

	idx := index.Load(root)
	for id := range removal {
		idx.Remove(id)
	}
	if err := idx.Save(root); err != nil {
		return nil, err
	}
	res.ThreadsRemoved = len(removal)
	return res, nil
}

// deleteReports removes report files whose recorded date range starts
// with the period, or all of them for PeriodAll. The generation
// timestamp in the filename is deliberately not matched: a report
// written during 2024 about 2023 mail belongs to 2023.
func deleteReports(root, period string, quiet bool, sink *logSink, res *types.ResetResult) int {
	dir := filepath.Join(root, audit.ReportsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if period != PeriodAll {
			label, ok := audit.ReportRange(name)
			if !ok || !strings.HasPrefix(label, period) {
				continue
			}
		}

		rel := filepath.Join(audit.ReportsDir, name)
		del := audit.Record{Event: types.EventReportDeletion, Entity: rel}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			del.Status = types.StatusError
			del.Details = err.Error()
			res.Errors++
			if !quiet {
				fmt.Fprintf(os.Stderr, "  ! delete %s: %v\n", rel, err)
			}
		} else {
			del.Status = types.StatusSuccess
			deleted++
			if !quiet {
				fmt.Printf("  - deleted %s\n", rel)
			}
		}
		sink.append(del)
	}
	return deleted
}
