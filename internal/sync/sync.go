// Package sync walks new Gmail threads and materializes their
// attachments, recording every outcome in the audit log.
//
// The ordering here is load-bearing: a thread joins the in-memory index
// only after every one of its messages has been handled, and the index
// is persisted exactly once at the end of the run. Interruption
// mid-thread is safe — the thread is simply retried next run, and its
// already-written files skip as existing.
package sync

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/diasulisses/fiscal-fetch/internal/audit"
	"github.com/diasulisses/fiscal-fetch/internal/files"
	"github.com/diasulisses/fiscal-fetch/internal/gmail"
	"github.com/diasulisses/fiscal-fetch/internal/index"
	"github.com/diasulisses/fiscal-fetch/internal/profile"
	"github.com/diasulisses/fiscal-fetch/internal/query"
	"github.com/diasulisses/fiscal-fetch/internal/types"
)

// Engine orchestrates one sync run. Client is the only remote
// dependency, so tests drive the engine with a fake.
type Engine struct {
	Client gmail.Client
	Self   string // operator's address, excluded from results
	Quiet  bool
}

// Run executes the pipeline for one profile and date range.
func (e *Engine) Run(ctx context.Context, cfg types.RunConfig, prof *profile.Profile) (*types.SyncResult, error) {
	res := &types.SyncResult{}

	q, err := query.Build(prof, cfg.DateRange, e.Self)
	if err != nil {
		return nil, err
	}
	res.Query = q
	if cfg.DryRun && !e.Quiet {
		fmt.Printf("[dry run] query: %s\n", q)
	}

	log, err := audit.OpenLog(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	defer log.Close()

	var report *audit.Report
	if cfg.Report {
		report, err = audit.OpenReport(cfg.OutputDir, cfg.DateRange)
		if err != nil {
			return nil, err
		}
		defer report.Close()
		res.ReportPath = report.Path()
	}

	// Forced rescan selects work as if nothing were processed, without
	// deleting the persisted index.
	idx := index.New()
	if !cfg.ForceRescan {
		idx = index.Load(cfg.OutputDir)
	}

	ids, err := e.Client.ListThreads(ctx, q)
	if err != nil {
		e.append(log, audit.Record{Event: types.EventSync, Status: types.StatusError, Details: err.Error()})
		return nil, fmt.Errorf("list threads: %w", err)
	}
	res.ThreadsFound = len(ids)

	if len(ids) == 0 {
		e.append(log, audit.Record{Event: types.EventSync, Status: types.StatusSuccess, Details: "no threads matched query"})
		if !e.Quiet {
			fmt.Println("No threads found matching your criteria.")
		}
		return res, nil
	}

	var newIDs []string
	for _, id := range ids {
		if !idx.Contains(id) {
			newIDs = append(newIDs, id)
		}
	}
	res.ThreadsNew = len(newIDs)

	if len(newIDs) == 0 {
		e.append(log, audit.Record{Event: types.EventSync, Status: types.StatusSuccess,
			Details: fmt.Sprintf("all %d threads already processed", len(ids))})
		if !e.Quiet {
			fmt.Printf("All %d matching threads already processed.\n", len(ids))
		}
		return res, nil
	}

	if !e.Quiet {
		fmt.Printf("Found %d threads, %d new. Processing...\n", len(ids), len(newIDs))
	}

	// Attachment ids already handled this run. Two messages of one
	// thread can reference the same attachment; it is materialized at
	// most once.
	seen := make(map[string]bool)

	for _, tid := range newIDs {
		thread, err := e.Client.GetThread(ctx, tid)
		if err != nil {
			e.append(log, audit.Record{Event: types.EventSync, ThreadID: tid, Status: types.StatusError, Details: err.Error()})
			return nil, fmt.Errorf("get thread %s: %w", tid, err)
		}

		for i := range thread.Messages {
			e.processMessage(ctx, cfg, &thread.Messages[i], seen, log, report, res)
		}

		if !cfg.DryRun {
			idx.Add(tid)
		}
	}

	// The index is persisted once, after every thread has committed.
	// Dry runs never touch it; forced rescans intentionally leave the
	// persisted state as it was.
	if !cfg.DryRun && !cfg.ForceRescan {
		if err := idx.Save(cfg.OutputDir); err != nil {
			return nil, err
		}
	}

	e.append(log, audit.Record{Event: types.EventSync, Status: types.StatusSuccess,
		Details: fmt.Sprintf("processed %d threads: %d saved, %d skipped, %d errors",
			len(newIDs), res.Saved, res.Skipped, res.Errors)})
	return res, nil
}

// append writes an audit row, surfacing write failures on stderr. The
// reset tool can only undo what was logged, so a failed append is worth
// shouting about even though it does not abort the run.
func (e *Engine) append(log *audit.Log, rec audit.Record) {
	if err := log.Append(rec); err != nil {
		fmt.Fprintf(os.Stderr, "  ! audit log: %v\n", err)
	}
}

// processMessage handles one message: its report row when reporting is
// enabled, then each unseen attachment part. Failures here are local —
// they are logged and counted, never fatal to the run.
func (e *Engine) processMessage(ctx context.Context, cfg types.RunConfig, msg *types.Message,
	seen map[string]bool, log *audit.Log, report *audit.Report, res *types.SyncResult) {

	date := time.UnixMilli(msg.Timestamp).UTC().Format("2006-01-02")
	subject := msg.Header("Subject", types.NoSubject)

	if report != nil {
		e.reportMessage(ctx, cfg, msg, date, subject, log, report, res)
	}

	for _, part := range msg.Parts {
		if !part.IsAttachment() || seen[part.AttachmentID] {
			continue
		}
		seen[part.AttachmentID] = true

		rec := audit.Record{
			Event:     types.EventAttachment,
			ThreadID:  msg.ThreadID,
			EmailDate: date,
			Subject:   subject,
			Entity:    part.Filename,
		}

		if cfg.DryRun {
			rec.Status = types.StatusSkipped
			rec.Details = "Dry Run"
			e.append(log, rec)
			res.Skipped++
			continue
		}

		data := part.Data
		if data == "" {
			var err error
			data, err = e.Client.GetAttachment(ctx, msg.ID, part.AttachmentID)
			if err != nil {
				rec.Status = types.StatusError
				rec.Details = err.Error()
				e.append(log, rec)
				res.Errors++
				continue
			}
		}

		r := files.SaveAttachment(cfg.OutputDir, date, part.Filename, data)
		rec.Status = r.Status
		switch r.Status {
		case types.StatusSaved:
			rec.Details = r.RelPath
			res.Saved++
			if !e.Quiet {
				fmt.Printf("  + saved %s\n", r.RelPath)
			}
		case types.StatusSkipped:
			rec.Details = r.Detail
			res.Skipped++
		default:
			rec.Details = r.Detail
			res.Errors++
			if !e.Quiet {
				fmt.Fprintf(os.Stderr, "  ! %s: %s\n", part.Filename, r.Detail)
			}
		}
		e.append(log, rec)
	}
}

// reportMessage saves the raw message and appends its report row.
func (e *Engine) reportMessage(ctx context.Context, cfg types.RunConfig, msg *types.Message,
	date, subject string, log *audit.Log, report *audit.Report, res *types.SyncResult) {

	rec := audit.Record{
		Event:     types.EventEmail,
		ThreadID:  msg.ThreadID,
		EmailDate: date,
		Subject:   subject,
		Entity:    msg.ID,
	}

	emlPath := ""
	if cfg.DryRun {
		rec.Status = types.StatusSkipped
		rec.Details = "Dry Run"
		e.append(log, rec)
	} else {
		raw, err := e.Client.GetRawMessage(ctx, msg.ID)
		if err != nil {
			rec.Status = types.StatusError
			rec.Details = err.Error()
			e.append(log, rec)
			res.Errors++
			return
		}
		r := files.SaveRawMessage(cfg.OutputDir, date, msg.ID, raw)
		rec.Status = r.Status
		rec.Details = r.Detail
		if r.Status == types.StatusSaved {
			rec.Details = r.RelPath
			res.EmailsSaved++
		}
		if r.Status == types.StatusError {
			res.Errors++
		}
		emlPath = r.RelPath
		e.append(log, rec)
	}

	if err := report.Append(audit.ReportRecord{
		MessageID:       msg.ID,
		Date:            date,
		From:            msg.Header("From", types.NoSender),
		To:              msg.Header("To", ""),
		Subject:         subject,
		AttachmentCount: len(msg.Attachments()),
		EMLPath:         emlPath,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "  ! report: %v\n", err)
	}
}
