// Package types defines core data structures for fiscal-fetch.
package types

import "strings"

// RunConfig carries every mode decision for a single sync run.
// It is built once by the CLI and threaded through the whole pipeline
// so no component needs its own scattered flags.
type RunConfig struct {
	Profile     string `json:"profile"`
	DateRange   string `json:"date_range"`
	OutputDir   string `json:"output_dir"`
	DryRun      bool   `json:"dry_run"`
	ForceRescan bool   `json:"force_rescan"`
	Report      bool   `json:"report"`
}

// Thread is a Gmail conversation: one opaque id plus its messages in
// arrival order.
type Thread struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
}

// Message is a single mail within a thread. Headers is keyed by
// lowercased header name, built once when the message is fetched.
type Message struct {
	ID        string            `json:"id"`
	ThreadID  string            `json:"thread_id"`
	Timestamp int64             `json:"timestamp"` // epoch milliseconds
	Headers   map[string]string `json:"headers,omitempty"`
	Parts     []Part            `json:"parts,omitempty"`
}

// Header looks up a header value case-insensitively. Returns the
// fallback when the header is absent or empty.
func (m *Message) Header(name, fallback string) string {
	if v := m.Headers[strings.ToLower(name)]; v != "" {
		return v
	}
	return fallback
}

// Part is one MIME part of a message. Attachments carry a filename and
// either an attachment id to fetch by, or (for small payloads) the
// base64url data inline.
type Part struct {
	Filename     string `json:"filename,omitempty"`
	AttachmentID string `json:"attachment_id,omitempty"`
	Data         string `json:"data,omitempty"`
}

// IsAttachment reports whether this part is a fetchable attachment.
func (p *Part) IsAttachment() bool {
	return p.Filename != "" && p.AttachmentID != ""
}

// Attachments returns the fetchable attachment parts of a message.
func (m *Message) Attachments() []Part {
	var out []Part
	for _, p := range m.Parts {
		if p.IsAttachment() {
			out = append(out, p)
		}
	}
	return out
}

// Audit row statuses.
const (
	StatusSaved   = "Saved"
	StatusSkipped = "Skipped"
	StatusError   = "Error"
	StatusSuccess = "Success"
)

// Audit event kinds.
const (
	EventSync           = "Sync"
	EventAttachment     = "Attachment Process"
	EventEmail          = "Email Process"
	EventFileDeletion   = "File Deletion"
	EventReportDeletion = "Report Deletion"
)

// Sentinel values for absent headers.
const (
	NoSubject = "No Subject"
	NoSender  = "No Sender"
)

// SyncResult summarizes one sync run.
type SyncResult struct {
	Query        string `json:"query"`
	ThreadsFound int    `json:"threads_found"`
	ThreadsNew   int    `json:"threads_new"`
	Saved        int    `json:"saved"`
	Skipped      int    `json:"skipped"`
	Errors       int    `json:"errors"`
	EmailsSaved  int    `json:"emails_saved,omitempty"`
	ReportPath   string `json:"report_path,omitempty"`
}

// ResetResult summarizes one reset invocation.
type ResetResult struct {
	Period         string `json:"period"`
	FilesDeleted   int    `json:"files_deleted"`
	ReportsDeleted int    `json:"reports_deleted"`
	ThreadsRemoved int    `json:"threads_removed"`
	Errors         int    `json:"errors"`
}
