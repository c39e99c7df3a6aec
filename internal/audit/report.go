package audit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ReportsDir is the report directory under the output root.
const ReportsDir = "reports"

// reportColumns is the per-message report header. The invoice and
// likelihood columns are reserved for content extraction and stay
// empty for now.
var reportColumns = []string{
	"Message ID", "Date", "From", "To", "Subject",
	"Attachment Count", "EML Path",
	"Invoice Number", "Invoice Amount", "Likelihood Score",
}

// ReportRecord is one row of a generated report.
type ReportRecord struct {
	MessageID       string
	Date            string // YYYY-MM-DD
	From            string
	To              string
	Subject         string
	AttachmentCount int
	EMLPath         string
	// Reserved for future content extraction.
	InvoiceNumber string
	InvoiceAmount string
	Likelihood    string
}

// Report is an open report file for one run.
type Report struct {
	f    *os.File
	w    *csv.Writer
	path string
}

// OpenReport creates a new timestamped report file under root/reports
// for the given date range.
func OpenReport(root, dateRange string) (*Report, error) {
	dir := filepath.Join(root, ReportsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("%s_report_for_%s.csv",
		time.Now().UTC().Format("20060102_150405"), rangeLabel(dateRange))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create report %s: %w", path, err)
	}

	r := &Report{f: f, w: csv.NewWriter(f), path: path}
	if err := r.w.Write(reportColumns); err != nil {
		f.Close()
		return nil, fmt.Errorf("write report header: %w", err)
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("write report header: %w", err)
	}
	return r, nil
}

// Append writes one report row, flushed immediately.
func (r *Report) Append(rec ReportRecord) error {
	row := []string{
		rec.MessageID, rec.Date, rec.From, rec.To, rec.Subject,
		strconv.Itoa(rec.AttachmentCount), rec.EMLPath,
		rec.InvoiceNumber, rec.InvoiceAmount, rec.Likelihood,
	}
	if err := r.w.Write(row); err != nil {
		return fmt.Errorf("append report row: %w", err)
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return fmt.Errorf("append report row: %w", err)
	}
	return nil
}

// Path returns the report file path.
func (r *Report) Path() string {
	return r.path
}

// Close flushes and closes the report file.
func (r *Report) Close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}

// rangeLabel makes a date range safe for use in a filename.
func rangeLabel(dateRange string) string {
	return strings.ReplaceAll(dateRange, ":", "_to_")
}

// ReportRange extracts the date-range label back out of a report
// filename. The generation timestamp prefix is not part of the label.
func ReportRange(name string) (string, bool) {
	const marker = "_report_for_"
	i := strings.Index(name, marker)
	if i < 0 {
		return "", false
	}
	return strings.TrimSuffix(name[i+len(marker):], ".csv"), true
}
