package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diasulisses/fiscal-fetch/internal/types"
)

func TestAppendAndReadBack(t *testing.T) {
	root := t.TempDir()

	log, err := OpenLog(root)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	rows := []Record{
		{Event: types.EventSync, Status: types.StatusSuccess, Details: "no threads matched query"},
		{Event: types.EventAttachment, ThreadID: "t1", EmailDate: "2024-05-10",
			Subject: "Invoice, May", Entity: "invoice.pdf", Status: types.StatusSaved,
			Details: "2024/05/2024-05-10_invoice.pdf"},
	}
	for _, r := range rows {
		if err := log.Append(r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := ReadLog(root)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Timestamp == "" {
		t.Fatal("timestamp should be filled on append")
	}
	if got[1].Subject != "Invoice, May" {
		t.Fatalf("comma in subject mangled: %q", got[1].Subject)
	}
	if got[1].Details != "2024/05/2024-05-10_invoice.pdf" {
		t.Fatalf("details mismatch: %q", got[1].Details)
	}
}

func TestReopenDoesNotDuplicateHeader(t *testing.T) {
	root := t.TempDir()

	for i := 0; i < 2; i++ {
		log, err := OpenLog(root)
		if err != nil {
			t.Fatalf("open log: %v", err)
		}
		if err := log.Append(Record{Event: types.EventSync, Status: types.StatusSuccess}); err != nil {
			t.Fatalf("append: %v", err)
		}
		log.Close()
	}

	data, err := os.ReadFile(filepath.Join(root, LogName))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if n := strings.Count(string(data), Columns[0]); n != 1 {
		t.Fatalf("expected 1 header row, found %d", n)
	}

	records, err := ReadLog(root)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records across reopens, got %d", len(records))
	}
}

func TestReadLogMissingFile(t *testing.T) {
	records, err := ReadLog(t.TempDir())
	if err != nil {
		t.Fatalf("missing log must not be an error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestReportFileNaming(t *testing.T) {
	root := t.TempDir()

	r, err := OpenReport(root, "2024-01-01:2024-06-30")
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer r.Close()

	name := filepath.Base(r.Path())
	if !strings.Contains(name, "_report_for_2024-01-01_to_2024-06-30") {
		t.Fatalf("report name missing range label: %s", name)
	}
	if !strings.HasSuffix(name, ".csv") {
		t.Fatalf("report should be a csv: %s", name)
	}
	if filepath.Dir(r.Path()) != filepath.Join(root, ReportsDir) {
		t.Fatalf("report outside reports dir: %s", r.Path())
	}

	// The range label parses back out of the generated name.
	label, ok := ReportRange(name)
	if !ok || label != "2024-01-01_to_2024-06-30" {
		t.Fatalf("ReportRange(%q) = %q, %v", name, label, ok)
	}
}

func TestReportRange(t *testing.T) {
	tests := []struct {
		name  string
		label string
		ok    bool
	}{
		{"20240601_120000_report_for_2024.csv", "2024", true},
		{"20240301_120000_report_for_2023.csv", "2023", true},
		{"20240701_090000_report_for_2024-01-01_to_2024-06-30.csv", "2024-01-01_to_2024-06-30", true},
		{"notes.txt", "", false},
	}
	for _, tt := range tests {
		label, ok := ReportRange(tt.name)
		if label != tt.label || ok != tt.ok {
			t.Errorf("ReportRange(%q) = %q, %v; want %q, %v", tt.name, label, ok, tt.label, tt.ok)
		}
	}
}

func TestReportRows(t *testing.T) {
	root := t.TempDir()

	r, err := OpenReport(root, "2024")
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	err = r.Append(ReportRecord{
		MessageID:       "m1",
		Date:            "2024-05-10",
		From:            "alice@example.com",
		To:              "me@example.com",
		Subject:         "Invoice",
		AttachmentCount: 2,
		EMLPath:         "emails/2024/05/2024-05-10_m1.eml",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(r.Path())
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	content := string(data)
	for _, want := range []string{"Invoice Number", "alice@example.com", "emails/2024/05/2024-05-10_m1.eml"} {
		if !strings.Contains(content, want) {
			t.Fatalf("report missing %q:\n%s", want, content)
		}
	}
	// Reserved extraction columns stay empty.
	if !strings.HasSuffix(strings.TrimRight(content, "\n"), ",,,") {
		t.Fatalf("expected trailing empty extraction columns:\n%s", content)
	}
}
