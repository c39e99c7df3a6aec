package reset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/diasulisses/fiscal-fetch/internal/audit"
	"github.com/diasulisses/fiscal-fetch/internal/index"
	"github.com/diasulisses/fiscal-fetch/internal/types"
)

// seed materializes a fake download: the file on disk plus its Saved
// audit row, the way a sync run leaves them.
func seed(t *testing.T, root, threadID, date, name string) string {
	t.Helper()
	rel := filepath.Join(date[:4], date[5:7], date+"_"+name)
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	log, err := audit.OpenLog(root)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer log.Close()
	err = log.Append(audit.Record{
		Event:     types.EventAttachment,
		ThreadID:  threadID,
		EmailDate: date,
		Subject:   "seeded",
		Entity:    name,
		Status:    types.StatusSaved,
		Details:   rel,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	return rel
}

func seedReport(t *testing.T, root, name string) {
	t.Helper()
	dir := filepath.Join(root, audit.ReportsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("report"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func seedIndex(t *testing.T, root string, ids ...string) {
	t.Helper()
	idx := index.New()
	for _, id := range ids {
		idx.Add(id)
	}
	if err := idx.Save(root); err != nil {
		t.Fatalf("save index: %v", err)
	}
}

func TestResetScopedToMonth(t *testing.T) {
	root := t.TempDir()
	may := seed(t, root, "t-may", "2024-05-10", "invoice.pdf")
	june := seed(t, root, "t-june", "2024-06-02", "receipt.pdf")
	seedIndex(t, root, "t-may", "t-june")

	res, err := Run(root, "2024-05", true)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if res.FilesDeleted != 1 || res.ThreadsRemoved != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	if _, err := os.Stat(filepath.Join(root, may)); !os.IsNotExist(err) {
		t.Fatalf("may file survived reset")
	}
	if _, err := os.Stat(filepath.Join(root, june)); err != nil {
		t.Fatalf("june file should survive: %v", err)
	}

	idx := index.Load(root)
	if idx.Contains("t-may") {
		t.Fatal("t-may should have been pruned")
	}
	if !idx.Contains("t-june") {
		t.Fatal("t-june should have survived")
	}

	// Deletion itself is audited.
	records, _ := audit.ReadLog(root)
	found := false
	for _, r := range records {
		if r.Event == types.EventFileDeletion && r.Status == types.StatusSuccess && r.Entity == may {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a File Deletion audit row")
	}
}

func TestResetAll(t *testing.T) {
	root := t.TempDir()
	seed(t, root, "t1", "2023-11-01", "a.pdf")
	seed(t, root, "t2", "2024-05-10", "b.pdf")
	seedReport(t, root, "20240601_120000_report_for_2024.csv")
	seedIndex(t, root, "t1", "t2", "t-unrelated")

	res, err := Run(root, "all", true)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if res.FilesDeleted != 2 || res.ReportsDeleted != 1 || res.ThreadsRemoved != 2 {
		t.Fatalf("unexpected result %+v", res)
	}

	idx := index.Load(root)
	if idx.Contains("t1") || idx.Contains("t2") {
		t.Fatalf("saved-attachment threads survived: %v", idx.IDs())
	}
	// Threads with no Saved rows are none of reset's business.
	if !idx.Contains("t-unrelated") {
		t.Fatal("unrelated thread was pruned")
	}
}

func TestResetReportScoping(t *testing.T) {
	root := t.TempDir()
	seedReport(t, root, "20240601_120000_report_for_2024.csv")
	seedReport(t, root, "20230601_120000_report_for_2023.csv")
	// Generated during 2024, but its recorded range is 2023: the
	// timestamp prefix must not make it a 2024 match.
	seedReport(t, root, "20240301_120000_report_for_2023.csv")
	seedReport(t, root, "20240701_090000_report_for_2024-01-01_to_2024-06-30.csv")
	seedIndex(t, root)

	res, err := Run(root, "2024", true)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if res.ReportsDeleted != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	for _, survivor := range []string{
		"20230601_120000_report_for_2023.csv",
		"20240301_120000_report_for_2023.csv",
	} {
		if _, err := os.Stat(filepath.Join(root, audit.ReportsDir, survivor)); err != nil {
			t.Fatalf("%s should survive: %v", survivor, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, audit.ReportsDir, "20240701_090000_report_for_2024-01-01_to_2024-06-30.csv")); !os.IsNotExist(err) {
		t.Fatal("2024 range report survived reset")
	}
}

func TestResetEmptyRootLeavesNoTrace(t *testing.T) {
	root := t.TempDir()

	res, err := Run(root, "2024", true)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if res.FilesDeleted != 0 || res.ReportsDeleted != 0 || res.ThreadsRemoved != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := os.Stat(filepath.Join(root, audit.LogName)); !os.IsNotExist(err) {
		t.Fatal("reset created an audit log without deleting anything")
	}
}

func TestResetMissingFileStillPrunesThread(t *testing.T) {
	root := t.TempDir()
	rel := seed(t, root, "t1", "2024-05-10", "invoice.pdf")
	seedIndex(t, root, "t1")

	// The file vanished outside the logged flow.
	if err := os.Remove(filepath.Join(root, rel)); err != nil {
		t.Fatalf("remove: %v", err)
	}

	res, err := Run(root, "2024", true)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if res.FilesDeleted != 0 || res.ThreadsRemoved != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if index.Load(root).Contains("t1") {
		t.Fatal("t1 should have been pruned even without its file")
	}
}

func TestResetNothingMatchedLeavesIndexAlone(t *testing.T) {
	root := t.TempDir()
	seed(t, root, "t1", "2024-05-10", "invoice.pdf")
	seedIndex(t, root, "t1")
	before, err := os.ReadFile(filepath.Join(root, index.FileName))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}

	res, err := Run(root, "2019", true)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if res.FilesDeleted != 0 || res.ThreadsRemoved != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	after, err := os.ReadFile(filepath.Join(root, index.FileName))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("index rewritten although nothing matched")
	}
}

func TestInvalidPeriod(t *testing.T) {
	for _, period := range []string{"", "20245", "2024-5", "05-2024", "everything"} {
		if _, err := Run(t.TempDir(), period, true); err == nil {
			t.Fatalf("period %q should be rejected", period)
		}
	}
}
