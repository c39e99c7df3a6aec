// Package files materializes attachments and raw messages on disk.
//
// Destination paths are a pure function of (root, email date, name).
// That determinism is a cross-component contract: re-running the sync
// resolves to the same path and skips, and the reset tool trusts the
// paths it finds recorded in the audit log.
package files

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/diasulisses/fiscal-fetch/internal/types"
)

// EmailsDir is the partition for raw .eml copies under the output root.
const EmailsDir = "emails"

// fallbackName is used when sanitization strips a filename to nothing.
const fallbackName = "unnamed_attachment"

// allowedExts is the attachment type allow-list, checked before any I/O.
var allowedExts = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".csv":  true,
	".zip":  true,
	".eml":  true,
}

// Result is the outcome of one materialization attempt.
type Result struct {
	Status  string // types.StatusSaved, StatusSkipped or StatusError
	RelPath string // path relative to the output root, set when Saved
	Detail  string // skip reason or error text
}

// Sanitize strips a filename down to alphanumerics, '.', '_' and '-'.
// If nothing survives, a fixed name carrying the original extension is
// used instead.
func Sanitize(name string) string {
	ext := clean(filepath.Ext(name))
	if strings.Trim(ext, ".") == "" {
		ext = ""
	}
	stem := clean(strings.TrimSuffix(name, filepath.Ext(name)))
	if strings.Trim(stem, "._-") == "" {
		stem = fallbackName
	}
	return stem + ext
}

func clean(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AttachmentRelPath returns the deterministic destination for an
// attachment, relative to the output root: <year>/<month>/<date>_<name>.
// date must be in YYYY-MM-DD form.
func AttachmentRelPath(date, filename string) string {
	return filepath.Join(date[:4], date[5:7], date+"_"+Sanitize(filename))
}

// rawMessageRelPath is the parallel partition for RFC-822 copies, keyed
// by message id rather than a sanitized filename.
func rawMessageRelPath(date, messageID string) string {
	return filepath.Join(EmailsDir, date[:4], date[5:7], date+"_"+messageID+".eml")
}

// SaveAttachment decodes one base64url payload and writes it beneath
// root. It skips disallowed types before touching the filesystem and
// skips existing destinations before decoding, so repeated runs are
// idempotent. Failures leave no partial file behind.
func SaveAttachment(root, date, filename, data string) Result {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExts[ext] {
		return Result{Status: types.StatusSkipped, Detail: "disallowed type " + ext}
	}
	return write(root, AttachmentRelPath(date, filename), data)
}

// SaveRawMessage writes the raw RFC-822 message under the emails
// partition, with the same existence and error semantics as
// SaveAttachment.
func SaveRawMessage(root, date, messageID, data string) Result {
	return write(root, rawMessageRelPath(date, messageID), data)
}

func write(root, rel, data string) Result {
	dest := filepath.Join(root, rel)
	if _, err := os.Stat(dest); err == nil {
		return Result{Status: types.StatusSkipped, RelPath: rel, Detail: "already exists"}
	}

	decoded, err := decodeBase64URL(data)
	if err != nil {
		return Result{Status: types.StatusError, Detail: fmt.Sprintf("decode %s: %v", rel, err)}
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{Status: types.StatusError, Detail: fmt.Sprintf("create %s: %v", dir, err)}
	}

	// Write to a temp file and rename, so a crash mid-write never
	// leaves a half file at the deterministic path.
	tmp, err := os.CreateTemp(dir, ".ff-*")
	if err != nil {
		return Result{Status: types.StatusError, Detail: fmt.Sprintf("create temp in %s: %v", dir, err)}
	}
	if _, err := tmp.Write(decoded); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Result{Status: types.StatusError, Detail: fmt.Sprintf("write %s: %v", rel, err)}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Result{Status: types.StatusError, Detail: fmt.Sprintf("close %s: %v", rel, err)}
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return Result{Status: types.StatusError, Detail: fmt.Sprintf("rename %s: %v", rel, err)}
	}

	return Result{Status: types.StatusSaved, RelPath: rel}
}

// decodeBase64URL decodes Gmail's URL-safe base64, tolerating missing
// padding.
func decodeBase64URL(data string) ([]byte, error) {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
}
