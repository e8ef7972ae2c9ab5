package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"exam-bot/api/internal/exam"
)

// BuildArchive packs the four evidence documents into one zip, entry names
// derived deterministically from the student's surname.
func BuildArchive(b exam.ExportBundle) ([]byte, error) {
	base := entryBase(b.Identity.Surname)
	entries := []struct {
		name, body string
	}{
		{base + "_chat.txt", b.TranscriptText},
		{base + "_code.txt", b.ArtifactText},
		{base + "_defense.txt", b.DefenseText},
		{base + "_verdict.txt", b.VerdictText},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.name, err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ArchiveName is the file name used for attachments and object keys.
func ArchiveName(b exam.ExportBundle) string {
	return entryBase(b.Identity.Surname) + "_exam.zip"
}

func entryBase(surname string) string {
	s := strings.ToLower(strings.TrimSpace(surname))
	var out []rune
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "student"
	}
	return string(out)
}
