package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"

	"exam-bot/api/internal/exam"
)

// EmailTarget sends the attempt archive as an attachment. Plain net/smtp:
// one message per attempt, no queueing.
type EmailTarget struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       string
}

func (t *EmailTarget) Name() string { return "email" }

// Configured reports whether enough transport settings are present to try
// a delivery at all. Missing credentials are expected in local setups.
func (t *EmailTarget) Configured() bool {
	return t.Host != "" && t.From != "" && t.To != ""
}

func (t *EmailTarget) Deliver(ctx context.Context, b exam.ExportBundle, archive []byte) error {
	if !t.Configured() {
		return fmt.Errorf("smtp transport not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := t.compose(b, archive)
	var auth smtp.Auth
	if t.Username != "" {
		auth = smtp.PlainAuth("", t.Username, t.Password, t.Host)
	}
	port := t.Port
	if port == "" {
		port = "587"
	}
	return smtp.SendMail(t.Host+":"+port, auth, t.From, []string{t.To}, msg)
}

func (t *EmailTarget) compose(b exam.ExportBundle, archive []byte) []byte {
	const boundary = "exam-bundle-boundary"
	var m strings.Builder

	fmt.Fprintf(&m, "From: %s\r\n", t.From)
	fmt.Fprintf(&m, "To: %s\r\n", t.To)
	fmt.Fprintf(&m, "Subject: Exam attempt %s — %s, %s\r\n",
		b.AttemptID, b.Identity.Surname, b.Identity.Name)
	m.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&m, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&m, "--%s\r\n", boundary)
	m.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&m, "Exam attempt by %s %s (ID %s).\r\n\r\n%s\r\n",
		b.Identity.Name, b.Identity.Surname, b.Identity.ID, b.VerdictText)

	fmt.Fprintf(&m, "--%s\r\n", boundary)
	fmt.Fprintf(&m, "Content-Type: application/zip; name=%q\r\n", ArchiveName(b))
	m.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&m, "Content-Disposition: attachment; filename=%q\r\n\r\n", ArchiveName(b))

	enc := base64.StdEncoding.EncodeToString(archive)
	for len(enc) > 76 {
		m.WriteString(enc[:76] + "\r\n")
		enc = enc[76:]
	}
	m.WriteString(enc + "\r\n")
	fmt.Fprintf(&m, "--%s--\r\n", boundary)
	return []byte(m.String())
}
