package exam

import (
	"time"

	"github.com/google/uuid"
)

// Report is the verdict produced once per session. The judge's narrative
// is stored as-is; no structure is imposed on it.
type Report struct {
	AttemptID   string
	Identity    Identity
	Text        string
	GeneratedAt time.Time
}

func newReport(id Identity, text string) *Report {
	return &Report{
		AttemptID:   uuid.NewString(),
		Identity:    id,
		Text:        text,
		GeneratedAt: time.Now().UTC(),
	}
}
