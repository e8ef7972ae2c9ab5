package telegram

import (
	"sync"

	"exam-bot/api/internal/exam"
)

// Identification is collected field by field before the machine sees it,
// so Identify is applied atomically with all three values.
const (
	modeAwaitName    = "await_name"
	modeAwaitSurname = "await_surname"
	modeAwaitID      = "await_id"
)

// chatSession pairs one chat with one exam machine plus the UI scratch
// state the machine must not know about: the identification buffer and the
// answers collected so far. The mutex serializes handlers for one chat.
type chatSession struct {
	mu sync.Mutex

	machine *exam.Machine

	mode    string
	name    string
	surname string
	answers map[int]string
}

func (cs *chatSession) resetUI() {
	cs.mode = ""
	cs.name = ""
	cs.surname = ""
	cs.answers = map[int]string{}
}

func (r *Router) session(chatID int64) *chatSession {
	if v, ok := r.sessions.Load(chatID); ok {
		return v.(*chatSession)
	}
	cs := &chatSession{
		machine: exam.NewMachine(r.Gateway, r.Prompts, r.Exporter, r.Temperature, r.Log),
		answers: map[int]string{},
	}
	v, _ := r.sessions.LoadOrStore(chatID, cs)
	return v.(*chatSession)
}
