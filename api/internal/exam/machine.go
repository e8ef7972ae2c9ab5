package exam

import (
	"context"
	"strings"

	"exam-bot/api/internal/llm"

	"go.uber.org/zap"
)

// ExportBundle is what leaves the core once a verdict exists: the raw
// evidence texts plus the report, ready for archiving and delivery.
type ExportBundle struct {
	Identity       Identity
	AttemptID      string
	TranscriptText string
	ArtifactText   string
	DefenseText    string
	VerdictText    string
}

// Exporter delivers a finished attempt. Failure is a normal condition
// (missing transport credentials included); it never invalidates the
// verdict already produced.
type Exporter interface {
	Export(ctx context.Context, b ExportBundle) error
}

// Machine owns one Session and enforces its phase transitions. Callers
// serialize access per session; the Machine itself holds no locks.
type Machine struct {
	gw          llm.Gateway
	prompts     Prompts
	exporter    Exporter
	temperature float32
	log         *zap.Logger

	sess *Session
}

func NewMachine(gw llm.Gateway, prompts Prompts, exporter Exporter, temperature float32, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{
		gw:          gw,
		prompts:     prompts,
		exporter:    exporter,
		temperature: temperature,
		log:         log,
		sess:        NewSession(),
	}
}

func (m *Machine) Session() *Session { return m.sess }
func (m *Machine) Phase() Phase      { return m.sess.Phase }

// Identify sets the student identity and opens the tutoring phase. All
// three fields are required; nothing changes on failure.
func (m *Machine) Identify(name, surname, id string) error {
	if m.sess.Phase != PhaseIdentification {
		return validationf("identification is closed in the %s phase", m.sess.Phase)
	}
	name, surname, id = strings.TrimSpace(name), strings.TrimSpace(surname), strings.TrimSpace(id)
	if name == "" || surname == "" || id == "" {
		return validationf("name, surname and student ID are all required")
	}
	m.sess.Identity = Identity{Name: name, Surname: surname, ID: id}
	m.sess.Phase = PhaseTutoring
	m.log.Info("session identified", zap.String("surname", surname), zap.String("student_id", id))
	return nil
}

// Chat runs one tutoring exchange: the student message plus the tutor's
// reply are appended to the transcript, but only after the completion
// succeeds, so a gateway failure leaves the session untouched.
func (m *Machine) Chat(ctx context.Context, text string) (string, error) {
	if m.sess.Phase != PhaseTutoring {
		return "", validationf("the tutor is only available in the tutoring phase")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", validationf("empty message")
	}

	msgs := make([]llm.Message, 0, len(m.sess.Transcript)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Text: m.prompts.Tutor})
	for _, e := range m.sess.Transcript {
		role := llm.RoleUser
		if e.Role == SpeakerTutor {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Text: e.Text})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Text: text})

	reply, err := m.gw.Complete(ctx, msgs, m.temperature)
	if err != nil {
		return "", err
	}
	m.sess.Transcript = append(m.sess.Transcript,
		Entry{Role: SpeakerStudent, Text: text},
		Entry{Role: SpeakerTutor, Text: reply},
	)
	return reply, nil
}

// SubmitArtifact ends tutoring: the transcript freezes and the session
// moves to the audit phase. Question generation is deferred to
// EnsureQuestions so re-rendering the audit view never re-triggers it.
func (m *Machine) SubmitArtifact(text string) error {
	if m.sess.Phase != PhaseTutoring {
		return validationf("code can only be submitted during the tutoring phase")
	}
	if strings.TrimSpace(text) == "" {
		return validationf("the submitted file is empty")
	}
	m.sess.Artifact = text
	m.sess.Phase = PhaseAudit
	m.log.Info("artifact submitted",
		zap.Int("bytes", len(text)),
		zap.Int("transcript_entries", len(m.sess.Transcript)))
	return nil
}

// EnsureQuestions invokes the auditor at most once per session. Once the
// question list is populated it is returned as-is; a gateway failure
// leaves the session unchanged and the call retryable.
func (m *Machine) EnsureQuestions(ctx context.Context) ([]string, error) {
	if m.sess.Phase != PhaseAudit {
		return nil, validationf("questions are only generated in the audit phase")
	}
	if len(m.sess.Questions) > 0 {
		return m.sess.Questions, nil
	}

	raw, err := m.gw.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Text: m.prompts.Auditor},
		{Role: llm.RoleUser, Text: m.sess.Artifact},
	}, m.temperature)
	if err != nil {
		return nil, err
	}
	m.sess.Questions = ParseQuestions(raw)
	m.log.Info("audit questions generated", zap.Int("count", len(m.sess.Questions)))
	return m.sess.Questions, nil
}

// SubmitAnswers takes the full answer set atomically, runs the judge once
// and advances to the verdict phase. If the judge call fails the session
// stays in audit, untouched, so the same answers can be resubmitted.
// Export runs best-effort afterwards and its outcome is recorded.
func (m *Machine) SubmitAnswers(ctx context.Context, answers map[int]string) (*Report, error) {
	if m.sess.Phase != PhaseAudit {
		return nil, validationf("answers are only accepted in the audit phase")
	}
	if len(m.sess.Questions) == 0 {
		return nil, validationf("no questions have been generated yet")
	}
	for i := range m.sess.Questions {
		if strings.TrimSpace(answers[i]) == "" {
			return nil, validationf("question %d has no answer", i+1)
		}
	}

	staged := make(map[int]string, len(m.sess.Questions))
	for i := range m.sess.Questions {
		staged[i] = strings.TrimSpace(answers[i])
	}

	evidence := AssembleEvidence(m.sess.Transcript, m.sess.Artifact, m.sess.Questions, staged)
	verdict, err := m.gw.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Text: m.prompts.Judge},
		{Role: llm.RoleUser, Text: evidence},
	}, m.temperature)
	if err != nil {
		return nil, err
	}

	m.sess.Answers = staged
	m.sess.Verdict = newReport(m.sess.Identity, verdict)
	m.sess.Phase = PhaseVerdict
	m.log.Info("verdict produced", zap.String("attempt_id", m.sess.Verdict.AttemptID))

	m.export(ctx)
	return m.sess.Verdict, nil
}

func (m *Machine) export(ctx context.Context) {
	b := ExportBundle{
		Identity:       m.sess.Identity,
		AttemptID:      m.sess.Verdict.AttemptID,
		TranscriptText: TranscriptText(m.sess.Transcript),
		ArtifactText:   m.sess.Artifact,
		DefenseText:    DefenseText(m.sess.Questions, m.sess.Answers),
		VerdictText:    m.sess.Verdict.Text,
	}
	if m.exporter == nil {
		m.sess.Export = ExportDegraded
		m.log.Warn("no exporter configured, attempt kept in-session only")
		return
	}
	if err := m.exporter.Export(ctx, b); err != nil {
		m.sess.Export = ExportDegraded
		m.log.Warn("export degraded", zap.Error(err))
		return
	}
	m.sess.Export = ExportSucceeded
	m.log.Info("attempt exported", zap.String("attempt_id", b.AttemptID))
}

// Reset discards everything and returns to identification.
func (m *Machine) Reset() {
	m.sess = NewSession()
}
