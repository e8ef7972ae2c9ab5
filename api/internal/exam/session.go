// Package exam implements the proctored-exam workflow: the phase state
// machine, the auditor-output parser, evidence assembly and the verdict
// report. The presentation layer and delivery targets stay outside.
package exam

// Phase is strictly increasing over a session's lifetime. The only way
// back is a full reset, which replaces the session wholesale.
type Phase int

const (
	PhaseIdentification Phase = iota
	PhaseTutoring
	PhaseAudit
	PhaseVerdict
)

func (p Phase) String() string {
	switch p {
	case PhaseIdentification:
		return "identification"
	case PhaseTutoring:
		return "tutoring"
	case PhaseAudit:
		return "audit"
	case PhaseVerdict:
		return "verdict"
	}
	return "unknown"
}

type SpeakerRole string

const (
	SpeakerStudent SpeakerRole = "student"
	SpeakerTutor   SpeakerRole = "tutor"
)

type Entry struct {
	Role SpeakerRole
	Text string
}

type Identity struct {
	Name    string
	Surname string
	ID      string
}

type ExportOutcome int

const (
	ExportNotAttempted ExportOutcome = iota
	ExportSucceeded
	ExportDegraded
)

func (o ExportOutcome) String() string {
	switch o {
	case ExportSucceeded:
		return "succeeded"
	case ExportDegraded:
		return "degraded"
	}
	return "not-attempted"
}

// Session is the unit of work for one student attempt. It is owned by a
// single Machine; nothing mutates it concurrently.
type Session struct {
	Identity   Identity
	Phase      Phase
	Transcript []Entry
	Artifact   string
	Questions  []string
	Answers    map[int]string
	Verdict    *Report
	Export     ExportOutcome
}

func NewSession() *Session {
	return &Session{
		Phase:   PhaseIdentification,
		Answers: map[int]string{},
	}
}
