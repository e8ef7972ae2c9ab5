package exam

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// The three system prompts are configuration text, not logic. Each can be
// overridden by a <name>.system.txt file in the prompt dir; the embedded
// defaults apply otherwise.

const defaultTutorPrompt = `You are a Socratic programming tutor supervising a student during an exam.
The student may consult you about concepts, error messages and general
approaches, but you must never write the solution or any substantial part
of it for them. Do not produce complete code. Answer briefly, and when the
question is exploratory, end your answer with one short follow-up question
that pushes the student to reason on their own. If the student asks you to
solve the exercise directly, refuse and redirect them to the underlying
concept.`

const defaultAuditorPrompt = `You are an examiner validating that a student understands code they have
just submitted. You will receive the submitted code. Produce exactly %[1]d
probing questions about it: why specific constructs were chosen, what would
break under edge cases, how the pieces interact. Questions must be
answerable only by someone who actually wrote or deeply understands this
exact code.
Return ONLY a JSON array of %[1]d strings. No markdown, no commentary, no
text outside the JSON array.`

const defaultJudgePrompt = `You are an academic-integrity judge. You will receive three evidence
blocks: the CHAT HISTORY between the student and a restricted tutor, the
submitted CODE, and the DEFENSE (questions about the code with the
student's answers). Reconcile them against three archetypal patterns:
1. Coherent: the chat shows incremental reasoning consistent with the code,
   and the defense shows command of the details. Verdict: OWN WORK.
2. Disconnected: the code is far beyond anything explored in the chat and
   the defense is vague or contradicts the code. Verdict: LIKELY ASSISTED.
3. Mixed: partial command with unexplained jumps. Verdict: INCONCLUSIVE.
Write a short narrative report: the verdict label, the key observations
supporting it, a confidence between 0 and 100, and a suggested grade
between 0 and 10.`

// FallbackQuestion stands in when the auditor's output cannot be parsed,
// so the audit phase is never blocked on model misbehavior.
const FallbackQuestion = "The automatic question generator was not available. " +
	"In your own words, describe how your submitted code works and why you structured it this way."

type Prompts struct {
	Tutor   string
	Auditor string
	Judge   string
}

// LoadPrompts reads overrides from dir ("" means embedded defaults only).
// A missing or empty override file falls back to the embedded text.
func LoadPrompts(dir string) Prompts {
	return Prompts{
		Tutor:   loadPrompt(dir, "tutor", defaultTutorPrompt),
		Auditor: loadPrompt(dir, "auditor", fmt.Sprintf(defaultAuditorPrompt, QuestionCount)),
		Judge:   loadPrompt(dir, "judge", defaultJudgePrompt),
	}
}

func loadPrompt(dir, name, def string) string {
	if dir == "" {
		return def
	}
	p := filepath.Join(dir, name+".system.txt")
	if b, err := os.ReadFile(p); err == nil && len(strings.TrimSpace(string(b))) > 0 {
		return strings.TrimSpace(string(b))
	}
	return def
}
