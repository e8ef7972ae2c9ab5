package exam

import (
	"fmt"
	"strings"
)

// TranscriptText renders the chat history in the fixed line format used in
// evidence and in the exported chat log.
func TranscriptText(transcript []Entry) string {
	var b strings.Builder
	for _, e := range transcript {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(e.Role)), e.Text)
	}
	return b.String()
}

// DefenseText interleaves each question with its answer, in question order.
func DefenseText(questions []string, answers map[int]string) string {
	var b strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n\n", i+1, q, i+1, answers[i])
	}
	return b.String()
}

// AssembleEvidence is a pure function of its inputs. The output feeds the
// judge call and, split by section, the export bundle.
func AssembleEvidence(transcript []Entry, artifact string, questions []string, answers map[int]string) string {
	var b strings.Builder
	b.WriteString("=== CHAT HISTORY ===\n")
	b.WriteString(TranscriptText(transcript))
	b.WriteString("\n=== CODE ===\n")
	b.WriteString(artifact)
	b.WriteString("\n\n=== DEFENSE ===\n")
	b.WriteString(DefenseText(questions, answers))
	return b.String()
}
