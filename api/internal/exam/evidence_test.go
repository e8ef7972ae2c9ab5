package exam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleEvidenceIsPure(t *testing.T) {
	transcript := []Entry{
		{Role: SpeakerStudent, Text: "how do I read a file?"},
		{Role: SpeakerTutor, Text: "what have you tried so far?"},
	}
	questions := []string{"Why open twice?", "What if the file is missing?"}
	answers := map[int]string{0: "a typo", 1: "it raises"}

	a := AssembleEvidence(transcript, "print(1)", questions, answers)
	b := AssembleEvidence(transcript, "print(1)", questions, answers)
	assert.Equal(t, a, b)
}

func TestAssembleEvidenceSectionsAndOrder(t *testing.T) {
	transcript := []Entry{
		{Role: SpeakerStudent, Text: "hi"},
		{Role: SpeakerTutor, Text: "hello"},
	}
	questions := []string{"first?", "second?", "third?"}
	answers := map[int]string{0: "A", 1: "B", 2: "C"}

	out := AssembleEvidence(transcript, "x = 1", questions, answers)

	chat := strings.Index(out, "=== CHAT HISTORY ===")
	code := strings.Index(out, "=== CODE ===")
	defense := strings.Index(out, "=== DEFENSE ===")
	require.True(t, chat >= 0 && code > chat && defense > code)
	assert.Contains(t, out[chat:code], "STUDENT: hi")
	assert.Contains(t, out[chat:code], "TUTOR: hello")
	assert.Contains(t, out[code:defense], "x = 1")

	// Every question immediately followed by its own answer, in order.
	d := out[defense:]
	for i, pair := range []string{"Q1: first?\nA1: A", "Q2: second?\nA2: B", "Q3: third?\nA3: C"} {
		idx := strings.Index(d, pair)
		require.GreaterOrEqual(t, idx, 0, "pair %d missing", i+1)
		d = d[idx+len(pair):]
	}
}

func TestTranscriptTextLineFormat(t *testing.T) {
	out := TranscriptText([]Entry{
		{Role: SpeakerStudent, Text: "one"},
		{Role: SpeakerTutor, Text: "two"},
	})
	assert.Equal(t, "STUDENT: one\nTUTOR: two\n", out)
}

func TestDefenseTextEmptyQuestions(t *testing.T) {
	assert.Empty(t, DefenseText(nil, nil))
}
