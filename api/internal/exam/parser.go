package exam

import (
	"encoding/json"
	"strings"

	"exam-bot/api/internal/util"
)

// QuestionCount is what the auditor prompt asks for. The parser does not
// enforce it: a valid JSON array of any length is taken verbatim, matching
// the lenient contract the audit phase is built around.
const QuestionCount = 5

// ParseQuestions turns the auditor's free-text output into a usable
// question list. It never fails: anything that does not decode as a JSON
// array of strings degrades to the single fallback question.
func ParseQuestions(raw string) []string {
	txt := util.StripCodeFences(raw)

	var items []string
	if err := json.Unmarshal([]byte(txt), &items); err != nil {
		return []string{FallbackQuestion}
	}

	out := make([]string, 0, len(items))
	for _, q := range items {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return []string{FallbackQuestion}
	}
	return out
}
