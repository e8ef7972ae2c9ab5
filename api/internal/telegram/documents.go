package telegram

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"exam-bot/api/internal/exam"
)

// Artifacts are source files, not datasets.
const maxArtifactBytes = 512 << 10

// acceptDocument handles the exam submission: download the uploaded file,
// require readable UTF-8 text, and hand it to the machine. On success the
// audit questions are generated immediately so the student sees question
// one in the same exchange.
func (r *Router) acceptDocument(cid int64, cs *chatSession, doc *tgbotapi.Document) {
	if cs.machine.Phase() != exam.PhaseTutoring {
		r.send(cid, "A file upload only makes sense as the exam submission, during the tutoring phase.")
		return
	}
	if doc.FileSize > maxArtifactBytes {
		r.send(cid, "That file is too large for an exam submission. Send the source file itself, not an archive.")
		return
	}

	file, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: doc.FileID})
	if err != nil {
		r.send(cid, "Could not fetch the file from Telegram, please send it again.")
		return
	}
	raw, err := download(fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.Bot.Token, file.FilePath))
	if err != nil {
		r.send(cid, "Could not download the file, please send it again.")
		return
	}
	if !utf8.Valid(raw) {
		r.send(cid, "The file does not decode as UTF-8 text. Submit your source code as a plain text file.")
		return
	}

	if err := cs.machine.SubmitArtifact(string(raw)); err != nil {
		var verr *exam.ValidationError
		if errors.As(err, &verr) {
			r.send(cid, verr.Reason)
			return
		}
		r.send(cid, err.Error())
		return
	}
	r.send(cid, "Submission received: "+doc.FileName+". The tutoring chat is now closed.")
	r.generateQuestions(cid, cs)
}

func download(url string) ([]byte, error) {
	cl := &http.Client{Timeout: 60 * time.Second}
	resp, err := cl.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes+1))
}
