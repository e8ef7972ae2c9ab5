package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"exam-bot/api/internal/exam"
	"exam-bot/api/internal/llm"
	"exam-bot/api/internal/util"
)

// Router drives one exam session per chat. All model calls block the
// handling of that chat's next update, which matches the workflow: the
// student waits for the tutor, the auditor or the judge anyway.
type Router struct {
	Bot         *tgbotapi.BotAPI
	Gateway     llm.Gateway
	Prompts     exam.Prompts
	Exporter    exam.Exporter
	Temperature float32
	Log         *zap.Logger

	sessions sync.Map // chatID -> *chatSession
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	cid := upd.Message.Chat.ID
	cs := r.session(cid)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if upd.Message.IsCommand() {
		r.handleCommand(cid, cs, upd.Message.Command())
		return
	}
	if upd.Message.Document != nil {
		r.acceptDocument(cid, cs, upd.Message.Document)
		return
	}
	if txt := strings.TrimSpace(upd.Message.Text); txt != "" {
		r.handleText(cid, cs, txt)
	}
}

func (r *Router) handleCommand(cid int64, cs *chatSession, cmd string) {
	switch cmd {
	case "start":
		if cs.machine.Phase() != exam.PhaseIdentification {
			r.send(cid, "An exam session is already in progress. Use /status to see where you are, or /reset to discard it.")
			return
		}
		r.beginIdentification(cid, cs)
	case "reset":
		cs.machine.Reset()
		cs.resetUI()
		r.send(cid, "Session discarded. Everything starts over.")
		r.beginIdentification(cid, cs)
	case "status":
		r.send(cid, r.statusText(cs))
	case "health":
		r.send(cid, "OK — engine: "+r.Gateway.Name()+" ("+r.Gateway.Model()+")")
	case "retry":
		r.retry(cid, cs)
	default:
		r.send(cid, "Unknown command. Available: /start, /status, /retry, /reset, /health")
	}
}

func (r *Router) beginIdentification(cid int64, cs *chatSession) {
	cs.mode = modeAwaitName
	r.send(cid, "Welcome to the proctored exam.\nFirst, your identification. What is your first name?")
}

func (r *Router) handleText(cid int64, cs *chatSession, txt string) {
	switch cs.mode {
	case modeAwaitName:
		cs.name = txt
		cs.mode = modeAwaitSurname
		r.send(cid, "And your surname?")
		return
	case modeAwaitSurname:
		cs.surname = txt
		cs.mode = modeAwaitID
		r.send(cid, "Your student ID?")
		return
	case modeAwaitID:
		if err := cs.machine.Identify(cs.name, cs.surname, txt); err != nil {
			r.send(cid, err.Error()+"\nLet's try again. What is your first name?")
			cs.mode = modeAwaitName
			return
		}
		cs.mode = ""
		r.send(cid, fmt.Sprintf(
			"Thanks, %s. The exam is open.\n\n"+
				"You can consult the tutor with plain messages — it will not solve the exercise for you. "+
				"When your code is ready, upload it as a file (document) to submit. Submission is final.",
			cs.name))
		return
	}

	switch cs.machine.Phase() {
	case exam.PhaseIdentification:
		r.send(cid, "Send /start to begin.")
	case exam.PhaseTutoring:
		r.tutorExchange(cid, cs, txt)
	case exam.PhaseAudit:
		r.auditInput(cid, cs, txt)
	case exam.PhaseVerdict:
		r.send(cid, "This session is complete. Use /reset to start a new attempt.")
	}
}

func (r *Router) tutorExchange(cid int64, cs *chatSession, txt string) {
	r.typing(cid)
	reply, err := cs.machine.Chat(context.Background(), txt)
	if err != nil {
		r.sendFailure(cid, "The tutor", err)
		return
	}
	r.send(cid, reply)
}

// auditInput collects one answer per message. Once every question has an
// answer the whole set is submitted in a single atomic call; if the judge
// was unavailable last time, any message retries with the kept answers.
func (r *Router) auditInput(cid int64, cs *chatSession, txt string) {
	questions := cs.machine.Session().Questions
	if len(questions) == 0 {
		r.generateQuestions(cid, cs)
		return
	}
	if len(cs.answers) < len(questions) {
		cs.answers[len(cs.answers)] = txt
	}
	if len(cs.answers) < len(questions) {
		r.askQuestion(cid, cs)
		return
	}
	r.submitDefense(cid, cs)
}

func (r *Router) generateQuestions(cid int64, cs *chatSession) {
	r.typing(cid)
	questions, err := cs.machine.EnsureQuestions(context.Background())
	if err != nil {
		r.sendFailure(cid, "The question generator", err)
		return
	}
	r.send(cid, fmt.Sprintf(
		"Your code is in. Before the verdict, answer %d question(s) about it. One message per answer.",
		len(questions)))
	r.askQuestion(cid, cs)
}

func (r *Router) askQuestion(cid int64, cs *chatSession) {
	questions := cs.machine.Session().Questions
	i := len(cs.answers)
	r.send(cid, fmt.Sprintf("Question %d/%d:\n%s", i+1, len(questions), questions[i]))
}

func (r *Router) submitDefense(cid int64, cs *chatSession) {
	r.typing(cid)
	report, err := cs.machine.SubmitAnswers(context.Background(), cs.answers)
	if err != nil {
		var verr *exam.ValidationError
		if errors.As(err, &verr) {
			// An empty answer slipped through; re-collect from scratch.
			cs.answers = map[int]string{}
			r.send(cid, verr.Reason+"\nLet's go through the questions again.")
			r.askQuestion(cid, cs)
			return
		}
		r.sendFailure(cid, "The judge", err)
		return
	}

	r.send(cid, "VERDICT\n\n"+util.TruncateRunes(report.Text, 3900))
	switch cs.machine.Session().Export {
	case exam.ExportSucceeded:
		r.send(cid, "The attempt archive was delivered to the examiner.")
	default:
		r.send(cid, "The attempt could not be delivered externally; your verdict above is the record. Tell your examiner.")
	}
	r.send(cid, "Session complete. Use /reset to start a new attempt.")
}

// retry re-runs whichever model-dependent step failed last: question
// generation if no questions exist yet, or the judge if answers are
// already complete.
func (r *Router) retry(cid int64, cs *chatSession) {
	if cs.machine.Phase() != exam.PhaseAudit {
		r.send(cid, "Nothing to retry right now.")
		return
	}
	questions := cs.machine.Session().Questions
	switch {
	case len(questions) == 0:
		r.generateQuestions(cid, cs)
	case len(cs.answers) >= len(questions):
		r.submitDefense(cid, cs)
	default:
		r.askQuestion(cid, cs)
	}
}

func (r *Router) statusText(cs *chatSession) string {
	s := cs.machine.Session()
	switch s.Phase {
	case exam.PhaseIdentification:
		return "Phase: identification. Send /start to begin."
	case exam.PhaseTutoring:
		return fmt.Sprintf("Phase: tutoring. %d message(s) exchanged. Upload your code file to submit.",
			len(s.Transcript))
	case exam.PhaseAudit:
		return fmt.Sprintf("Phase: audit. %d/%d answer(s) collected.", len(cs.answers), len(s.Questions))
	default:
		return "Phase: verdict. Session complete; /reset for a new attempt."
	}
}

func (r *Router) sendFailure(cid int64, who string, err error) {
	if errors.Is(err, llm.ErrUnavailable) {
		r.Log.Warn("model unavailable", zap.Int64("chat_id", cid), zap.Error(err))
		r.send(cid, who+" is unavailable right now. Nothing was lost — use /retry or just send your message again in a moment.")
		return
	}
	r.send(cid, err.Error())
}

func (r *Router) typing(cid int64) {
	_, _ = r.Bot.Request(tgbotapi.NewChatAction(cid, tgbotapi.ChatTyping))
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, util.TruncateRunes(text, 4000))
	if _, err := r.Bot.Send(msg); err != nil {
		r.Log.Warn("telegram send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
