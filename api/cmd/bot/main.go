package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"go.uber.org/zap"

	"exam-bot/api/internal/config"
	"exam-bot/api/internal/exam"
	"exam-bot/api/internal/export"
	"exam-bot/api/internal/llm/gemini"
	"exam-bot/api/internal/store"
	"exam-bot/api/internal/telegram"
)

func main() {
	log, _ := zap.NewProduction()
	defer func() { _ = log.Sync() }()

	cfg := config.Load()

	// --- Export targets (all optional) ---
	var targets []export.Target

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Fatal("sql.Open", zap.Error(err))
		}
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(1 * time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		repo := store.NewAttemptRepo(db)
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("db ping", zap.Error(err))
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal("db schema", zap.Error(err))
		}
		cancel()
		targets = append(targets, repo)
		log.Info("attempt archive database enabled")
	}

	email := &export.EmailTarget{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		To:       cfg.SMTPTo,
	}
	if email.Configured() {
		targets = append(targets, email)
		log.Info("email delivery enabled", zap.String("to", cfg.SMTPTo))
	}
	if len(targets) == 0 {
		log.Warn("no export targets configured; attempts will be delivered in-session only")
	}

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal("telegram", zap.Error(err))
	}
	bot.Debug = false

	r := &telegram.Router{
		Bot:         bot,
		Gateway:     gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		Prompts:     exam.LoadPrompts(cfg.PromptDir),
		Exporter:    export.NewService(log, targets...),
		Temperature: cfg.LLMTemperature,
		Log:         log,
	}

	http.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if db != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := "0.0.0.0:" + cfg.Port
	if strings.TrimSpace(cfg.WebhookURL) != "" {
		startWebhookMode(log, addr, bot, r, cfg.WebhookURL)
	} else {
		startPollingMode(log, addr, bot, r)
	}
}

// ---------------- Modes -----------------

func startWebhookMode(log *zap.Logger, addr string, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string) {
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.Fatal("webhook config", zap.Error(err))
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Fatal("webhook register", zap.Error(err))
	}

	// ListenForWebhook registers its handler on the DefaultServeMux,
	// alongside /healthz.
	updates := bot.ListenForWebhook(path)
	go func() {
		for upd := range updates {
			r.HandleUpdate(upd)
		}
		log.Info("webhook updates channel closed")
	}()

	log.Info("listening", zap.String("addr", addr), zap.String("webhook_path", path))
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal("http", zap.Error(err))
	}
}

func startPollingMode(log *zap.Logger, addr string, bot *tgbotapi.BotAPI, r *telegram.Router) {
	go func() {
		log.Info("health server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Fatal("http", zap.Error(err))
		}
	}()
	runPolling(context.Background(), log, bot, r.HandleUpdate)
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 from Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, log *zap.Logger, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Info("polling stopped", zap.Error(ctx.Err()))
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < baseDelay {
				d = baseDelay
			}
			if d > maxDelay {
				d = maxDelay
			}
			log.Warn("polling error", zap.Error(err), zap.Duration("retry_in", d))
			time.Sleep(d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}

// ---------------- Helpers -----------------

// shortHash keeps the webhook path stable for a token without exposing it.
// FNV-1a, not crypto.
func shortHash(s string) string {
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
