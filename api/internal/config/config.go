package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port string

	TelegramBotToken string
	WebhookURL       string

	GeminiAPIKey   string
	GeminiModel    string
	LLMTemperature float32

	PromptDir string

	// Export targets; all optional. Missing settings degrade the export,
	// they never block the exam.
	DatabaseURL  string
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPTo       string
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvFloat32(k string, def float32) float32 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
		log.Fatalf("bad float in env %s: %q", k, v)
	}
	return def
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8000"),

		TelegramBotToken: mustEnv("TELEGRAM_BOT_TOKEN"),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		GeminiAPIKey:   mustEnv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		LLMTemperature: getEnvFloat32("LLM_TEMPERATURE", 0.3),

		PromptDir: getEnv("PROMPT_DIR", ""),

		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPTo:       getEnv("SMTP_TO", ""),
	}
}
