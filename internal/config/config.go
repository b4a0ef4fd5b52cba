package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	DatabaseURL   string
	RedisURL      string
	BotToken      string
	AllowedOrigin string
	LogLevel      string
	LogFormat     string

	// уведомления в телеграм
	NotifyBotEnabled bool
	WebAppURL        string

	// лимиты запросов на пользователя в окне RateWindow
	APIRateLimit int
	WSRateLimit  int
	RateWindow   time.Duration

	Room       RoomConfig
	Tournament TournamentConfig

	RetentionSweepInterval time.Duration
	TemplateInterval       time.Duration
}

type RoomConfig struct {
	BotFillDelay    time.Duration
	DisconnectGrace time.Duration
	BotStepDelay    time.Duration
	BotCycleDelay   time.Duration
	BotCycleCap     int
	Retention       time.Duration
	SnapshotTTL     time.Duration
}

type TournamentConfig struct {
	FillDelay      time.Duration
	CommissionRate float64
	BotMoveDelay   time.Duration
	FirstMoveDelay time.Duration
	JoinGrace      time.Duration
	AdvanceRetry   time.Duration
	MaxReplays     int
	BotCycleCap    int
	Retention      time.Duration
	Templates      []TemplateConfig
}

// TemplateConfig - шаблон турнира, который всегда держится открытым
type TemplateConfig struct {
	GameType string
	Capacity int
	EntryFee int64
}

func Load() *Config {
	// .env необязателен, в проде переменные приходят из окружения
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
		BotToken:      os.Getenv("BOT_TOKEN"),
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),

		NotifyBotEnabled: getBool("NOTIFY_BOT_ENABLED", false),
		WebAppURL:        os.Getenv("WEBAPP_URL"),

		APIRateLimit: getInt("API_RATE_LIMIT", 120),
		WSRateLimit:  getInt("WS_RATE_LIMIT", 120),
		RateWindow:   getDuration("RATE_WINDOW", time.Minute),

		Room: RoomConfig{
			BotFillDelay:    getDuration("ROOM_BOT_FILL_DELAY", 15*time.Second),
			DisconnectGrace: getDuration("ROOM_DISCONNECT_GRACE", 60*time.Second),
			BotStepDelay:    getDuration("ROOM_BOT_STEP_DELAY", 700*time.Millisecond),
			BotCycleDelay:   getDuration("ROOM_BOT_CYCLE_DELAY", 400*time.Millisecond),
			BotCycleCap:     getInt("ROOM_BOT_CYCLE_CAP", 50),
			Retention:       getDuration("ROOM_RETENTION", 10*time.Minute),
			SnapshotTTL:     getDuration("ROOM_SNAPSHOT_TTL", 24*time.Hour),
		},
		Tournament: TournamentConfig{
			FillDelay:      getDuration("TOURNAMENT_FILL_DELAY", 15*time.Second),
			CommissionRate: getFloat("TOURNAMENT_COMMISSION_RATE", 0.1),
			BotMoveDelay:   getDuration("TOURNAMENT_BOT_MOVE_DELAY", 800*time.Millisecond),
			FirstMoveDelay: getDuration("TOURNAMENT_FIRST_MOVE_DELAY", 1500*time.Millisecond),
			JoinGrace:      getDuration("TOURNAMENT_JOIN_GRACE", 60*time.Second),
			AdvanceRetry:   getDuration("TOURNAMENT_ADVANCE_RETRY", 2*time.Second),
			MaxReplays:     getInt("TOURNAMENT_MAX_REPLAYS", 3),
			BotCycleCap:    getInt("TOURNAMENT_BOT_CYCLE_CAP", 50),
			Retention:      getDuration("TOURNAMENT_RETENTION", 30*time.Minute),
			Templates:      parseTemplates(os.Getenv("TOURNAMENT_TEMPLATES")),
		},

		RetentionSweepInterval: getDuration("SWEEP_INTERVAL", time.Minute),
		TemplateInterval:       getDuration("TEMPLATE_INTERVAL", 30*time.Second),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	return cfg
}

// parseTemplates разбирает "tictactoe:4:100,chess:8:0"
func parseTemplates(raw string) []TemplateConfig {
	var out []TemplateConfig
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			log.Printf("config: bad tournament template %q", item)
			continue
		}
		capacity, err1 := strconv.Atoi(parts[1])
		fee, err2 := strconv.ParseInt(parts[2], 10, 64)
		if err1 != nil || err2 != nil {
			log.Printf("config: bad tournament template %q", item)
			continue
		}
		out = append(out, TemplateConfig{GameType: parts[0], Capacity: capacity, EntryFee: fee})
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: bad duration %s=%q, using %s", key, v, def)
		return def
	}
	return d
}
