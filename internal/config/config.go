package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"catan-standings/internal/domain"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DiscordToken   string
	TwoSheepAPIKey string

	SpreadsheetID         string
	CKSpreadsheetID       string
	ServiceAccountKeyFile string
	LedgerBackend         string // "sheets" or "xlsx"
	LedgerXLSXDir         string

	DBPath     string
	ServerPort string
	LogLevel   string

	RosterCacheTTL  time.Duration
	ReplayRateLimit float64 // requests per second per replay host

	// channel id -> division
	Channels       map[string]domain.Division
	ErrorChannelID string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DiscordToken:          getEnv("DISCORD_TOKEN", ""),
		TwoSheepAPIKey:        getEnv("TWOSHEEP_API_KEY", ""),
		SpreadsheetID:         getEnv("SPREADSHEET_ID", "1U7uKsuO2l1SxT3qZSRmdRdX1apjm81pRsnYtFcxMGQQ"),
		CKSpreadsheetID:       getEnv("CK_SPREADSHEET_ID", ""),
		ServiceAccountKeyFile: getEnv("SERVICE_ACCOUNT_KEY_FILE", "service_account_key.json"),
		LedgerBackend:         getEnv("LEDGER_BACKEND", "sheets"),
		LedgerXLSXDir:         getEnv("LEDGER_XLSX_DIR", "ledger"),
		DBPath:                getEnv("DB_PATH", "main.db"),
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		ErrorChannelID:        getEnv("ERROR_CHANNEL", ""),
		Channels:              make(map[string]domain.Division),
	}
	var err error
	if cfg.RosterCacheTTL, err = time.ParseDuration(getEnv("ROSTER_CACHE_TTL", "0s")); err != nil {
		return nil, fmt.Errorf("invalid ROSTER_CACHE_TTL: %w", err)
	}
	if cfg.ReplayRateLimit, err = strconv.ParseFloat(getEnv("REPLAY_RATE_LIMIT", "2"), 64); err != nil {
		return nil, fmt.Errorf("invalid REPLAY_RATE_LIMIT: %w", err)
	}

	for env, div := range map[string]domain.Division{
		"DIV1_CHANNELS": domain.Div1,
		"DIV2_CHANNELS": domain.Div2,
		"CK_CHANNELS":   domain.CK,
	} {
		ids := splitList(getEnv(env, ""))
		if len(ids) > 0 && !cfg.Enabled(div) {
			logger.Warn().Str("env", env).Msg("CK_SPREADSHEET_ID is not set, ignoring CK channels")
			continue
		}
		for _, id := range ids {
			cfg.Channels[id] = div
		}
	}

	if cfg.TwoSheepAPIKey == "" {
		return nil, fmt.Errorf("TWOSHEEP_API_KEY is required")
	}
	// CK shares tab and base column with division 1, so it needs its own spreadsheet
	if cfg.CKSpreadsheetID != "" && cfg.CKSpreadsheetID == cfg.SpreadsheetID {
		return nil, fmt.Errorf("CK_SPREADSHEET_ID must differ from SPREADSHEET_ID")
	}
	if cfg.LedgerBackend != "sheets" && cfg.LedgerBackend != "xlsx" {
		return nil, fmt.Errorf("LEDGER_BACKEND must be sheets or xlsx, got %q", cfg.LedgerBackend)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("ledger_backend", cfg.LedgerBackend).
		Int("channels", len(cfg.Channels)).
		Bool("ck_enabled", cfg.Enabled(domain.CK)).
		Dur("roster_cache_ttl", cfg.RosterCacheTTL).
		Msg("configuration loaded")

	return cfg, nil
}

// Enabled reports whether a division has a ledger region of its own. CK
// games are only recorded when CK_SPREADSHEET_ID is set.
func (c *Config) Enabled(d domain.Division) bool {
	if d == domain.CK {
		return c.CKSpreadsheetID != ""
	}
	return true
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var Module = fx.Provide(Load)
