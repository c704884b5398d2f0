package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when no explicit path is given.
const DefaultConfigFile = "monitor.yaml"

// Config holds all application configuration. Values come from defaults, then
// the optional YAML file, then environment variables.
type Config struct {
	TargetURL    string        `yaml:"target_url"`
	SortOrder    string        `yaml:"sort_order"`
	ScanInterval time.Duration `yaml:"scan_interval"`

	SaveToFile bool   `yaml:"save_to_file"`
	DataDir    string `yaml:"data_dir"`
	RawCSVPath string `yaml:"raw_csv_path"`

	PagesToScrape  int           `yaml:"pages_to_scrape"`
	MaxRetries     int           `yaml:"max_retries"`
	RateLimitMs    int           `yaml:"rate_limit_ms"`
	PageTimeout    time.Duration `yaml:"page_timeout"`
	Headless       bool          `yaml:"headless"`
	ViewportWidth  int           `yaml:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height"`
	ChromeBin      string        `yaml:"chrome_bin"`

	DesktopNotify  bool   `yaml:"desktop_notify"`
	DiscordWebhook string `yaml:"discord_webhook"`
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`

	ArchiveDriver string `yaml:"archive_driver"`
	ArchiveDSN    string `yaml:"archive_dsn"`

	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	LogLevel string `yaml:"log_level"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		SortOrder:    "created_at:desc",
		ScanInterval: 5 * time.Minute,

		DataDir: "data",

		PagesToScrape:  1,
		MaxRetries:     3,
		RateLimitMs:    1500,
		PageTimeout:    30 * time.Second,
		Headless:       true,
		ViewportWidth:  1080,
		ViewportHeight: 1024,

		DesktopNotify: true,

		PostgresHost:     "localhost",
		PostgresPort:     "5432",
		PostgresUser:     "monitor",
		PostgresPassword: "monitor",
		PostgresDB:       "olx_monitor",
		PostgresSSLMode:  "disable",

		LogLevel: "info",
	}
}

// Load reads the .env file, the YAML file at path (DefaultConfigFile when
// empty) and the environment. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := Defaults()

	if path == "" {
		path = DefaultConfigFile
	}
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.TargetURL = getEnv("TARGET_URL", c.TargetURL)
	c.SortOrder = getEnv("SORT_ORDER", c.SortOrder)
	c.ScanInterval = getEnvDuration("SCAN_INTERVAL", c.ScanInterval)

	c.SaveToFile = getEnvBool("SAVE_TO_FILE", c.SaveToFile)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.RawCSVPath = getEnv("RAW_CSV_PATH", c.RawCSVPath)

	c.PagesToScrape = getEnvInt("PAGES_TO_SCRAPE", c.PagesToScrape)
	c.MaxRetries = getEnvInt("MAX_RETRIES", c.MaxRetries)
	c.RateLimitMs = getEnvInt("RATE_LIMIT_MS", c.RateLimitMs)
	c.PageTimeout = getEnvDuration("PAGE_TIMEOUT", c.PageTimeout)
	c.Headless = getEnvBool("HEADLESS", c.Headless)
	c.ViewportWidth = getEnvInt("VIEWPORT_WIDTH", c.ViewportWidth)
	c.ViewportHeight = getEnvInt("VIEWPORT_HEIGHT", c.ViewportHeight)
	c.ChromeBin = getEnv("CHROME_BIN", c.ChromeBin)

	c.DesktopNotify = getEnvBool("DESKTOP_NOTIFY", c.DesktopNotify)
	c.DiscordWebhook = getEnv("DISCORD_WEBHOOK", c.DiscordWebhook)
	c.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramToken)
	c.TelegramChatID = getEnvInt64("TELEGRAM_CHAT_ID", c.TelegramChatID)

	c.ArchiveDriver = getEnv("ARCHIVE_DRIVER", c.ArchiveDriver)
	c.ArchiveDSN = getEnv("ARCHIVE_DSN", c.ArchiveDSN)

	c.PostgresHost = getEnv("POSTGRES_HOST", c.PostgresHost)
	c.PostgresPort = getEnv("POSTGRES_PORT", c.PostgresPort)
	c.PostgresUser = getEnv("POSTGRES_USER", c.PostgresUser)
	c.PostgresPassword = getEnv("POSTGRES_PASSWORD", c.PostgresPassword)
	c.PostgresDB = getEnv("POSTGRES_DB", c.PostgresDB)
	c.PostgresSSLMode = getEnv("POSTGRES_SSLMODE", c.PostgresSSLMode)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate checks values that would otherwise fail much later. The target URL
// is checked separately because the CLI may still supply it.
func (c *Config) Validate() error {
	if c.ScanInterval <= 0 {
		return fmt.Errorf("config: scan interval must be positive, got %v", c.ScanInterval)
	}
	if c.PagesToScrape < 1 {
		return fmt.Errorf("config: pages to scrape must be at least 1, got %d", c.PagesToScrape)
	}
	if c.PageTimeout <= 0 {
		return fmt.Errorf("config: page timeout must be positive, got %v", c.PageTimeout)
	}
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return fmt.Errorf("config: viewport must be positive, got %dx%d", c.ViewportWidth, c.ViewportHeight)
	}
	switch c.ArchiveDriver {
	case "", "postgres", "sqlite3":
	default:
		return fmt.Errorf("config: unknown archive driver %q", c.ArchiveDriver)
	}
	if c.ArchiveDriver == "sqlite3" && c.ArchiveDSN == "" {
		return fmt.Errorf("config: sqlite3 archive needs ARCHIVE_DSN")
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		return fmt.Errorf("config: TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}

// DSN returns the PostgreSQL connection string built from the POSTGRES_* parts.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// ArchiveConnString returns ArchiveDSN, or the POSTGRES_* DSN for a postgres
// archive without an explicit DSN.
func (c *Config) ArchiveConnString() string {
	if c.ArchiveDSN == "" && c.ArchiveDriver == "postgres" {
		return c.DSN()
	}
	return c.ArchiveDSN
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
		log.Printf("[config] Ignoring invalid %s=%q", key, val)
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err == nil {
			return n
		}
		log.Printf("[config] Ignoring invalid %s=%q", key, val)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return b
		}
		log.Printf("[config] Ignoring invalid %s=%q", key, val)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
		log.Printf("[config] Ignoring invalid %s=%q", key, val)
	}
	return fallback
}
