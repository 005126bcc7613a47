package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultMaxConcurrentDownloads = 3
	DefaultDownloadTimeout        = time.Hour
	DefaultSessionTTL             = 30 * time.Minute
	DefaultFileDeleteRetries      = 3
	DefaultFileDeleteDelay        = 2 * time.Second
	DefaultProgressInterval       = 3 * time.Second
	DefaultCatalogCacheTTL        = 10 * time.Minute
	DefaultSocketTimeout          = 30 * time.Second
	DefaultExtractorRetries       = 3
)

type Config struct {
	BotToken string
	AppID    int
	AppHash  string
	OwnerID  int64

	SessionDir  string
	DownloadDir string

	MaxConcurrentDownloads int
	DownloadTimeout        time.Duration
	SessionTTL             time.Duration
	FileDeleteRetries      int
	FileDeleteDelay        time.Duration
	ProgressInterval       time.Duration
	CatalogCacheTTL        time.Duration

	SocketTimeout    time.Duration
	ExtractorRetries int
	YtdlpCookies     string
	YtdlpAutoInstall bool

	LogLevel string
}

// LoadConfig reads the process environment, optionally seeded from a .env
// file in the working directory (or the file named by CONFIG_FILE).
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	file := os.Getenv("CONFIG_FILE")
	if file == "" {
		file = ".env"
	}
	v.SetConfigFile(file)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	v.AutomaticEnv()

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SESSION_DIR", "./data")
	v.SetDefault("DOWNLOAD_DIR", filepath.Join(os.TempDir(), "clipnova"))
	v.SetDefault("MAX_CONCURRENT_DOWNLOADS", DefaultMaxConcurrentDownloads)
	v.SetDefault("DOWNLOAD_TIMEOUT", DefaultDownloadTimeout)
	v.SetDefault("SESSION_TTL", DefaultSessionTTL)
	v.SetDefault("FILE_DELETE_RETRIES", DefaultFileDeleteRetries)
	v.SetDefault("FILE_DELETE_DELAY", DefaultFileDeleteDelay)
	v.SetDefault("PROGRESS_INTERVAL", DefaultProgressInterval)
	v.SetDefault("CATALOG_CACHE_TTL", DefaultCatalogCacheTTL)
	v.SetDefault("SOCKET_TIMEOUT", DefaultSocketTimeout)
	v.SetDefault("EXTRACTOR_RETRIES", DefaultExtractorRetries)
	v.SetDefault("YTDLP_AUTO_INSTALL", false)
	v.SetDefault("LOG_LEVEL", "info")

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"BOT_TOKEN", "APP_ID", "APP_HASH", "OWNER_ID", "YTDLP_COOKIES"} {
		v.SetDefault(key, "")
	}
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		BotToken:               v.GetString("BOT_TOKEN"),
		AppID:                  v.GetInt("APP_ID"),
		AppHash:                v.GetString("APP_HASH"),
		OwnerID:                v.GetInt64("OWNER_ID"),
		SessionDir:             v.GetString("SESSION_DIR"),
		DownloadDir:            v.GetString("DOWNLOAD_DIR"),
		MaxConcurrentDownloads: v.GetInt("MAX_CONCURRENT_DOWNLOADS"),
		DownloadTimeout:        v.GetDuration("DOWNLOAD_TIMEOUT"),
		SessionTTL:             v.GetDuration("SESSION_TTL"),
		FileDeleteRetries:      v.GetInt("FILE_DELETE_RETRIES"),
		FileDeleteDelay:        v.GetDuration("FILE_DELETE_DELAY"),
		ProgressInterval:       v.GetDuration("PROGRESS_INTERVAL"),
		CatalogCacheTTL:        v.GetDuration("CATALOG_CACHE_TTL"),
		SocketTimeout:          v.GetDuration("SOCKET_TIMEOUT"),
		ExtractorRetries:       v.GetInt("EXTRACTOR_RETRIES"),
		YtdlpCookies:           v.GetString("YTDLP_COOKIES"),
		YtdlpAutoInstall:       v.GetBool("YTDLP_AUTO_INSTALL"),
		LogLevel:               v.GetString("LOG_LEVEL"),
	}
}

// Validate reports the first missing or out of range setting.
func (c *Config) Validate() error {
	switch {
	case c.BotToken == "":
		return errors.New("BOT_TOKEN is not set")
	case c.AppID == 0:
		return errors.New("APP_ID is not set")
	case c.AppHash == "":
		return errors.New("APP_HASH is not set")
	case c.MaxConcurrentDownloads <= 0:
		return fmt.Errorf("MAX_CONCURRENT_DOWNLOADS must be positive, got %d", c.MaxConcurrentDownloads)
	case c.DownloadTimeout <= 0:
		return fmt.Errorf("DOWNLOAD_TIMEOUT must be positive, got %s", c.DownloadTimeout)
	case c.FileDeleteRetries <= 0:
		return fmt.Errorf("FILE_DELETE_RETRIES must be positive, got %d", c.FileDeleteRetries)
	}
	return nil
}
