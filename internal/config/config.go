package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/streamcap/streamcapd/internal/notify"
)

// Config struct for environment variables.
type Config struct {
	OutputDir       string        `envconfig:"OUTPUT_DIR" required:"true"`
	FFmpegBinary    string        `envconfig:"FFMPEG_BINARY" default:"ffmpeg"`
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" default:"1m"`
	StopTimeout     time.Duration `envconfig:"STOP_TIMEOUT" default:"10s"`
	KeepCapturedFor time.Duration `envconfig:"KEEP_CAPTURED_FOR" default:"720h"`
	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"1h"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"INFO"`
	DBPath          string        `envconfig:"DB_PATH" default:"captures.db"`
	RecordingsFile  string        `envconfig:"RECORDINGS_FILE" default:"recordings.json"`

	Telemetry struct {
		Enabled bool `split_words:"true" default:"true"`
	}

	Push struct {
		OnlyNotifyNoRecord bool `split_words:"true"`
		StreamStartEnabled bool `split_words:"true" default:"true"`
		StreamEndEnabled   bool `split_words:"true" default:"true"`
	}

	DingTalk struct {
		Enabled    bool     `split_words:"true"`
		WebhookURL string   `split_words:"true"`
		AtMobiles  []string `split_words:"true"`
		AtAll      bool     `split_words:"true"`
	} `envconfig:"DINGTALK"`

	WeChat struct {
		Enabled    bool   `split_words:"true"`
		WebhookURL string `split_words:"true"`
	} `envconfig:"WECHAT"`

	Bark struct {
		Enabled        bool   `split_words:"true"`
		ServerURL      string `split_words:"true"`
		InterruptLevel string `split_words:"true"`
		Sound          string `split_words:"true"`
	}

	Ntfy struct {
		Enabled   bool   `split_words:"true"`
		ServerURL string `split_words:"true"`
		Tags      string `split_words:"true"`
		ActionURL string `split_words:"true"`
		Email     string `split_words:"true"`
	}

	Telegram struct {
		Enabled bool   `split_words:"true"`
		Token   string `split_words:"true"`
		ChatID  string `split_words:"true"`
		Proxy   string `split_words:"true"`
	}

	Email struct {
		Enabled    bool   `split_words:"true"`
		Host       string `split_words:"true"`
		Username   string `split_words:"true"`
		Password   string `split_words:"true"`
		Sender     string `split_words:"true"`
		SenderName string `split_words:"true"`
		Recipient  string `split_words:"true"`
	}

	ServerChan struct {
		Enabled bool   `split_words:"true"`
		SendKey string `split_words:"true"`
		Channel int    `split_words:"true"`
		Tags    string `split_words:"true"`
	} `envconfig:"SERVERCHAN"`

	Web struct {
		BindAddress     string        `split_words:"true" default:"0.0.0.0:8787"`
		Username        string        `split_words:"true"`
		Password        string        `split_words:"true"`
		ReadTimeout     time.Duration `split_words:"true" default:"30s"`
		WriteTimeout    time.Duration `split_words:"true" default:"30s"`
		IdleTimeout     time.Duration `split_words:"true" default:"5s"`
		ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
	}
}

// LoadConfig reads environment variables and populates the Config struct.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	return &cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// PushSettings maps the push section onto the notification gate settings.
func (c *Config) PushSettings() notify.Settings {
	return notify.Settings{
		OnlyNotifyNoRecord: c.Push.OnlyNotifyNoRecord,
		StreamStartEnabled: c.Push.StreamStartEnabled,
		StreamEndEnabled:   c.Push.StreamEndEnabled,
	}
}

// BuildChannels assembles the enabled notification channels.
func (c *Config) BuildChannels() []notify.Channel {
	var channels []notify.Channel

	if c.DingTalk.Enabled {
		channels = append(channels, &notify.DingTalkChannel{
			WebhookURL: c.DingTalk.WebhookURL,
			AtMobiles:  c.DingTalk.AtMobiles,
			AtAll:      c.DingTalk.AtAll,
		})
	}

	if c.WeChat.Enabled {
		channels = append(channels, &notify.WeChatChannel{WebhookURL: c.WeChat.WebhookURL})
	}

	if c.Bark.Enabled {
		channels = append(channels, &notify.BarkChannel{
			ServerURL:      c.Bark.ServerURL,
			InterruptLevel: c.Bark.InterruptLevel,
			Sound:          c.Bark.Sound,
		})
	}

	if c.Ntfy.Enabled {
		channels = append(channels, &notify.NtfyChannel{
			ServerURL: c.Ntfy.ServerURL,
			Tags:      c.Ntfy.Tags,
			ActionURL: c.Ntfy.ActionURL,
			Email:     c.Ntfy.Email,
		})
	}

	if c.Telegram.Enabled {
		channels = append(channels, &notify.TelegramChannel{
			Token:  c.Telegram.Token,
			ChatID: c.Telegram.ChatID,
			Proxy:  c.Telegram.Proxy,
		})
	}

	if c.Email.Enabled {
		channels = append(channels, &notify.EmailChannel{
			Host:       c.Email.Host,
			Username:   c.Email.Username,
			Password:   c.Email.Password,
			Sender:     c.Email.Sender,
			SenderName: c.Email.SenderName,
			Recipient:  c.Email.Recipient,
		})
	}

	if c.ServerChan.Enabled {
		channels = append(channels, &notify.ServerChanChannel{
			SendKey: c.ServerChan.SendKey,
			Channel: c.ServerChan.Channel,
			Tags:    c.ServerChan.Tags,
		})
	}

	return channels
}
