package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	HTTP struct {
		Addr           string
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"http"`

	CRM struct {
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
		Token   string // service token for cmd/leadbar; the API never uses it
	} `mapstructure:"crm"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	RabbitMQ struct {
		URL string
	} `mapstructure:"rabbitmq"`

	Session struct {
		TTL              time.Duration `mapstructure:"ttl"`
		JournalRetention time.Duration `mapstructure:"journal_retention"`
	} `mapstructure:"session"`

	Mail struct {
		Host     string
		Port     int
		User     string
		Password string
		From     string
		To       []string
	} `mapstructure:"mail"`

	Telegram struct {
		Token  string
		ChatID int64 `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("crm.timeout", 15*time.Second)
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.journal_retention", 30*24*time.Hour)
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "nao-responda@leadflow.local")
	v.SetDefault("metrics.enabled", true)
}

var keys = []string{
	"app.env",
	"http.addr", "http.allowed_origins",
	"crm.base_url", "crm.timeout", "crm.token",
	"postgres.dsn",
	"rabbitmq.url",
	"session.ttl", "session.journal_retention",
	"mail.host", "mail.port", "mail.user", "mail.password", "mail.from", "mail.to",
	"telegram.token", "telegram.chat_id",
	"metrics.enabled",
}

// Load reads the YAML file at path when it exists, then lets LEADFLOW_* variables
// (from the environment or a .env file) override any key; crm.base_url
// becomes LEADFLOW_CRM_BASE_URL.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	v.SetEnvPrefix("LEADFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var c Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return c, err
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
