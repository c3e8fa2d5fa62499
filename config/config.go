package config

import (
	"crypto/rsa"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/rosterbot/roster-server/utils-go"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port               string `env:"LISTEN_ADDR" envDefault:":3000"`
	Timeout            uint64 `env:"TIMEOUT" envDefault:"10"`
	ReadBufferSize     int    `env:"READ_BUFFER_SIZE" envDefault:"4096"`
	BodyLimit          int    `env:"BODY_LIMIT" envDefault:"1048576"`
	AppName            string `env:"APP_NAME" envDefault:"RosterServer"`
	IsProduction       bool   `env:"PRODUCTION"`
	Dsn                string `env:"DSN"`
	CookieKey          string `env:"COOKIE_KEY"`
	JwtPublicKey       string `env:"JWT_PUBLIC_KEY"`
	JwtParsedPublicKey *rsa.PublicKey
	RedisUrl           string       `env:"REDIS_URL"`
	InviteConfig       InviteConfig `envPrefix:"INVITE_"`
	EmailConfig        EmailConfig  `envPrefix:"EMAIL_"`
	ChatConfig         ChatConfig   `envPrefix:"CHAT_"`
	VerifyConfig       VerifyConfig `envPrefix:"VERIFY_"`
}

type InviteConfig struct {
	TtlDays       int           `env:"TTL_DAYS" envDefault:"7"`
	MaxPending    int           `env:"MAX_PENDING" envDefault:"3"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
}

func (c InviteConfig) Ttl() time.Duration {
	return time.Duration(c.TtlDays) * 24 * time.Hour
}

type EmailConfig struct {
	SmtpHost         string `env:"SMTP_HOST"`
	SmtpPort         int    `env:"SMTP_PORT" envDefault:"587"`
	SmtpUser         string `env:"SMTP_USER"`
	SmtpPassword     string `env:"SMTP_PASSWORD"`
	SmtpSkipInsecure bool   `env:"SMTP_SKIP_INSECURE" envDefault:"false"`
}

// ChatConfig points at the chat gateway's internal REST API, the process that
// actually talks to the chat platform.
type ChatConfig struct {
	GatewayUrl string `env:"GATEWAY_URL"`
	Token      string `env:"TOKEN"`
}

type VerifyConfig struct {
	Url    string `env:"URL"`
	ApiKey string `env:"API_KEY"`
}

func Parse() (*Config, error) {
	cfg := Config{
		IsProduction: utils.ParseFlags(),
	}

	if err := env.Parse(&cfg); err != nil {
		log.Panic().Err(err).Msg("Failed to parse env config")
	}

	cfg.JwtParsedPublicKey = utils.ParsePublicKey(cfg.JwtPublicKey)

	return &cfg, nil
}
