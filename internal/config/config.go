package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/darkorder/ticketing-api/internal/pkg/mailer"
	"github.com/darkorder/ticketing-api/internal/pkg/payhero"
	"github.com/darkorder/ticketing-api/internal/pkg/ticketpdf"
)

const envPrefix = "TICKETING"

type AppConfig struct {
	API       *APIConfig       `mapstructure:"api"`
	Log       *LogConfig       `mapstructure:"log"`
	Gin       *GinConfig       `mapstructure:"gin"`
	Postgres  *PostgresConfig  `mapstructure:"postgres"`
	Redis     *RedisConfig     `mapstructure:"redis"`
	RateLimit *RateLimitConfig `mapstructure:"rate_limit"`
	PayHero   *payhero.Config  `mapstructure:"payhero"`
	SendGrid  *mailer.Config   `mapstructure:"sendgrid"`
	AMQP      *AMQPConfig      `mapstructure:"amqp"`
	Admin     *AdminConfig     `mapstructure:"admin"`
	Tickets   *TicketsConfig   `mapstructure:"tickets"`
}

type APIConfig struct {
	Environment        string        `mapstructure:"environment"`
	Port               string        `mapstructure:"port"`
	BaseURL            string        `mapstructure:"base_url"`
	PublicURL          string        `mapstructure:"public_url"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	JWTTTL             time.Duration `mapstructure:"jwt_ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

func (c *PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DB, c.Port, sslMode)
}

// RedisConfig with an empty Addr disables redis: no rate limiting and no
// token revocation.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// AMQPConfig with an empty URL sends ticket emails inline.
type AMQPConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type AdminConfig struct {
	Email string `mapstructure:"email"`
	PIN   string `mapstructure:"pin"`
}

type TicketsConfig struct {
	PDFDir   string             `mapstructure:"pdf_dir"`
	Branding ticketpdf.Branding `mapstructure:"branding"`
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func Load(path string) (*AppConfig, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	return unmarshal(v)
}

// Watch calls onChange with the freshly parsed config every time the file
// changes. Parse failures are reported through onError.
func Watch(path string, onChange func(*AppConfig), onError func(error)) error {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		conf, err := unmarshal(v)
		if err != nil {
			onError(err)
			return
		}
		onChange(conf)
	})
	v.WatchConfig()

	return nil
}

func unmarshal(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}
	conf.setDefaults()

	return conf, nil
}

func (c *AppConfig) setDefaults() {
	if c.API == nil {
		c.API = &APIConfig{}
	}
	if c.API.Port == "" {
		c.API.Port = "8080"
	}
	if c.API.JWTTTL == 0 {
		c.API.JWTTTL = 24 * time.Hour
	}
	if c.Log == nil {
		c.Log = &LogConfig{Level: "info"}
	}
	if c.Gin == nil {
		c.Gin = &GinConfig{Mode: "release"}
	}
	if c.Postgres == nil {
		c.Postgres = &PostgresConfig{}
	}
	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if c.RateLimit == nil {
		c.RateLimit = &RateLimitConfig{}
	}
	if c.PayHero == nil {
		c.PayHero = &payhero.Config{}
	}
	if c.PayHero.CallbackURL == "" && c.API.PublicURL != "" {
		c.PayHero.CallbackURL = strings.TrimRight(c.API.PublicURL, "/") + "/api/payhero/callback"
	}
	if c.SendGrid == nil {
		c.SendGrid = &mailer.Config{}
	}
	if c.AMQP == nil {
		c.AMQP = &AMQPConfig{}
	}
	if c.Admin == nil {
		c.Admin = &AdminConfig{}
	}
	if c.Tickets == nil {
		c.Tickets = &TicketsConfig{}
	}
	if c.Tickets.Branding.Title == "" {
		c.Tickets.Branding = ticketpdf.DefaultBranding
	}
}
