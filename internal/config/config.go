package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

type NLS struct {
	BaseURL        string `yaml:"base_url"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type DocGen struct {
	BaseURL     string `yaml:"base_url"`
	TokenID     string `yaml:"token_id"`
	TokenSecret string `yaml:"token_secret"`
	// credit type → statement template id
	StatementTemplates map[string]string `yaml:"statement_templates"`
	PollInitialMS      int               `yaml:"poll_initial_ms"`
	PollMaxMS          int               `yaml:"poll_max_ms"`
	PollTimeoutSeconds int               `yaml:"poll_timeout_seconds"`
}

type Notify struct {
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
	JobChannel string `yaml:"job_channel"`
}

type CustomerService struct {
	Phone string `yaml:"phone"`
	Email string `yaml:"email"`
	Hours string `yaml:"hours"`
}

type Config struct {
	AppPort string `yaml:"app_port"`
	AppEnv  string `yaml:"app_env"`

	MySQLHost string `yaml:"mysql_host"`
	MySQLPort string `yaml:"mysql_port"`
	MySQLDB   string `yaml:"mysql_db"`
	MySQLUser string `yaml:"mysql_user"`
	MySQLPass string `yaml:"mysql_pass"`

	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`

	IdempTTLSecs int `yaml:"idempotency_ttl_seconds"`

	NLS             NLS             `yaml:"nls"`
	DocGen          DocGen          `yaml:"docgen"`
	Notify          Notify          `yaml:"notify"`
	CustomerService CustomerService `yaml:"customer_service"`

	OperatorJWTSecret string `yaml:"operator_jwt_secret"`
	BankDetailsKey    string `yaml:"bank_details_key"`
	SyncDelayMS       int    `yaml:"sync_delay_ms"`
	JobLockTTLMinutes int    `yaml:"job_lock_ttl_minutes"`
	LogLevel          string `yaml:"log_level"`
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func defaults() *Config {
	return &Config{
		AppPort:   "8080",
		AppEnv:    EnvDevelopment,
		MySQLHost: "mysql",
		MySQLPort: "3306",
		MySQLDB:   "lendcore",
		MySQLUser: "lendcore",
		MySQLPass: "lendcore",

		RedisAddr:    "redis:6379",
		IdempTTLSecs: 300,

		NLS: NLS{TimeoutSeconds: 30},
		DocGen: DocGen{
			BaseURL:            "https://api.docspring.com/api/v1",
			StatementTemplates: map[string]string{},
			PollInitialMS:      1000,
			PollMaxMS:          8000,
			PollTimeoutSeconds: 60,
		},
		Notify: Notify{Channel: "#facilities", JobChannel: "#servicing-jobs"},
		CustomerService: CustomerService{
			Phone: "1-800-555-0199",
			Email: "support@example.com",
			Hours: "Mon-Fri 9am-6pm ET",
		},
		SyncDelayMS:       1000,
		JobLockTTLMinutes: 120,
		LogLevel:          "info",
	}
}

// Load builds the config from defaults, then the YAML file named by CONFIG_FILE, then env vars.
func Load() (*Config, error) {
	c := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.AppPort = getenv("APP_PORT", c.AppPort)
	c.AppEnv = getenv("APP_ENV", c.AppEnv)
	c.MySQLHost = getenv("MYSQL_HOST", c.MySQLHost)
	c.MySQLPort = getenv("MYSQL_PORT", c.MySQLPort)
	c.MySQLDB = getenv("MYSQL_DB", c.MySQLDB)
	c.MySQLUser = getenv("MYSQL_USER", c.MySQLUser)
	c.MySQLPass = getenv("MYSQL_PASS", c.MySQLPass)
	c.RedisAddr = getenv("REDIS_ADDR", c.RedisAddr)
	c.RedisDB = getenvInt("REDIS_DB", c.RedisDB)
	c.IdempTTLSecs = getenvInt("IDEMPOTENCY_TTL_SECONDS", c.IdempTTLSecs)

	c.NLS.BaseURL = getenv("NLS_BASE_URL", c.NLS.BaseURL)
	c.NLS.Username = getenv("NLS_USERNAME", c.NLS.Username)
	c.NLS.Password = getenv("NLS_PASSWORD", c.NLS.Password)
	c.NLS.ClientID = getenv("NLS_CLIENT_ID", c.NLS.ClientID)
	c.NLS.ClientSecret = getenv("NLS_CLIENT_SECRET", c.NLS.ClientSecret)
	c.NLS.TimeoutSeconds = getenvInt("NLS_TIMEOUT_SECONDS", c.NLS.TimeoutSeconds)

	c.DocGen.BaseURL = getenv("DOCGEN_BASE_URL", c.DocGen.BaseURL)
	c.DocGen.TokenID = getenv("DOCGEN_TOKEN_ID", c.DocGen.TokenID)
	c.DocGen.TokenSecret = getenv("DOCGEN_TOKEN_SECRET", c.DocGen.TokenSecret)
	c.DocGen.PollInitialMS = getenvInt("DOCGEN_POLL_INITIAL_MS", c.DocGen.PollInitialMS)
	c.DocGen.PollMaxMS = getenvInt("DOCGEN_POLL_MAX_MS", c.DocGen.PollMaxMS)
	c.DocGen.PollTimeoutSeconds = getenvInt("DOCGEN_POLL_TIMEOUT_SECONDS", c.DocGen.PollTimeoutSeconds)
	if c.DocGen.StatementTemplates == nil {
		c.DocGen.StatementTemplates = map[string]string{}
	}
	// DOCGEN_TEMPLATE_CONSUMER_BNPL=tpl_123 → statement_templates[consumer_bnpl]
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, "DOCGEN_TEMPLATE_") || v == "" {
			continue
		}
		c.DocGen.StatementTemplates[strings.ToLower(strings.TrimPrefix(k, "DOCGEN_TEMPLATE_"))] = v
	}

	c.Notify.WebhookURL = getenv("NOTIFY_WEBHOOK_URL", c.Notify.WebhookURL)
	c.Notify.Channel = getenv("NOTIFY_CHANNEL", c.Notify.Channel)
	c.Notify.JobChannel = getenv("NOTIFY_JOB_CHANNEL", c.Notify.JobChannel)

	c.CustomerService.Phone = getenv("CUSTOMER_SERVICE_PHONE", c.CustomerService.Phone)
	c.CustomerService.Email = getenv("CUSTOMER_SERVICE_EMAIL", c.CustomerService.Email)
	c.CustomerService.Hours = getenv("CUSTOMER_SERVICE_HOURS", c.CustomerService.Hours)

	c.OperatorJWTSecret = getenv("OPERATOR_JWT_SECRET", c.OperatorJWTSecret)
	c.BankDetailsKey = getenv("BANK_DETAILS_KEY", c.BankDetailsKey)
	c.SyncDelayMS = getenvInt("SYNC_DELAY_MS", c.SyncDelayMS)
	c.JobLockTTLMinutes = getenvInt("JOB_LOCK_TTL_MINUTES", c.JobLockTTLMinutes)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.AppEnv {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("invalid APP_ENV %q", c.AppEnv)
	}
	if c.BankDetailsKey != "" {
		if k, err := hex.DecodeString(c.BankDetailsKey); err != nil || len(k) != 32 {
			return errors.New("BANK_DETAILS_KEY must be 64 hex characters")
		}
	}
	if c.IsDevelopment() {
		return nil
	}
	if c.NLS.BaseURL == "" || c.NLS.Username == "" || c.NLS.ClientID == "" {
		return errors.New("missing NLS config (NLS_BASE_URL/USERNAME/CLIENT_ID)")
	}
	if c.DocGen.TokenID == "" || c.DocGen.TokenSecret == "" {
		return errors.New("missing DOCGEN_TOKEN_ID/DOCGEN_TOKEN_SECRET")
	}
	if c.OperatorJWTSecret == "" {
		return errors.New("missing OPERATOR_JWT_SECRET")
	}
	if c.BankDetailsKey == "" {
		return errors.New("missing BANK_DETAILS_KEY")
	}
	return nil
}

func (c *Config) IsDevelopment() bool { return c.AppEnv == EnvDevelopment }
func (c *Config) IsProduction() bool  { return c.AppEnv == EnvProduction }

func (c *Config) SyncDelay() time.Duration { return time.Duration(c.SyncDelayMS) * time.Millisecond }
func (c *Config) JobLockTTL() time.Duration {
	return time.Duration(c.JobLockTTLMinutes) * time.Minute
}
func (c *Config) IdempTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
