// Package config carga la configuración del servicio desde YAML y la pisa
// con variables de entorno. Las duraciones se escriben como strings Go
// ("60s", "2m") y se parsean en Load.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeoutRaw  string        `yaml:"read_timeout"`
		WriteTimeoutRaw string        `yaml:"write_timeout"`
		ShutdownRaw     string        `yaml:"shutdown_timeout"`
		ReadTimeout     time.Duration `yaml:"-"`
		WriteTimeout    time.Duration `yaml:"-"`
		ShutdownTimeout time.Duration `yaml:"-"`
	} `yaml:"server"`

	Storage struct {
		// memory | redis | postgres
		Driver string `yaml:"driver"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Postgres struct {
			DSN          string `yaml:"dsn"`
			MaxOpenConns int    `yaml:"max_open_conns"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Seats struct {
		TTLRaw           string        `yaml:"ttl"`
		SweepIntervalRaw string        `yaml:"sweep_interval"`
		TTL              time.Duration `yaml:"-"`
		SweepInterval    time.Duration `yaml:"-"`
		Ceiling          int           `yaml:"ceiling"`
		Pools            struct {
			Collector int `yaml:"collector"`
			Monitor   int `yaml:"monitor"`
			Crew      int `yaml:"crew"`
		} `yaml:"pools"`
	} `yaml:"seats"`

	Credential struct {
		Tenant         string        `yaml:"tenant"`
		KID            string        `yaml:"kid"`
		PrivateKeyPath string        `yaml:"private_key_path"`
		PrivateKeyPEM  string        `yaml:"private_key_pem"`
		Audience       string        `yaml:"audience"`
		Issuer         string        `yaml:"issuer"`
		TTLRaw         string        `yaml:"ttl"`
		TTL            time.Duration `yaml:"-"`
	} `yaml:"credential"`

	Auth struct {
		// HMACSecret valida los bearer tokens de los clientes del panel.
		HMACSecret  string        `yaml:"hmac_secret"`
		CacheTTLRaw string        `yaml:"cache_ttl"`
		CacheTTL    time.Duration `yaml:"-"`
	} `yaml:"auth"`
}

// Load lee el YAML en path (path vacío usa solo defaults + env) y aplica
// overrides de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	var err error
	if c.Server.ReadTimeout, err = parseDur("server.read_timeout", c.Server.ReadTimeoutRaw, 10*time.Second); err != nil {
		return nil, err
	}
	if c.Server.WriteTimeout, err = parseDur("server.write_timeout", c.Server.WriteTimeoutRaw, 15*time.Second); err != nil {
		return nil, err
	}
	if c.Server.ShutdownTimeout, err = parseDur("server.shutdown_timeout", c.Server.ShutdownRaw, 10*time.Second); err != nil {
		return nil, err
	}
	if c.Seats.TTL, err = parseDur("seats.ttl", c.Seats.TTLRaw, 60*time.Second); err != nil {
		return nil, err
	}
	if c.Seats.SweepInterval, err = parseDur("seats.sweep_interval", c.Seats.SweepIntervalRaw, 60*time.Second); err != nil {
		return nil, err
	}
	if c.Credential.TTL, err = parseDur("credential.ttl", c.Credential.TTLRaw, time.Hour); err != nil {
		return nil, err
	}
	if c.Auth.CacheTTL, err = parseDur("auth.cache_ttl", c.Auth.CacheTTLRaw, 2*time.Minute); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Redis.Prefix == "" {
		c.Storage.Redis.Prefix = "seatd"
	}
	if c.Seats.Ceiling <= 0 {
		c.Seats.Ceiling = 25
	}
	if c.Seats.Pools.Collector <= 0 {
		c.Seats.Pools.Collector = 16
	}
	if c.Seats.Pools.Monitor <= 0 {
		c.Seats.Pools.Monitor = 4
	}
	if c.Seats.Pools.Crew <= 0 {
		c.Seats.Pools.Crew = 5
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}

	c.applyEnvOverrides()

	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	return &c, nil
}

func parseDur(field, raw string, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", field, err)
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Storage.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Storage.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Storage.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Storage.Redis.Prefix = v
	}
	if v, ok := getEnvStr("POSTGRES_DSN"); ok {
		c.Storage.Postgres.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}

	// SEATS
	if v, ok := getEnvDur("SEATS_TTL"); ok {
		c.Seats.TTL = v
	}
	if v, ok := getEnvDur("SEATS_SWEEP_INTERVAL"); ok {
		c.Seats.SweepInterval = v
	}
	if v, ok := getEnvInt("SEATS_CEILING"); ok {
		c.Seats.Ceiling = v
	}
	if v, ok := getEnvInt("SEATS_POOL_COLLECTOR"); ok {
		c.Seats.Pools.Collector = v
	}
	if v, ok := getEnvInt("SEATS_POOL_MONITOR"); ok {
		c.Seats.Pools.Monitor = v
	}
	if v, ok := getEnvInt("SEATS_POOL_CREW"); ok {
		c.Seats.Pools.Crew = v
	}

	// CREDENTIAL
	if v, ok := getEnvStr("CREDENTIAL_TENANT"); ok {
		c.Credential.Tenant = v
	}
	if v, ok := getEnvStr("CREDENTIAL_KID"); ok {
		c.Credential.KID = v
	}
	if v, ok := getEnvStr("CREDENTIAL_PRIVATE_KEY_PATH"); ok {
		c.Credential.PrivateKeyPath = v
	}
	if v, ok := getEnvStr("CREDENTIAL_PRIVATE_KEY_PEM"); ok {
		c.Credential.PrivateKeyPEM = v
	}
	if v, ok := getEnvStr("CREDENTIAL_AUDIENCE"); ok {
		c.Credential.Audience = v
	}
	if v, ok := getEnvStr("CREDENTIAL_ISSUER"); ok {
		c.Credential.Issuer = v
	}
	if v, ok := getEnvDur("CREDENTIAL_TTL"); ok {
		c.Credential.TTL = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_HMAC_SECRET"); ok {
		c.Auth.HMACSecret = v
	}
	if v, ok := getEnvDur("AUTH_CACHE_TTL"); ok {
		c.Auth.CacheTTL = v
	}
}
