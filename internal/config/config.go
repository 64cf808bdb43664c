package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverOxiDB  = "oxidb"
	DriverMemory = "memory"
)

type Config struct {
	Port        int
	StoreDriver string

	MongoURI   string
	DBUser     string
	DBPassword string
	DBCluster  string
	DBName     string

	OxiDBHost string
	OxiDBPort int
	PoolSize  int

	StripeSecretKey string

	LogLevel string
	GelfAddr string
}

// Load reads the configuration from the environment, after merging an
// optional .env file from the working directory. Variables already set in
// the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	port, err := getEnvInt("PORT", 3000)
	if err != nil {
		return nil, err
	}
	oxiPort, err := getEnvInt("OXIDB_PORT", 4444)
	if err != nil {
		return nil, err
	}
	poolSize, err := getEnvInt("OXIDB_POOL_SIZE", 3)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:            port,
		StoreDriver:     getEnv("STORE_DRIVER", DriverMongo),
		MongoURI:        os.Getenv("MONGODB_URI"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBCluster:       getEnv("DB_CLUSTER", "cluster0.mongodb.net"),
		DBName:          getEnv("DB_NAME", "guardianCare"),
		OxiDBHost:       getEnv("OXIDB_HOST", "127.0.0.1"),
		OxiDBPort:       oxiPort,
		PoolSize:        poolSize,
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		GelfAddr:        os.Getenv("GELF_ADDR"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected store driver has what it needs.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" && (c.DBUser == "" || c.DBPassword == "") {
			return errors.New("config: MONGODB_URI or DB_USER and DB_PASSWORD must be set")
		}
	case DriverOxiDB, DriverMemory:
	default:
		return errors.Newf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Newf("config: invalid port %d", c.Port)
	}
	return nil
}

// MongoConnectionURI returns MONGODB_URI when set, otherwise an Atlas SRV
// URI built from the credential variables.
func (c *Config) MongoConnectionURI() string {
	if c.MongoURI != "" {
		return c.MongoURI
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBCluster,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority&appName=guardianCare",
	}
	return u.String()
}

// ListenAddr is the HTTP listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// OxiDBAddr is the host:port of the OxiDB server.
func (c *Config) OxiDBAddr() string {
	return fmt.Sprintf("%s:%d", c.OxiDBHost, c.OxiDBPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "config: %s", key)
	}
	return n, nil
}
