package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "AGRITRACE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "AGRITRACE_DB_DSN"
	EnvDBHost = "AGRITRACE_DB_HOST"
	EnvDBUser = "AGRITRACE_DB_USER"
	EnvDBName = "AGRITRACE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Ledger    LedgerConfig
	RateLimit RateLimitConfig
	PubSub    PubSubConfig
	Ingest    IngestConfig
	Password  PasswordConfig
	Flags     FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Ledger.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AGRITRACE_APP_ENV" required:"true"`
	Port         string `envconfig:"AGRITRACE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGRITRACE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGRITRACE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AGRITRACE_DB_DSN"`
	Driver string `envconfig:"AGRITRACE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGRITRACE_DB_HOST"`
	LegacyPort     int    `envconfig:"AGRITRACE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGRITRACE_DB_USER"`
	LegacyPassword string `envconfig:"AGRITRACE_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGRITRACE_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGRITRACE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGRITRACE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGRITRACE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGRITRACE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGRITRACE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGRITRACE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGRITRACE_REDIS_ADDR"`
	Password     string        `envconfig:"AGRITRACE_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGRITRACE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGRITRACE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGRITRACE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGRITRACE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGRITRACE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGRITRACE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AGRITRACE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AGRITRACE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AGRITRACE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AGRITRACE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AGRITRACE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AGRITRACE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AGRITRACE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AGRITRACE_ARGON_KEY_LEN" default:"32"`
}

// LedgerBackendMode selects which gateway backend serves contract calls.
const (
	LedgerBackendNetwork = "network"
	LedgerBackendMemory  = "memory"
)

// LedgerConfig describes the Fabric network connection and the enrolled
// identity used to sign submitted transactions.
type LedgerConfig struct {
	Backend        string        `envconfig:"AGRITRACE_LEDGER_BACKEND" default:"network"`
	MSPID          string        `envconfig:"AGRITRACE_LEDGER_MSP_ID" default:"AgriTraceMSP"`
	Channel        string        `envconfig:"AGRITRACE_LEDGER_CHANNEL" default:"tracechannel"`
	Chaincode      string        `envconfig:"AGRITRACE_LEDGER_CHAINCODE" default:"tracerecords"`
	PeerEndpoint   string        `envconfig:"AGRITRACE_LEDGER_PEER_ENDPOINT"`
	GatewayPeer    string        `envconfig:"AGRITRACE_LEDGER_GATEWAY_PEER"`
	WalletDir      string        `envconfig:"AGRITRACE_LEDGER_WALLET_DIR"`
	TLSCertPath    string        `envconfig:"AGRITRACE_LEDGER_TLS_CERT"`
	SubmitTimeout  time.Duration `envconfig:"AGRITRACE_LEDGER_SUBMIT_TIMEOUT" default:"30s"`
	CommitTimeout  time.Duration `envconfig:"AGRITRACE_LEDGER_COMMIT_TIMEOUT" default:"1m"`
	EvaluateWindow time.Duration `envconfig:"AGRITRACE_LEDGER_EVALUATE_TIMEOUT" default:"10s"`
}

func (l LedgerConfig) IsMemory() bool {
	return strings.EqualFold(l.Backend, LedgerBackendMemory)
}

func (l LedgerConfig) validate() error {
	switch strings.ToLower(l.Backend) {
	case LedgerBackendNetwork:
		missing := []string{}
		if l.PeerEndpoint == "" {
			missing = append(missing, "AGRITRACE_LEDGER_PEER_ENDPOINT")
		}
		if l.WalletDir == "" {
			missing = append(missing, "AGRITRACE_LEDGER_WALLET_DIR")
		}
		if len(missing) > 0 {
			return fmt.Errorf("ledger backend %q requires %s", l.Backend, strings.Join(missing, ", "))
		}
		return nil
	case LedgerBackendMemory:
		return nil
	default:
		return fmt.Errorf("unknown ledger backend %q", l.Backend)
	}
}

type RateLimitConfig struct {
	SubmitWindow        time.Duration `envconfig:"AGRITRACE_RATE_LIMIT_SUBMIT_WINDOW" default:"1m"`
	SubmitIdentityLimit int           `envconfig:"AGRITRACE_RATE_LIMIT_SUBMIT_IDENTITY_LIMIT" default:"60"`
	SubmitIPLimit       int           `envconfig:"AGRITRACE_RATE_LIMIT_SUBMIT_IP_LIMIT" default:"120"`
}

type PubSubConfig struct {
	ProjectID         string `envconfig:"AGRITRACE_PUBSUB_PROJECT_ID"`
	MirrorEventsTopic string `envconfig:"AGRITRACE_PUBSUB_MIRROR_TOPIC" default:"agritrace-mirror-events"`
}

type IngestConfig struct {
	MaxRows      int `envconfig:"AGRITRACE_INGEST_MAX_ROWS" default:"5000"`
	MaxUploadMB  int `envconfig:"AGRITRACE_INGEST_MAX_UPLOAD_MB" default:"16"`
	WorkerBuffer int `envconfig:"AGRITRACE_INGEST_WORKER_BUFFER" default:"64"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AGRITRACE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AGRITRACE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
