package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	APIRateLimit  APIRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Scale         ScaleConfig
	Classifier    ClassifierConfig
	Checkout      CheckoutConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Scale.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VEGGIEPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"VEGGIEPOS_APP_PORT" default:"8000"`
	LogLevel     string `envconfig:"VEGGIEPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VEGGIEPOS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"VEGGIEPOS_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	origins := []string{}
	for _, part := range strings.Split(a.CORSOrigins, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

type DBConfig struct {
	DSN    string `envconfig:"VEGGIEPOS_DB_DSN"`
	Driver string `envconfig:"VEGGIEPOS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"VEGGIEPOS_DB_HOST"`
	Port     int    `envconfig:"VEGGIEPOS_DB_PORT" default:"5432"`
	User     string `envconfig:"VEGGIEPOS_DB_USER"`
	Password string `envconfig:"VEGGIEPOS_DB_PASSWORD"`
	Name     string `envconfig:"VEGGIEPOS_DB_NAME"`
	SSLMode  string `envconfig:"VEGGIEPOS_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"VEGGIEPOS_DB_SQLITE_PATH" default:"veggiepos.db"`

	MaxOpenConns    int           `envconfig:"VEGGIEPOS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"VEGGIEPOS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"VEGGIEPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VEGGIEPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"VEGGIEPOS_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VEGGIEPOS_REDIS_URL"`
	Address      string        `envconfig:"VEGGIEPOS_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"VEGGIEPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"VEGGIEPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VEGGIEPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VEGGIEPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VEGGIEPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VEGGIEPOS_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"VEGGIEPOS_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"VEGGIEPOS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"VEGGIEPOS_JWT_ISSUER" default:"veggiepos"`
	ExpirationMinutes      int    `envconfig:"VEGGIEPOS_JWT_EXPIRATION_MINUTES" default:"120"`
	RefreshTokenTTLMinutes int    `envconfig:"VEGGIEPOS_REFRESH_TOKEN_TTL_MINUTES" default:"720"`
}

func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the session TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VEGGIEPOS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VEGGIEPOS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VEGGIEPOS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VEGGIEPOS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VEGGIEPOS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow       time.Duration `envconfig:"VEGGIEPOS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUserLimit    int           `envconfig:"VEGGIEPOS_AUTH_RATE_LIMIT_LOGIN_USER_LIMIT" default:"5"`
	LoginIPLimit      int           `envconfig:"VEGGIEPOS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow    time.Duration `envconfig:"VEGGIEPOS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterUserLimit int           `envconfig:"VEGGIEPOS_AUTH_RATE_LIMIT_REGISTER_USER_LIMIT" default:"3"`
	RegisterIPLimit   int           `envconfig:"VEGGIEPOS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// APIRateLimitConfig throttles authenticated traffic per till session. The
// till polls /api/status several times a second, so the default is generous.
type APIRateLimitConfig struct {
	Window time.Duration `envconfig:"VEGGIEPOS_API_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"VEGGIEPOS_API_RATE_LIMIT_LIMIT" default:"1200"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VEGGIEPOS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VEGGIEPOS_AUTO_MIGRATE" default:"false"`
	SeedPrices  bool `envconfig:"VEGGIEPOS_SEED_PRICES" default:"true"`
}

// ScaleConfig drives the weight source and the stabilization filter.
type ScaleConfig struct {
	Mode               string        `envconfig:"VEGGIEPOS_SCALE_MODE" default:"simulated"`
	SampleInterval     time.Duration `envconfig:"VEGGIEPOS_SCALE_SAMPLE_INTERVAL" default:"100ms"`
	ZeroThreshold      float64       `envconfig:"VEGGIEPOS_SCALE_ZERO_THRESHOLD" default:"0.1"`
	StabilityThreshold float64       `envconfig:"VEGGIEPOS_SCALE_STABILITY_THRESHOLD" default:"0"`
	TareOnBoot         bool          `envconfig:"VEGGIEPOS_SCALE_TARE_ON_BOOT" default:"true"`

	DevicePath   string  `envconfig:"VEGGIEPOS_SCALE_DEVICE_PATH" default:"/sys/bus/iio/devices/iio:device0/in_voltage0_raw"`
	ScaleRatio   float64 `envconfig:"VEGGIEPOS_SCALE_RATIO" default:"1000"`
	WindowSize   int     `envconfig:"VEGGIEPOS_SCALE_WINDOW_SIZE" default:"5"`
	SimSeed      int64   `envconfig:"VEGGIEPOS_SCALE_SIM_SEED" default:"0"`
	SimTare      float64 `envconfig:"VEGGIEPOS_SCALE_SIM_TARE" default:"0.5"`
	ErrorBacklog int     `envconfig:"VEGGIEPOS_SCALE_ERROR_BACKLOG" default:"16"`
}

// IsPhysical reports whether the load-cell amplifier should be used.
func (s ScaleConfig) IsPhysical() bool {
	return strings.EqualFold(strings.TrimSpace(s.Mode), ScaleModePhysical)
}

// Threshold resolves the stability threshold, falling back to the per-mode default.
func (s ScaleConfig) Threshold() float64 {
	if s.StabilityThreshold > 0 {
		return s.StabilityThreshold
	}
	if s.IsPhysical() {
		return DefaultPhysicalStabilityThreshold
	}
	return DefaultSimulatedStabilityThreshold
}

func (s ScaleConfig) validate() error {
	mode := strings.ToLower(strings.TrimSpace(s.Mode))
	if mode != ScaleModePhysical && mode != ScaleModeSimulated {
		return fmt.Errorf("%s must be %q or %q", EnvScaleMode, ScaleModePhysical, ScaleModeSimulated)
	}
	if s.SampleInterval <= 0 {
		return fmt.Errorf("%s must be positive", EnvScaleSampleInterval)
	}
	return nil
}

type ClassifierConfig struct {
	Mode    string        `envconfig:"VEGGIEPOS_CLASSIFIER_MODE" default:"random"`
	URL     string        `envconfig:"VEGGIEPOS_CLASSIFIER_URL"`
	Timeout time.Duration `envconfig:"VEGGIEPOS_CLASSIFIER_TIMEOUT" default:"800ms"`
	Seed    int64         `envconfig:"VEGGIEPOS_CLASSIFIER_SEED" default:"0"`
	MaxMB   int           `envconfig:"VEGGIEPOS_CLASSIFIER_MAX_UPLOAD_MB" default:"8"`
}

// IsRemote reports whether frames are forwarded to an inference endpoint.
func (c ClassifierConfig) IsRemote() bool {
	return strings.EqualFold(strings.TrimSpace(c.Mode), ClassifierModeRemote)
}

type CheckoutConfig struct {
	CommitTimeout time.Duration `envconfig:"VEGGIEPOS_CHECKOUT_COMMIT_TIMEOUT" default:"5s"`
	CartIdleTTL   time.Duration `envconfig:"VEGGIEPOS_CHECKOUT_CART_IDLE_TTL" default:"12h"`
}

type CronConfig struct {
	Interval   time.Duration `envconfig:"VEGGIEPOS_CRON_INTERVAL" default:"15m"`
	LockTTL    time.Duration `envconfig:"VEGGIEPOS_CRON_LOCK_TTL" default:"10m"`
	JobTimeout time.Duration `envconfig:"VEGGIEPOS_CRON_JOB_TIMEOUT" default:"2m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
