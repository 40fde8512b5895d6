package config

// EnvPrefix is passed to envconfig; every field carries its full variable name.
const EnvPrefix = "VEGGIEPOS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	ScaleModePhysical  = "physical"
	ScaleModeSimulated = "simulated"

	ClassifierModeRandom = "random"
	ClassifierModeRemote = "remote"

	DefaultPhysicalStabilityThreshold  = 0.1
	DefaultSimulatedStabilityThreshold = 0.02
)

const (
	EnvAppEnv              = "VEGGIEPOS_APP_ENV"
	EnvPort                = "VEGGIEPOS_APP_PORT"
	EnvDBDSN               = "VEGGIEPOS_DB_DSN"
	EnvDBHost              = "VEGGIEPOS_DB_HOST"
	EnvDBUser              = "VEGGIEPOS_DB_USER"
	EnvDBName              = "VEGGIEPOS_DB_NAME"
	EnvUseSQLite           = "VEGGIEPOS_USE_SQLITE"
	EnvRedisURL            = "VEGGIEPOS_REDIS_URL"
	EnvJWTSecret           = "VEGGIEPOS_JWT_SECRET"
	EnvScaleMode           = "VEGGIEPOS_SCALE_MODE"
	EnvScaleSampleInterval = "VEGGIEPOS_SCALE_SAMPLE_INTERVAL"
	EnvScaleThreshold      = "VEGGIEPOS_SCALE_STABILITY_THRESHOLD"
)

var dbEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
