package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "AGENDAJA"

// Known application environments.
const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags.
const (
	EnvDBDSN  = "AGENDAJA_DB_DSN"
	EnvDBHost = "AGENDAJA_DB_HOST"
	EnvDBUser = "AGENDAJA_DB_USER"
	EnvDBName = "AGENDAJA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
