package config

import (
	"github.com/JaimeStill/soilguardian/internal/store"
	"github.com/JaimeStill/soilguardian/internal/tracking"
	"github.com/JaimeStill/soilguardian/pkg/database"
	"github.com/JaimeStill/soilguardian/pkg/middleware"
	"github.com/JaimeStill/soilguardian/pkg/openapi"
	"github.com/JaimeStill/soilguardian/pkg/pagination"
	"github.com/JaimeStill/soilguardian/pkg/storage"
)

const (
	EnvSoilGuardianEnv             = "SOILGUARDIAN_ENV"
	EnvSoilGuardianShutdownTimeout = "SOILGUARDIAN_SHUTDOWN_TIMEOUT"
	EnvSoilGuardianVersion         = "SOILGUARDIAN_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "SOILGUARDIAN_DB_URL",
	Host:            "SOILGUARDIAN_DB_HOST",
	Port:            "SOILGUARDIAN_DB_PORT",
	Name:            "SOILGUARDIAN_DB_NAME",
	User:            "SOILGUARDIAN_DB_USER",
	Password:        "SOILGUARDIAN_DB_PASSWORD",
	SSLMode:         "SOILGUARDIAN_DB_SSL_MODE",
	MaxOpenConns:    "SOILGUARDIAN_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "SOILGUARDIAN_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "SOILGUARDIAN_DB_CONN_MAX_LIFETIME",
	ConnMaxIdleTime: "SOILGUARDIAN_DB_CONN_MAX_IDLE_TIME",
	ConnTimeout:     "SOILGUARDIAN_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "SOILGUARDIAN_STORAGE_PROVIDER",
	Path:             "SOILGUARDIAN_STORAGE_PATH",
	ContainerName:    "SOILGUARDIAN_STORAGE_CONTAINER_NAME",
	ConnectionString: "SOILGUARDIAN_STORAGE_CONNECTION_STRING",
	ServiceURL:       "SOILGUARDIAN_STORAGE_SERVICE_URL",
	MaxListSize:      "SOILGUARDIAN_STORAGE_MAX_LIST_SIZE",
}

var storeEnv = &store.Env{
	Provider: "SOILGUARDIAN_STORE_PROVIDER",
}

var trackingEnv = &tracking.Env{
	Enabled:    "SOILGUARDIAN_TRACKING_ENABLED",
	URI:        "MLFLOW_TRACKING_URI",
	Experiment: "SOILGUARDIAN_TRACKING_EXPERIMENT",
	Timeout:    "SOILGUARDIAN_TRACKING_TIMEOUT",
}

var corsEnv = &middleware.CORSEnv{
	Enabled:          "SOILGUARDIAN_CORS_ENABLED",
	Origins:          "SOILGUARDIAN_CORS_ORIGINS",
	AllowedMethods:   "SOILGUARDIAN_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "SOILGUARDIAN_CORS_ALLOWED_HEADERS",
	AllowCredentials: "SOILGUARDIAN_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "SOILGUARDIAN_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "SOILGUARDIAN_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "SOILGUARDIAN_PAGINATION_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "SOILGUARDIAN_OPENAPI_TITLE",
	Description: "SOILGUARDIAN_OPENAPI_DESCRIPTION",
	Servers:     "SOILGUARDIAN_OPENAPI_SERVERS",
}
