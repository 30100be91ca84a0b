package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	// Identity Toolkit settings
	AuthAPIKey      string `envconfig:"AUTH_API_KEY" required:"true"`
	AuthContinueURL string `envconfig:"AUTH_CONTINUE_URL" default:"http://localhost:9000/finishAuth"`

	// Icon storage settings (S3-compatible)
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"icons"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	DefaultIconPath string `envconfig:"DEFAULT_ICON_PATH" default:"defaults/icon.png"`

	// Optional Secret Manager overrides. When GCPProjectID is set, the named
	// secrets replace DBConnectionString and AuthAPIKey at startup.
	GCPProjectID         string `envconfig:"GCP_PROJECT_ID"`
	DBSecretName         string `envconfig:"DB_SECRET_NAME" default:"db-connection-string"`
	AuthAPIKeySecretName string `envconfig:"AUTH_API_KEY_SECRET_NAME" default:"auth-api-key"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
