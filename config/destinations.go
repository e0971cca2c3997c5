package config

import (
	"strings"
	"time"
)

// SplunkConfig contains Splunk HTTP event collector configuration.
type SplunkConfig struct {
	Server             string        `env:"SPLUNK_SERVER"`
	Token              string        `env:"SPLUNK_TOKEN"`
	Timeout            time.Duration `env:"SPLUNK_TIMEOUT"                envDefault:"30s"`
	InsecureSkipVerify bool          `env:"SPLUNK_INSECURE_SKIP_VERIFY"   envDefault:"false"`
}

// Sanitize trims values and restores defaults.
func (c *SplunkConfig) Sanitize() {
	c.Server = strings.TrimSpace(c.Server)
	c.Token = strings.TrimSpace(c.Token)
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// IsConfigured reports whether the Splunk destination can be built.
func (c *SplunkConfig) IsConfigured() bool {
	return c.Server != ""
}

// ObjectStoreConfig contains S3 configuration. Credentials fall back to the AWS default chain.
type ObjectStoreConfig struct {
	Region          string `env:"AWS_REGION"            envDefault:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	SessionToken    string `env:"AWS_SESSION_TOKEN"`
	// Endpoint overrides the S3 endpoint for S3-compatible stores.
	Endpoint   string `env:"OBJECT_STORE_ENDPOINT"`
	StagingDir string `env:"OBJECT_STORE_STAGING_DIR" envDefault:"TEMP"`
	Enabled    bool   `env:"OBJECT_STORE_ENABLED"     envDefault:"true"`
}

// Sanitize trims values and restores defaults.
func (c *ObjectStoreConfig) Sanitize() {
	c.Region = strings.TrimSpace(c.Region)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.StagingDir = strings.TrimSpace(c.StagingDir)
	if c.StagingDir == "" {
		c.StagingDir = "TEMP"
	}
}
