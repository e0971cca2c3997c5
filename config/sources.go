package config

import (
	"errors"
	"strings"
	"time"
)

// TaniumConfig contains Tanium inventory API configuration.
type TaniumConfig struct {
	Server  string        `env:"TANIUM_SERVER"`
	Token   string        `env:"TANIUM_TOKEN"`
	Timeout time.Duration `env:"TANIUM_TIMEOUT" envDefault:"60s"`
	// InsecureSkipVerify disables TLS verification; Tanium servers commonly use self-signed certificates.
	InsecureSkipVerify bool `env:"TANIUM_INSECURE_SKIP_VERIFY" envDefault:"true"`
	// PrimaryTable is the asset table whose attributes are not flattened.
	PrimaryTable string `env:"TANIUM_PRIMARY_TABLE" envDefault:"ci_item"`
}

// Sanitize trims values and restores defaults.
func (c *TaniumConfig) Sanitize() {
	c.Server = strings.TrimSpace(c.Server)
	c.Token = strings.TrimSpace(c.Token)
	c.PrimaryTable = strings.TrimSpace(c.PrimaryTable)
	if c.PrimaryTable == "" {
		c.PrimaryTable = "ci_item"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}

// Validate requires the server and token.
func (c *TaniumConfig) Validate() error {
	var errs []error
	if c.Server == "" {
		errs = append(errs, errors.New("TANIUM_SERVER is required"))
	}
	if c.Token == "" {
		errs = append(errs, errors.New("TANIUM_TOKEN is required"))
	}
	return errors.Join(errs...)
}
