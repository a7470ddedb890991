// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package invoker

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/caarlos0/env/v11"
)

var (
	errParsingConfig       = errors.New("error parsing sync endpoint configuration from environment variables")
	errInvalidPort         = errors.New("APP_PORT is out of valid range (1-65535)")
	errMissingClientID     = errors.New("ERP_SYNC_CLIENT_ID is required when ERP_SYNC_CLIENT_SECRET is set")
	errMissingClientSecret = errors.New("ERP_SYNC_CLIENT_SECRET is required when ERP_SYNC_CLIENT_ID is set")
)

// config holds the environment-driven settings of the sync endpoint.
type config struct {
	AppHost      string `env:"APP_HOST" envDefault:"localhost"`
	AppPort      int    `env:"APP_PORT" envDefault:"3000"`
	ClientID     string `env:"ERP_SYNC_CLIENT_ID"`
	ClientSecret string `env:"ERP_SYNC_CLIENT_SECRET"`
	AuthEndpoint string `env:"ERP_SYNC_AUTH_ENDPOINT"`

	baseURL string
}

func loadConfigFromEnv() (*config, error) {
	config, err := env.ParseAs[config]()
	if err != nil {
		var parseErr env.AggregateError
		if errors.As(err, &parseErr) {
			err = parseErr.Errors[0]
		}
		return nil, fmt.Errorf("%w: %s", errParsingConfig, err.Error())
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *config) validate() error {
	if c.AppPort < 1 || c.AppPort > 65535 {
		return errInvalidPort
	}

	baseURL := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(c.AppHost, strconv.Itoa(c.AppPort)),
	}
	c.baseURL = baseURL.String()

	switch {
	case len(c.ClientID) > 0 && len(c.ClientSecret) == 0:
		return errMissingClientSecret
	case len(c.ClientSecret) > 0 && len(c.ClientID) == 0:
		return errMissingClientID
	}

	if len(c.AuthEndpoint) == 0 {
		baseURL.Path = "/oauth/token"
		c.AuthEndpoint = baseURL.String()
	} else if _, err := url.Parse(c.AuthEndpoint); err != nil {
		return fmt.Errorf("invalid ERP_SYNC_AUTH_ENDPOINT: %w", err)
	}

	return nil
}
