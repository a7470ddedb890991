// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

var (
	ErrEnvVariablesNotValid = errors.New("environment variables not valid")
)

type config struct {
	DisableStartupMessage bool   `env:"DISABLE_STARTUP_MESSAGE" envDefault:"true"`
	HTTPHost              string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	HTTPPort              int    `env:"HTTP_PORT" envDefault:"3001"`
}

func loadServerConfig() (*config, error) {
	envVars, err := env.ParseAs[config]()
	if err != nil {
		var parseErr env.AggregateError
		if errors.As(err, &parseErr) {
			err = parseErr.Errors[0]
		}
		return nil, fmt.Errorf("%w: %s", ErrEnvVariablesNotValid, err.Error())
	}

	if err := validateEnvironmentVariables(&envVars); err != nil {
		return nil, err
	}
	return &envVars, nil
}

func validateEnvironmentVariables(envVars *config) error {
	envError := make([]string, 0)

	if envVars.HTTPPort < 1 || envVars.HTTPPort > 65535 {
		envError = append(envError, "HTTP_PORT is out of valid range (1-65535)")
	}
	if len(envVars.HTTPHost) == 0 {
		envError = append(envError, "HTTP_HOST must not be empty")
	}

	if len(envError) > 0 {
		return fmt.Errorf("%w: %s", ErrEnvVariablesNotValid, strings.Join(envError, ", "))
	}
	return nil
}
