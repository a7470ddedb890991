// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/mia-platform/erpsync/internal/autosync"
	"github.com/mia-platform/erpsync/internal/info"
	"github.com/mia-platform/erpsync/internal/logger"
)

const (
	loggerName = "erpsync:server"
)

type Server interface {
	Start() error
	Stop() error
}

// Controller exposes the state of the auto sync runner and lets callers start a cycle.
type Controller interface {
	Running() bool
	LastCycle() *autosync.CycleSummary
	Targets() []string
	Limit() int
	Trigger(ctx context.Context) bool
}

type impServer struct {
	config

	app *fiber.App
}

var (
	ErrServerListen   = errors.New("server listen error")
	ErrServerShutdown = errors.New("server shutdown error")
)

// NewServer returns a server exposing controller. The metrics route is registered only when
// metricsHandler is not nil. Cycles started through the server run on a context derived from ctx
// that is never cancelled.
func NewServer(ctx context.Context, controller Controller, metricsHandler http.Handler) (Server, error) {
	cfg, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	return newServer(ctx, cfg, controller, metricsHandler), nil
}

func newServer(ctx context.Context, cfg *config, controller Controller, metricsHandler http.Handler) *impServer {
	app := fiber.New(fiber.Config{
		AppName:               info.AppName,
		DisableStartupMessage: cfg.DisableStartupMessage,
	})

	log := logger.FromContext(ctx).WithName(loggerName)
	app.Use(logger.RequestMiddlewareLogger(log, []string{"/-/healthz", "/-/ready", "/-/metrics"}))

	statusRoutes(app, info.AppName, info.Version)
	syncRoutes(app, context.WithoutCancel(ctx), controller)
	if metricsHandler != nil {
		app.Get("/-/metrics", adaptor.HTTPHandler(metricsHandler))
	}

	return &impServer{
		app:    app,
		config: *cfg,
	}
}

func (s *impServer) Start() error {
	if err := s.app.Listen(net.JoinHostPort(s.HTTPHost, strconv.Itoa(s.HTTPPort))); err != nil {
		return fmt.Errorf("%w: %w", ErrServerListen, err)
	}
	return nil
}

func (s *impServer) Stop() error {
	if err := s.app.Shutdown(); err != nil {
		return fmt.Errorf("%w: %w", ErrServerShutdown, err)
	}
	return nil
}
