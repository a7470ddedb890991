// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package server

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/mia-platform/erpsync/internal/autosync"
)

type statusResponse struct {
	Status  string `json:"status"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type syncStatusResponse struct {
	Running   bool                   `json:"running"`
	Targets   []string               `json:"targets"`
	Limit     int                    `json:"limit"`
	LastCycle *autosync.CycleSummary `json:"lastCycle"`
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

func statusRoutes(app *fiber.App, serviceName, version string) {
	handler := func(ctx *fiber.Ctx) error {
		return ctx.JSON(statusResponse{
			Status:  "OK",
			Name:    serviceName,
			Version: version,
		})
	}

	app.Get("/-/healthz", handler)
	app.Get("/-/ready", handler)
}

func syncRoutes(app *fiber.App, cycleCtx context.Context, controller Controller) {
	app.Get("/-/status", func(ctx *fiber.Ctx) error {
		return ctx.JSON(syncStatusResponse{
			Running:   controller.Running(),
			Targets:   controller.Targets(),
			Limit:     controller.Limit(),
			LastCycle: controller.LastCycle(),
		})
	})

	app.Post("/-/sync", func(ctx *fiber.Ctx) error {
		if !controller.Trigger(cycleCtx) {
			return ctx.Status(http.StatusConflict).JSON(errorResponse{
				StatusCode: http.StatusConflict,
				Error:      http.StatusText(http.StatusConflict),
				Message:    "a sync cycle is already running",
			})
		}

		return ctx.Status(http.StatusAccepted).JSON(fiber.Map{
			"message": "sync cycle started",
		})
	})
}
