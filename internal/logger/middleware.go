// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	requestIDHeaderName    = "x-request-id"
	forwardedHostHeaderKey = "x-forwarded-host"
	forwardedForHeaderKey  = "x-forwarded-for"

	IncomingRequestMessage  = "incoming request"
	RequestCompletedMessage = "request completed"
)

type httpFields struct {
	Method     string `json:"method,omitempty"`
	UserAgent  string `json:"userAgent,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Bytes      int    `json:"bytes,omitempty"`
}

type hostFields struct {
	Hostname      string `json:"hostname,omitempty"`
	ForwardedHost string `json:"forwardedHost,omitempty"`
	IP            string `json:"ip,omitempty"`
}

// RequestMiddlewareLogger logs every request served by the status server, skipping paths starting
// with one of excludedPrefix. The request id is read from x-request-id or generated, echoed back in
// the response and attached to the logger stored in the request user context.
func RequestMiddlewareLogger(logger Logger, excludedPrefix []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, prefix := range excludedPrefix {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		start := time.Now()
		requestID := c.Get(requestIDHeaderName)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDHeaderName, requestID)

		log := logger.With("reqId", requestID)
		c.SetUserContext(WithContext(c.UserContext(), log))

		host := hostFields{
			Hostname:      strings.Split(c.Hostname(), ":")[0],
			ForwardedHost: c.Get(forwardedHostHeaderKey),
			IP:            c.Get(forwardedForHeaderKey),
		}
		log.Trace(IncomingRequestMessage,
			"http", httpFields{Method: c.Method(), UserAgent: c.Get(fiber.HeaderUserAgent)},
			"url", path,
			"host", host,
		)

		err := c.Next()

		statusCode, size := c.Response().StatusCode(), len(c.Response().Body())
		if fiberErr := (*fiber.Error)(nil); errors.As(err, &fiberErr) {
			statusCode, size = fiberErr.Code, len(fiberErr.Message)
		}
		log.Info(RequestCompletedMessage,
			"http", httpFields{
				Method:     c.Method(),
				UserAgent:  c.Get(fiber.HeaderUserAgent),
				StatusCode: statusCode,
				Bytes:      size,
			},
			"url", path,
			"host", host,
			"responseTime", float64(time.Since(start).Milliseconds()),
		)
		return err
	}
}
