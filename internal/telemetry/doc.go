// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package telemetry provides the OpenTelemetry instruments recorded by the auto sync runner
// and a meter provider exporting them in the Prometheus text format.
package telemetry
