// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package registry provides read-only access to the ERP connectors known to the
// warehouse application. Connectors can be read from the erp_connectors Postgres
// table or from a local YAML file.
package registry
