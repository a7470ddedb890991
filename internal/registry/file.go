// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrParsing reports failures that occur while decoding a connectors file.
	ErrParsing = errors.New("error parsing")
)

// connectorsDocument is a single YAML document of a connectors file.
type connectorsDocument struct {
	Connectors []connectorEntry `yaml:"connectors"`
}

type connectorEntry struct {
	ID       string `yaml:"id"`
	Status   string `yaml:"status"`
	AutoSync *bool  `yaml:"autoSync,omitempty"`
}

var _ Registry = &File{}

// File reads connectors from a YAML file. The file is read again on every listing so
// that edits are picked up by the next cycle.
type File struct {
	path string
}

// NewFile returns a Registry reading the connectors file at path.
func NewFile(path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("connectors file %q: %w", path, unwrappedError(err))
	}

	return &File{path: path}, nil
}

// ListConnectors implements Registry. Entries without autoSync are never eligible.
func (f *File) ListConnectors(ctx context.Context) ([]Connector, error) {
	return f.read(ctx)
}

// ListConnectorsWithoutAutoSync implements Registry.
func (f *File) ListConnectorsWithoutAutoSync(ctx context.Context) ([]Connector, error) {
	connectors, err := f.read(ctx)
	if err != nil {
		return nil, err
	}

	for i := range connectors {
		connectors[i].AutoSync = nil
	}
	return connectors, nil
}

func (f *File) read(ctx context.Context) ([]Connector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return decodeConnectors(file, f.path)
}

// decodeConnectors parses every YAML document in reader and returns the connectors in file order.
func decodeConnectors(reader io.Reader, path string) ([]Connector, error) {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	connectors := make([]Connector, 0)
	seen := make(map[string]struct{})
	for {
		document := new(connectorsDocument)
		if err := decoder.Decode(document); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, fmt.Errorf("%w %q: %w", ErrParsing, path, err)
		}

		for index, entry := range document.Connectors {
			id := strings.TrimSpace(entry.ID)
			if id == "" {
				return nil, fmt.Errorf("%w %q: connector at position %d: missing required field: id", ErrParsing, path, index)
			}
			if _, ok := seen[id]; ok {
				return nil, fmt.Errorf("%w %q: duplicated connector id %q", ErrParsing, path, id)
			}
			seen[id] = struct{}{}

			connectors = append(connectors, Connector{
				ID:       id,
				Status:   entry.Status,
				AutoSync: entry.AutoSync,
			})
		}
	}

	return connectors, nil
}

// unwrappedError returns the unwrapped error if available, otherwise it returns the original error.
func unwrappedError(err error) error {
	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		return unwrapped
	}

	return err
}
