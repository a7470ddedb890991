// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package fake

import (
	"sync"
	"testing"

	"github.com/mia-platform/erpsync/internal/server"
)

var _ server.Server = &Server{}

// Server is a server.Server that only records its lifecycle.
type Server struct {
	tb testing.TB

	// StartError is returned by Start when set.
	StartError error

	startedChan chan struct{}
	closedChan  chan struct{}
	startOnce   sync.Once
	closeOnce   sync.Once
}

func NewFakeServer(tb testing.TB) *Server {
	tb.Helper()

	return &Server{
		tb:          tb,
		startedChan: make(chan struct{}),
		closedChan:  make(chan struct{}),
	}
}

func (s *Server) Start() error {
	s.tb.Helper()
	s.startOnce.Do(func() { close(s.startedChan) })
	if s.StartError != nil {
		return s.StartError
	}

	<-s.closedChan
	return nil
}

func (s *Server) Stop() error {
	s.tb.Helper()
	s.closeOnce.Do(func() { close(s.closedChan) })
	return nil
}

func (s *Server) StartedServer() <-chan struct{} {
	s.tb.Helper()
	return s.startedChan
}

func (s *Server) StoppedServer() <-chan struct{} {
	s.tb.Helper()
	return s.closedChan
}
