// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server is the editor-facing LSP surface. It owns the projection
// renderer and the wrapped backend process, translating every position
// between original component files and their synthetic projections.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserv "github.com/tliron/glsp/server"

	"github.com/AleutianAI/vuebridge/services/vuels/backend"
	"github.com/AleutianAI/vuebridge/services/vuels/config"
	"github.com/AleutianAI/vuebridge/services/vuels/renderer"
)

// Version is reported to the editor in the initialize result.
const Version = "0.1.0"

// Backend is the request surface the server forwards translated traffic to.
// *backend.Client implements it; tests substitute an in-process fake.
type Backend interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
	Notify(ctx context.Context, method string, params any) error
}

// BackendFactory builds the backend client once the workspace is known.
type BackendFactory func(executable, workspace string, onNotify backend.NotificationHandler) Backend

// Option configures a Server instance.
type Option func(*Server)

// WithBackendFactory replaces how the backend client is constructed.
func WithBackendFactory(f BackendFactory) Option {
	return func(s *Server) {
		if f != nil {
			s.backendFactory = f
		}
	}
}

// WithRendererOptions passes extra options to the renderer built on
// initialize.
func WithRendererOptions(opts ...renderer.Option) Option {
	return func(s *Server) {
		s.rendOpts = append(s.rendOpts, opts...)
	}
}

// openDoc tracks one editor-open source file and the projection text last
// sent to the backend. Projection deltas are translated against that text.
type openDoc struct {
	content    string
	version    int32
	projection string
}

// Server bridges the editor to the wrapped backend.
//
// Description:
//
//	The renderer and relationship graph serialize their own mutations; the
//	server lock only guards the open-document table and backend handle.
//	Handlers translate under these locks, release them, and only then await
//	the backend, so a stalled backend request never blocks unrelated edits.
type Server struct {
	cfg            *config.Config
	handler        *protocol.Handler
	backendFactory BackendFactory
	rendOpts       []renderer.Option

	mu     sync.Mutex
	docs   map[string]*openDoc
	rend   *renderer.Renderer
	back   Backend
	notify glsp.NotifyFunc

	watchCancel context.CancelFunc
}

// NewServer creates the LSP server. The renderer and backend are built on
// the initialize request, once the workspace root is known.
func NewServer(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:  cfg,
		docs: make(map[string]*openDoc),
		backendFactory: func(executable, workspace string, onNotify backend.NotificationHandler) Backend {
			return backend.NewClient(executable, workspace,
				backend.WithNotificationHandler(onNotify),
				backend.WithShutdownTimeout(cfg.BackendShutdownTimeout()))
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handler = &protocol.Handler{
		Initialize:                 s.initialize,
		Initialized:                s.initialized,
		Shutdown:                   s.shutdown,
		SetTrace:                   s.setTrace,
		TextDocumentDidOpen:        s.textDocumentDidOpen,
		TextDocumentDidChange:      s.textDocumentDidChange,
		TextDocumentDidSave:        s.textDocumentDidSave,
		TextDocumentDidClose:       s.textDocumentDidClose,
		TextDocumentHover:          s.textDocumentHover,
		TextDocumentCompletion:     s.textDocumentCompletion,
		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentReferences:     s.textDocumentReferences,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
	}
	return s
}

// Run serves LSP over stdio until the editor disconnects.
func (s *Server) Run() error {
	srv := glspserv.NewServer(s.handler, "vuebridge", false)
	return srv.RunStdio()
}

// Renderer returns the projection renderer, or nil before initialize. The
// debug HTTP endpoints read from it.
func (s *Server) Renderer() *renderer.Renderer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rend
}

func (s *Server) initialize(glspCtx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	root := workspaceRoot(params)
	if root == "" {
		return nil, fmt.Errorf("initialize: no workspace root")
	}

	ctx := context.Background()
	ctx, span := startRequestSpan(ctx, "server.initialize")
	defer span.End()

	rend := renderer.New(root, s.rendOpts...)
	if err := rend.Init(ctx); err != nil {
		return nil, fmt.Errorf("initialize projection: %w", err)
	}

	executable, err := backend.Locate(s.cfg.BackendExecutable)
	if err != nil {
		return nil, err
	}
	back := s.backendFactory(executable, rend.TargetRoot(), s.onBackendNotification)
	if err := back.Start(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.rend = rend
	s.back = back
	s.notify = glspCtx.Notify
	s.mu.Unlock()

	if s.cfg.Watch {
		watchCtx, cancel := context.WithCancel(context.Background())
		s.watchCancel = cancel
		go func() {
			if err := rend.Watch(watchCtx); err != nil {
				slog.Warn("project watch stopped", slog.Any("error", err))
			}
		}()
	}

	capabilities := s.handler.CreateServerCapabilities()
	openClose := true
	change := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &change,
		Save:      true,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", ":", "<", "\"", "'", "/", "@"},
	}

	version := Version
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    "vuebridge",
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(glspCtx *glsp.Context, _ *protocol.InitializedParams) error {
	s.mu.Lock()
	s.notify = glspCtx.Notify
	s.mu.Unlock()
	return nil
}

func (s *Server) shutdown(*glsp.Context) error {
	if s.watchCancel != nil {
		s.watchCancel()
	}
	back := s.currentBackend()
	if back != nil {
		if err := back.Stop(context.Background()); err != nil {
			slog.Warn("backend stop failed", slog.Any("error", err))
		}
	}
	return nil
}

func (s *Server) setTrace(*glsp.Context, *protocol.SetTraceParams) error {
	return nil
}

func (s *Server) currentBackend() Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.back
}

// workspaceRoot extracts the project root from the initialize params,
// preferring workspace folders over the deprecated root fields.
func workspaceRoot(params *protocol.InitializeParams) string {
	if len(params.WorkspaceFolders) > 0 {
		return uriToPath(params.WorkspaceFolders[0].URI)
	}
	if params.RootURI != nil && *params.RootURI != "" {
		return uriToPath(*params.RootURI)
	}
	if params.RootPath != nil && *params.RootPath != "" {
		return *params.RootPath
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return ""
}
