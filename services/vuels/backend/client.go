// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package backend manages the wrapped TypeScript language server process.
// It spawns the backend executable, speaks JSON-RPC 2.0 over its stdio with
// Content-Length framing, and exposes a raw request/notification surface the
// editor-facing layer forwards translated traffic through.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"
)

// DefaultShutdownTimeout bounds the graceful shutdown handshake on Stop.
const DefaultShutdownTimeout = 3 * time.Second

var (
	// ErrNotRunning is returned when a request is made before Start or
	// after the backend process has gone away.
	ErrNotRunning = errors.New("backend not running")

	// ErrAlreadyRunning is returned by Start when the backend is up.
	ErrAlreadyRunning = errors.New("backend already running")
)

// NotificationHandler receives server-initiated notifications, most
// importantly textDocument/publishDiagnostics. It is invoked from the
// connection's read loop; implementations must not block on a backend
// request from inside it.
type NotificationHandler func(ctx context.Context, method string, params json.RawMessage)

// ClientOption configures a Client instance.
type ClientOption func(*Client)

// WithNotificationHandler sets the callback for backend notifications.
// Without one, notifications are logged at debug level and dropped.
func WithNotificationHandler(fn NotificationHandler) ClientOption {
	return func(c *Client) {
		c.onNotify = fn
	}
}

// WithStderr redirects the backend process stderr. The default passes it
// through to this process's stderr.
func WithStderr(w io.Writer) ClientOption {
	return func(c *Client) {
		if w != nil {
			c.stderr = w
		}
	}
}

// WithShutdownTimeout overrides DefaultShutdownTimeout.
func WithShutdownTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// Client owns a single backend language server process and its JSON-RPC
// connection.
//
// Thread Safety:
//
//	All methods are safe for concurrent use. Requests in flight are
//	correlated by the underlying connection, so callers never hold the
//	client lock while awaiting a response.
type Client struct {
	path            string
	workspace       string
	onNotify        NotificationHandler
	stderr          io.Writer
	shutdownTimeout time.Duration

	mu   sync.Mutex
	cmd  *exec.Cmd
	conn *jsonrpc2.Conn
}

// NewClient creates a client for the backend executable at path, serving the
// project rooted at workspace. The process is not spawned until Start.
func NewClient(path, workspace string, opts ...ClientOption) *Client {
	c := &Client{
		path:            path,
		workspace:       workspace,
		stderr:          os.Stderr,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Running reports whether the backend connection is up.
func (c *Client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// PID returns the backend process id, or 0 when not running.
func (c *Client) PID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd != nil && c.cmd.Process != nil {
		return c.cmd.Process.Pid
	}
	return 0
}

// Start spawns the backend process and performs the initialize handshake.
//
// Description:
//
//	The process is started with the workspace as its working directory and
//	wired up over stdio before the initialize request is sent, so early
//	server notifications are not lost. A failed handshake kills the
//	process and leaves the client stopped.
func (c *Client) Start(ctx context.Context) error {
	ctx, span := startLifecycleSpan(ctx, "backend.Start", c.path)
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return ErrAlreadyRunning
	}

	cmd := exec.Command(c.path)
	cmd.Dir = c.workspace
	cmd.Stderr = c.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("backend stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("backend stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start backend %s: %w", c.path, err)
	}

	c.cmd = cmd
	c.attach(stdioPipe{stdin: stdin, stdout: stdout})

	if err := c.initialize(ctx); err != nil {
		_ = c.conn.Close()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		c.conn = nil
		c.cmd = nil
		return fmt.Errorf("backend initialize: %w", err)
	}

	slog.Info("backend started",
		slog.String("path", c.path),
		slog.Int("pid", cmd.Process.Pid),
		slog.String("workspace", c.workspace))
	return nil
}

// attach builds the JSON-RPC connection over rwc. The connection context is
// detached from the Start context so it outlives the handshake.
func (c *Client) attach(rwc io.ReadWriteCloser) {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	c.conn = jsonrpc2.NewConn(context.Background(), stream,
		jsonrpc2.AsyncHandler(jsonrpc2.HandlerWithError(c.handle)))
}

// Stop performs the shutdown/exit handshake and reaps the process, killing
// it if it does not exit within the shutdown timeout.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	cmd := c.cmd
	c.conn = nil
	c.cmd = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, c.shutdownTimeout)
	defer cancel()

	if err := conn.Call(shutdownCtx, "shutdown", nil, nil); err != nil {
		slog.Warn("backend shutdown request failed", slog.Any("error", err))
	}
	_ = conn.Notify(shutdownCtx, "exit", nil)
	_ = conn.Close()

	if cmd != nil && cmd.Process != nil {
		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			slog.Warn("backend did not exit, killing", slog.Int("pid", cmd.Process.Pid))
			_ = cmd.Process.Kill()
			<-done
		}
	}

	slog.Info("backend stopped", slog.String("path", c.path))
	return nil
}

// Call forwards a request to the backend and returns its raw result.
//
// Description:
//
//	The caller supplies already-translated params; the raw result is handed
//	back for the caller to translate. Backend protocol errors, including
//	method-not-found for requests the backend does not implement, come back
//	as *jsonrpc2.Error values.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	conn := c.current()
	if conn == nil {
		return nil, ErrNotRunning
	}

	start := time.Now()
	var result json.RawMessage
	err := conn.Call(ctx, method, params, &result)
	recordRequestMetrics(ctx, method, time.Since(start), err == nil)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", method, err)
	}
	return result, nil
}

// Notify forwards a notification to the backend.
func (c *Client) Notify(ctx context.Context, method string, params any) error {
	conn := c.current()
	if conn == nil {
		return ErrNotRunning
	}
	if err := conn.Notify(ctx, method, params); err != nil {
		return fmt.Errorf("backend notify %s: %w", method, err)
	}
	return nil
}

// DisconnectNotify returns a channel closed when the backend connection
// drops, or nil when not running.
func (c *Client) DisconnectNotify() <-chan struct{} {
	conn := c.current()
	if conn == nil {
		return nil
	}
	return conn.DisconnectNotify()
}

func (c *Client) current() *jsonrpc2.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// initialize performs the initialize/initialized handshake. Callers hold the
// client lock; the connection does its own request correlation so the call
// itself does not need it.
func (c *Client) initialize(ctx context.Context) error {
	params := map[string]any{
		"processId": os.Getpid(),
		"rootUri":   "file://" + c.workspace,
		"capabilities": map[string]any{
			"textDocument": map[string]any{
				"publishDiagnostics": map[string]any{},
				"hover":              map[string]any{},
				"completion":         map[string]any{},
				"definition":         map[string]any{},
				"references":         map[string]any{},
				"documentSymbol":     map[string]any{},
			},
		},
	}

	var result json.RawMessage
	if err := c.conn.Call(ctx, "initialize", params, &result); err != nil {
		return fmt.Errorf("initialize request: %w", err)
	}
	if err := c.conn.Notify(ctx, "initialized", map[string]any{}); err != nil {
		return fmt.Errorf("initialized notification: %w", err)
	}
	return nil
}

// handle dispatches traffic initiated by the backend. Notifications go to
// the registered handler; reverse requests are refused with method-not-found
// since this proxy registers no dynamic capabilities.
func (c *Client) handle(ctx context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	var params json.RawMessage
	if req.Params != nil {
		params = *req.Params
	}

	if req.Notif {
		if c.onNotify != nil {
			c.onNotify(ctx, req.Method, params)
		} else {
			slog.Debug("backend notification dropped", slog.String("method", req.Method))
		}
		return nil, nil
	}

	return nil, &jsonrpc2.Error{
		Code:    jsonrpc2.CodeMethodNotFound,
		Message: fmt.Sprintf("method not supported: %s", req.Method),
	}
}

// stdioPipe joins the child's stdin writer and stdout reader into one
// stream for the JSON-RPC connection.
type stdioPipe struct {
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (p stdioPipe) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p stdioPipe) Write(b []byte) (int, error) { return p.stdin.Write(b) }

func (p stdioPipe) Close() error {
	_ = p.stdin.Close()
	return p.stdout.Close()
}
