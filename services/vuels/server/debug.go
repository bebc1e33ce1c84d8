// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// DefaultDebugShutdownTimeout bounds graceful shutdown of the debug
// HTTP listener.
const DefaultDebugShutdownTimeout = 2 * time.Second

// ErrorResponse is the JSON error body for debug endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// DebugServer serves introspection endpoints over HTTP while the language
// server runs on stdio. It is optional and off unless an address is
// configured.
type DebugServer struct {
	srv  *Server
	http *http.Server
}

// NewDebugServer builds the debug router for a running language server.
//
// Endpoints:
//
//	GET /healthz - liveness probe
//	GET /v1/vuels/debug/graph - relationship graph statistics
//	GET /v1/vuels/debug/node?path= - one node with its edges and dependents
//	GET /v1/vuels/debug/projection?path= - current projection text
//
// Thread Safety: handlers read renderer state through its own lock and are
// safe for concurrent use.
func NewDebugServer(srv *Server, addr string) *DebugServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("vuebridge"))

	d := &DebugServer{
		srv:  srv,
		http: &http.Server{Addr: addr, Handler: router},
	}

	router.GET("/healthz", d.handleHealth)
	debug := router.Group("/v1/vuels/debug")
	debug.GET("/graph", d.handleGraphStats)
	debug.GET("/node", d.handleNodeStats)
	debug.GET("/projection", d.handleProjection)

	return d
}

// Start begins serving in a background goroutine.
func (d *DebugServer) Start() {
	go func() {
		slog.Info("debug endpoint listening", "addr", d.http.Addr)
		if err := d.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("debug endpoint failed", "error", err)
		}
	}()
}

// Stop shuts the listener down gracefully.
func (d *DebugServer) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultDebugShutdownTimeout)
	defer cancel()
	return d.http.Shutdown(ctx)
}

func (d *DebugServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (d *DebugServer) handleGraphStats(c *gin.Context) {
	rend := d.srv.Renderer()
	if rend == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "language server not initialized",
			Code:  "NOT_INITIALIZED",
		})
		return
	}
	c.JSON(http.StatusOK, rend.Stats())
}

func (d *DebugServer) handleNodeStats(c *gin.Context) {
	rend := d.srv.Renderer()
	if rend == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "language server not initialized",
			Code:  "NOT_INITIALIZED",
		})
		return
	}
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "path parameter is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}
	stats, ok := rend.NodeStats(path)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "file not tracked",
			Code:  "NODE_NOT_FOUND",
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (d *DebugServer) handleProjection(c *gin.Context) {
	rend := d.srv.Renderer()
	if rend == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "language server not initialized",
			Code:  "NOT_INITIALIZED",
		})
		return
	}
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "path parameter is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}
	text, ok := rend.Render(path)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "file not tracked",
			Code:  "NODE_NOT_FOUND",
		})
		return
	}
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, text)
}
