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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/vuebridge/services/vuels/renderer"
)

func debugGet(t *testing.T, d *DebugServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	d.http.Handler.ServeHTTP(w, req)
	return w
}

func TestDebugServer_Health(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	d := NewDebugServer(s, "127.0.0.1:0")

	w := debugGet(t, d, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}
}

func TestDebugServer_GraphStats(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	d := NewDebugServer(s, "127.0.0.1:0")

	w := debugGet(t, d, "/v1/vuels/debug/graph")
	if w.Code != http.StatusOK {
		t.Fatalf("graph status = %d, body %s", w.Code, w.Body)
	}
	var stats renderer.GraphStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	// App.vue, HelloWorld.vue, base.ts plus framework imports.
	if stats.Components != 2 {
		t.Errorf("components = %d, want 2", stats.Components)
	}
	if stats.Edges == 0 {
		t.Error("no edges in graph stats")
	}
}

func TestDebugServer_NodeStats(t *testing.T) {
	s, _, _, root := newTestServer(t)
	d := NewDebugServer(s, "127.0.0.1:0")
	appPath := filepath.Join(root, "src", "App.vue")

	w := debugGet(t, d, "/v1/vuels/debug/node?path="+url.QueryEscape(appPath))
	if w.Code != http.StatusOK {
		t.Fatalf("node status = %d, body %s", w.Code, w.Body)
	}
	var stats renderer.NodeStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Kind != "component" {
		t.Errorf("node kind = %q", stats.Kind)
	}

	if w := debugGet(t, d, "/v1/vuels/debug/node"); w.Code != http.StatusBadRequest {
		t.Errorf("missing path status = %d", w.Code)
	}
	if w := debugGet(t, d, "/v1/vuels/debug/node?path=/nope.vue"); w.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", w.Code)
	}
}

func TestDebugServer_Projection(t *testing.T) {
	s, _, _, root := newTestServer(t)
	d := NewDebugServer(s, "127.0.0.1:0")
	appPath := filepath.Join(root, "src", "App.vue")

	w := debugGet(t, d, "/v1/vuels/debug/projection?path="+url.QueryEscape(appPath))
	if w.Code != http.StatusOK {
		t.Fatalf("projection status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "class App extends Base") {
		t.Error("projection body missing script")
	}
}
