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
	"encoding/json"
	"log/slog"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/AleutianAI/vuebridge/services/vuels/renderer"
)

const methodPublishDiagnostics = "textDocument/publishDiagnostics"

// backendDiagnostic keeps every field the backend sent and lets us rewrite
// just the range.
type backendDiagnostic struct {
	Range protocol.Range `json:"range"`
	Extra map[string]json.RawMessage
}

func (d *backendDiagnostic) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &d.Extra); err != nil {
		return err
	}
	if raw, ok := d.Extra["range"]; ok {
		if err := json.Unmarshal(raw, &d.Range); err != nil {
			return err
		}
	}
	return nil
}

func (d backendDiagnostic) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Extra))
	for k, v := range d.Extra {
		out[k] = v
	}
	rng, err := json.Marshal(d.Range)
	if err != nil {
		return nil, err
	}
	out["range"] = rng
	return json.Marshal(out)
}

// onBackendNotification forwards backend-initiated notifications to the
// editor, translating diagnostic coordinates out of projection space.
// Notifications arriving before the editor connection is captured are
// dropped.
func (s *Server) onBackendNotification(_ context.Context, method string, params json.RawMessage) {
	s.mu.Lock()
	rend := s.rend
	notify := s.notify
	s.mu.Unlock()
	if notify == nil {
		slog.Debug("dropping backend notification before initialized", "method", method)
		return
	}

	if method != methodPublishDiagnostics {
		var generic any
		if err := json.Unmarshal(params, &generic); err != nil {
			slog.Warn("undecodable backend notification", "method", method, "error", err)
			return
		}
		notify(method, generic)
		return
	}

	var incoming struct {
		URI         string              `json:"uri"`
		Version     *uint32             `json:"version,omitempty"`
		Diagnostics []backendDiagnostic `json:"diagnostics"`
	}
	if err := json.Unmarshal(params, &incoming); err != nil {
		slog.Warn("undecodable diagnostics notification", "error", err)
		return
	}

	origPath, uri, diags := s.translateDiagnostics(rend, incoming.URI, incoming.Diagnostics)
	if origPath == "" {
		return
	}

	out := map[string]any{"uri": uri, "diagnostics": diags}
	if incoming.Version != nil {
		out["version"] = *incoming.Version
	}
	notify(methodPublishDiagnostics, out)
}

// translateDiagnostics rewrites projection-space diagnostics onto the
// original file. Diagnostics anchored entirely in synthesized text are
// dropped; their cause is invisible in the editor.
func (s *Server) translateDiagnostics(rend *renderer.Renderer, uri string, diags []backendDiagnostic) (string, string, []backendDiagnostic) {
	path := uriToPath(uri)
	orig, ok := rend.OriginalPath(path)
	if !ok {
		// Not one of ours, e.g. node_modules typing errors. Pass through.
		return path, uri, diags
	}

	out := make([]backendDiagnostic, 0, len(diags))
	for _, d := range diags {
		rng, ok := s.originalRange(rend, orig, d.Range)
		if !ok {
			continue
		}
		d.Range = rng
		out = append(out, d)
	}
	return orig, pathToURI(orig), out
}
