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
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/AleutianAI/vuebridge/services/vuels/renderer"
)

// isProjectSource reports whether the server tracks this file kind.
func isProjectSource(path string) bool {
	return strings.HasSuffix(path, ".vue") || strings.HasSuffix(path, ".ts")
}

func (s *Server) textDocumentDidOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path := uriToPath(params.TextDocument.URI)
	if !isProjectSource(path) {
		return nil
	}

	ctx := context.Background()
	s.mu.Lock()
	rend, back := s.rend, s.back
	s.mu.Unlock()
	if rend == nil {
		return nil
	}

	outcome, err := rend.SetContent(ctx, path, params.TextDocument.Text)
	if err != nil {
		slog.Warn("open rebuild failed", slog.String("file", path), slog.Any("error", err))
		return nil
	}
	projection := outcome.Self.Full

	s.mu.Lock()
	s.docs[path] = &openDoc{
		content:    params.TextDocument.Text,
		version:    params.TextDocument.Version,
		projection: projection,
	}
	s.mu.Unlock()

	if back != nil {
		err := back.Notify(ctx, "textDocument/didOpen", map[string]any{
			"textDocument": map[string]any{
				"uri":        pathToURI(rend.TargetPath(path)),
				"languageId": "typescript",
				"version":    params.TextDocument.Version,
				"text":       projection,
			},
		})
		if err != nil {
			slog.Warn("backend didOpen failed", slog.String("file", path), slog.Any("error", err))
		}
	}

	s.forwardDependents(ctx, rend, back, outcome.Dependents)
	return nil
}

func (s *Server) textDocumentDidChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path := uriToPath(params.TextDocument.URI)

	ctx := context.Background()
	ctx, span := startRequestSpan(ctx, "server.didChange")
	defer span.End()

	s.mu.Lock()
	rend, back := s.rend, s.back
	doc := s.docs[path]
	if rend == nil || doc == nil {
		s.mu.Unlock()
		return nil
	}

	// Edits are applied to the tracked source text in receipt order; each
	// range is interpreted against the text after the preceding edits, per
	// the protocol.
	var edits []renderer.Edit
	forceFull := false
	for _, change := range params.ContentChanges {
		switch ev := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			doc.content = ev.Text
			forceFull = true
		case *protocol.TextDocumentContentChangeEventWhole:
			doc.content = ev.Text
			forceFull = true
		case protocol.TextDocumentContentChangeEvent:
			edits = appendChange(edits, doc, ev, forceFull)
		case *protocol.TextDocumentContentChangeEvent:
			edits = appendChange(edits, doc, *ev, forceFull)
		}
	}
	doc.version = params.TextDocument.Version
	content := doc.content
	s.mu.Unlock()

	var outcome *renderer.UpdateOutcome
	var err error
	if forceFull {
		outcome, err = rend.SetContent(ctx, path, content)
	} else {
		outcome, err = rend.Update(ctx, path, edits)
		if errors.Is(err, renderer.ErrUnknownFile) {
			outcome, err = rend.SetContent(ctx, path, content)
		}
	}
	if err != nil {
		slog.Warn("update failed", slog.String("file", path), slog.Any("error", err))
		return nil
	}

	changes := s.projectionChanges(path, outcome.Self)
	if back != nil && len(changes) > 0 {
		err := back.Notify(ctx, "textDocument/didChange", map[string]any{
			"textDocument": map[string]any{
				"uri":     pathToURI(rend.TargetPath(path)),
				"version": params.TextDocument.Version,
			},
			"contentChanges": changes,
		})
		if err != nil {
			slog.Warn("backend didChange failed", slog.String("file", path), slog.Any("error", err))
		}
	}

	s.forwardDependents(ctx, rend, back, outcome.Dependents)
	return nil
}

// appendChange converts one incremental LSP change into a byte-offset edit
// and applies it to the tracked source. Changes after a whole-document
// replacement only adjust the tracked text; the renderer gets the full text.
func appendChange(edits []renderer.Edit, doc *openDoc, ev protocol.TextDocumentContentChangeEvent, afterWhole bool) []renderer.Edit {
	if ev.Range == nil {
		doc.content = ev.Text
		return edits
	}
	start := offsetAt(doc.content, ev.Range.Start)
	end := offsetAt(doc.content, ev.Range.End)
	doc.content = doc.content[:start] + ev.Text + doc.content[end:]
	if afterWhole {
		return edits
	}
	return append(edits, renderer.Edit{Start: start, End: end, Text: ev.Text})
}

// projectionChanges converts a projection update into backend content
// changes, replaying deltas against the projection text last sent so the
// emitted ranges are valid on the backend's copy.
func (s *Server) projectionChanges(path string, pu renderer.ProjectionUpdate) []any {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.docs[path]
	if doc == nil {
		return nil
	}

	if pu.FullChange {
		doc.projection = pu.Full
		return []any{map[string]any{"text": pu.Full}}
	}

	var changes []any
	proj := doc.projection
	for _, d := range pu.Deltas {
		changes = append(changes, map[string]any{
			"range": protocol.Range{
				Start: positionAt(proj, d.Start),
				End:   positionAt(proj, d.End),
			},
			"text": d.Text,
		})
		proj = proj[:d.Start] + d.Text + proj[d.End:]
	}
	doc.projection = proj
	return changes
}

// forwardDependents pushes full re-renders of dependent components to the
// backend. Open dependents go over the wire; closed ones are refreshed on
// disk so the backend's next read sees current text.
func (s *Server) forwardDependents(ctx context.Context, rend *renderer.Renderer, back Backend, deps []renderer.ProjectionUpdate) {
	for _, dep := range deps {
		s.mu.Lock()
		doc := s.docs[dep.SourcePath]
		if doc != nil {
			doc.projection = dep.Full
		}
		version := dep.Version
		s.mu.Unlock()

		if doc == nil {
			if err := rend.Save(dep.SourcePath); err != nil {
				slog.Warn("dependent refresh failed",
					slog.String("file", dep.SourcePath), slog.Any("error", err))
			}
			continue
		}
		if back == nil {
			continue
		}
		err := back.Notify(ctx, "textDocument/didChange", map[string]any{
			"textDocument": map[string]any{
				"uri":     pathToURI(dep.TargetPath),
				"version": version,
			},
			"contentChanges": []any{map[string]any{"text": dep.Full}},
		})
		if err != nil {
			slog.Warn("backend dependent didChange failed",
				slog.String("file", dep.SourcePath), slog.Any("error", err))
		}
	}
}

func (s *Server) textDocumentDidSave(_ *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path := uriToPath(params.TextDocument.URI)

	ctx := context.Background()
	s.mu.Lock()
	rend, back := s.rend, s.back
	doc := s.docs[path]
	var content string
	var version int32
	if doc != nil {
		content = doc.content
		version = doc.version
	}
	s.mu.Unlock()
	if rend == nil {
		return nil
	}

	// A save rebuilds from scratch, repairing any drift an earlier failed
	// incremental update left behind.
	if doc != nil {
		outcome, err := rend.SetContent(ctx, path, content)
		if err != nil {
			slog.Warn("save rebuild failed", slog.String("file", path), slog.Any("error", err))
		} else {
			changes := s.projectionChanges(path, outcome.Self)
			if back != nil && len(changes) > 0 {
				err := back.Notify(ctx, "textDocument/didChange", map[string]any{
					"textDocument": map[string]any{
						"uri":     pathToURI(rend.TargetPath(path)),
						"version": version,
					},
					"contentChanges": changes,
				})
				if err != nil {
					slog.Warn("backend save didChange failed", slog.String("file", path), slog.Any("error", err))
				}
			}
			s.forwardDependents(ctx, rend, back, outcome.Dependents)
		}
	}
	if err := rend.Save(path); err != nil {
		slog.Warn("save projection failed", slog.String("file", path), slog.Any("error", err))
	}
	if back != nil {
		err := back.Notify(ctx, "textDocument/didSave", map[string]any{
			"textDocument": map[string]any{"uri": pathToURI(rend.TargetPath(path))},
		})
		if err != nil {
			slog.Warn("backend didSave failed", slog.String("file", path), slog.Any("error", err))
		}
	}
	return nil
}

func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path := uriToPath(params.TextDocument.URI)

	s.mu.Lock()
	delete(s.docs, path)
	rend, back := s.rend, s.back
	s.mu.Unlock()

	if rend != nil && back != nil {
		err := back.Notify(context.Background(), "textDocument/didClose", map[string]any{
			"textDocument": map[string]any{"uri": pathToURI(rend.TargetPath(path))},
		})
		if err != nil {
			slog.Warn("backend didClose failed", slog.String("file", path), slog.Any("error", err))
		}
	}
	return nil
}
