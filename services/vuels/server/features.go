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
	"os"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/AleutianAI/vuebridge/services/vuels/renderer"
)

// requestTarget bundles the state a feature request needs: the renderer,
// backend, and the original file's current text.
type requestTarget struct {
	rend    *renderer.Renderer
	back    Backend
	path    string
	content string
}

func (t *requestTarget) targetURI() string {
	return pathToURI(t.rend.TargetPath(t.path))
}

// requestState resolves a request URI. Returns false before initialize or
// for files the server has no text for.
func (s *Server) requestState(uri string) (*requestTarget, bool) {
	path := uriToPath(uri)

	s.mu.Lock()
	rend, back := s.rend, s.back
	doc := s.docs[path]
	s.mu.Unlock()
	if rend == nil {
		return nil, false
	}

	content := ""
	if doc != nil {
		content = doc.content
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, false
		}
		content = string(data)
	}
	return &requestTarget{rend: rend, back: back, path: path, content: content}, true
}

// sourceText returns the current text of any project file, preferring the
// editor's open copy over disk.
func (s *Server) sourceText(path string) string {
	s.mu.Lock()
	doc := s.docs[path]
	s.mu.Unlock()
	if doc != nil {
		return doc.content
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// projectedPosition maps an editor position in the original file to the
// equivalent position in the projection. False means the position has no
// projection (static template content).
func (t *requestTarget) projectedPosition(pos protocol.Position) (protocol.Position, bool) {
	off := offsetAt(t.content, pos)
	poff := off
	if strings.HasSuffix(t.path, ".vue") {
		m, ok := t.rend.MapperFor(t.path)
		if !ok {
			return protocol.Position{}, false
		}
		poff, ok = m.ProjectedOffset(off)
		if !ok {
			return protocol.Position{}, false
		}
	}
	proj, ok := t.rend.Render(t.path)
	if !ok {
		return protocol.Position{}, false
	}
	return positionAt(proj, poff), true
}

// originalRange maps a projection range of origPath back to the original
// document. False when either endpoint sits on synthesized text.
func (s *Server) originalRange(rend *renderer.Renderer, origPath string, rng protocol.Range) (protocol.Range, bool) {
	proj, ok := rend.Render(origPath)
	if !ok {
		return protocol.Range{}, false
	}
	startOff := offsetAt(proj, rng.Start)
	endOff := offsetAt(proj, rng.End)

	if strings.HasSuffix(origPath, ".vue") {
		m, ok := rend.MapperFor(origPath)
		if !ok {
			return protocol.Range{}, false
		}
		if startOff, ok = m.OriginalOffset(startOff); !ok {
			return protocol.Range{}, false
		}
		if endOff, ok = m.OriginalOffset(endOff); !ok {
			return protocol.Range{}, false
		}
	}

	src := s.sourceText(origPath)
	return protocol.Range{
		Start: positionAt(src, startOff),
		End:   positionAt(src, endOff),
	}, true
}

// translateLocation rewrites a backend location in projection space to the
// original file. Locations outside the projection directory, such as
// library declarations, pass through untouched.
func (s *Server) translateLocation(rend *renderer.Renderer, loc protocol.Location) (protocol.Location, bool) {
	path := uriToPath(loc.URI)
	orig, ok := rend.OriginalPath(path)
	if !ok {
		return loc, true
	}
	rng, ok := s.originalRange(rend, orig, loc.Range)
	if !ok {
		return protocol.Location{}, false
	}
	return protocol.Location{URI: pathToURI(orig), Range: rng}, true
}

func positionParams(uri string, pos protocol.Position) map[string]any {
	return map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     pos,
	}
}

// wordAt expands the tag-name word around a byte offset.
func wordAt(content string, off int) string {
	isWord := func(b byte) bool {
		return b == '-' || b == '_' ||
			(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
	}
	if off < 0 || off >= len(content) {
		return ""
	}
	start, end := off, off
	for start > 0 && isWord(content[start-1]) {
		start--
	}
	for end < len(content) && isWord(content[end]) {
		end++
	}
	return content[start:end]
}

func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	t, ok := s.requestState(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	ctx, span := startRequestSpan(context.Background(), "server.hover")
	defer span.End()

	off := offsetAt(t.content, params.Position)
	if strings.HasSuffix(t.path, ".vue") {
		if m, ok := t.rend.MapperFor(t.path); ok {
			if ptype, _ := m.Classify(off); ptype == renderer.PositionTemplate {
				return s.templateTagHover(t, off)
			}
		}
	}

	ppos, ok := t.projectedPosition(params.Position)
	if !ok || t.back == nil {
		return nil, nil
	}
	raw, err := t.back.Call(ctx, "textDocument/hover", positionParams(t.targetURI(), ppos))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var decoded struct {
		Contents json.RawMessage `json:"contents"`
		Range    *protocol.Range `json:"range"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	hover := &protocol.Hover{Contents: decoded.Contents}
	if decoded.Range != nil {
		if rng, ok := s.originalRange(t.rend, t.path, *decoded.Range); ok {
			hover.Range = &rng
		}
	}
	return hover, nil
}

// templateTagHover answers hover on a static template tag from the
// relationship graph instead of the backend.
func (s *Server) templateTagHover(t *requestTarget, off int) (*protocol.Hover, error) {
	tag := wordAt(t.content, off)
	if tag == "" {
		return nil, nil
	}
	meta, ok := t.rend.RegisteredComponent(t.path, tag)
	if !ok || meta.Description == "" {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: meta.Description,
		},
	}, nil
}

func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	t, ok := s.requestState(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	ctx, span := startRequestSpan(context.Background(), "server.definition")
	defer span.End()

	off := offsetAt(t.content, params.Position)
	if strings.HasSuffix(t.path, ".vue") {
		if m, ok := t.rend.MapperFor(t.path); ok {
			if ptype, _ := m.Classify(off); ptype == renderer.PositionTemplate {
				return s.templateTagDefinition(t, off)
			}
		}
	}

	ppos, ok := t.projectedPosition(params.Position)
	if !ok || t.back == nil {
		return nil, nil
	}
	raw, err := t.back.Call(ctx, "textDocument/definition", positionParams(t.targetURI(), ppos))
	if err != nil {
		return nil, err
	}

	locs, err := parseLocations(raw)
	if err != nil {
		return nil, err
	}
	var out []protocol.Location
	for _, loc := range locs {
		if translated, ok := s.translateLocation(t.rend, loc); ok {
			out = append(out, translated)
		}
	}
	return out, nil
}

// templateTagDefinition jumps from a template tag to the class name of the
// component it registers.
func (s *Server) templateTagDefinition(t *requestTarget, off int) (any, error) {
	tag := wordAt(t.content, off)
	if tag == "" {
		return nil, nil
	}
	meta, ok := t.rend.RegisteredComponent(t.path, tag)
	if !ok {
		return nil, nil
	}
	src := s.sourceText(meta.Path)
	return []protocol.Location{{
		URI: pathToURI(meta.Path),
		Range: protocol.Range{
			Start: positionAt(src, meta.Start),
			End:   positionAt(src, meta.End),
		},
	}}, nil
}

func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	t, ok := s.requestState(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	ctx, span := startRequestSpan(context.Background(), "server.references")
	defer span.End()

	ppos, ok := t.projectedPosition(params.Position)
	if !ok || t.back == nil {
		return nil, nil
	}
	reqParams := positionParams(t.targetURI(), ppos)
	reqParams["context"] = map[string]any{"includeDeclaration": params.Context.IncludeDeclaration}

	raw, err := t.back.Call(ctx, "textDocument/references", reqParams)
	if err != nil {
		return nil, err
	}
	locs, err := parseLocations(raw)
	if err != nil {
		return nil, err
	}
	var out []protocol.Location
	for _, loc := range locs {
		if translated, ok := s.translateLocation(t.rend, loc); ok {
			out = append(out, translated)
		}
	}
	return out, nil
}

func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	t, ok := s.requestState(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	ctx, span := startRequestSpan(context.Background(), "server.completion")
	defer span.End()

	ppos, ok := t.projectedPosition(params.Position)
	if !ok || t.back == nil {
		return nil, nil
	}
	reqParams := positionParams(t.targetURI(), ppos)
	if params.Context != nil {
		reqParams["context"] = params.Context
	}

	raw, err := t.back.Call(ctx, "textDocument/completion", reqParams)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return s.translateCompletion(t, decoded), nil
}

// translateCompletion rewrites item textEdit ranges from projection space to
// the original document. Items are otherwise passed through untouched.
func (s *Server) translateCompletion(t *requestTarget, result any) any {
	items, isList := result.([]any)
	if list, ok := result.(map[string]any); ok {
		if li, ok := list["items"].([]any); ok {
			items, isList = li, true
		}
	}
	if !isList {
		return result
	}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		te, ok := m["textEdit"].(map[string]any)
		if !ok {
			continue
		}
		rng, ok := decodeRange(te["range"])
		if !ok {
			continue
		}
		if translated, ok := s.originalRange(t.rend, t.path, rng); ok {
			te["range"] = translated
		} else {
			delete(m, "textEdit")
		}
	}
	return result
}

func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	t, ok := s.requestState(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	ctx, span := startRequestSpan(context.Background(), "server.documentSymbol")
	defer span.End()
	if t.back == nil {
		return nil, nil
	}

	raw, err := t.back.Call(ctx, "textDocument/documentSymbol", map[string]any{
		"textDocument": map[string]any{"uri": t.targetURI()},
	})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var decoded []any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return s.translateSymbols(t, decoded), nil
}

// translateSymbols maps symbol ranges back to the original document,
// dropping symbols that exist only in synthesized text (such as the
// spliced render member).
func (s *Server) translateSymbols(t *requestTarget, symbols []any) []any {
	out := make([]any, 0, len(symbols))
	for _, sym := range symbols {
		m, ok := sym.(map[string]any)
		if !ok {
			continue
		}

		// SymbolInformation carries a location; DocumentSymbol carries
		// range + selectionRange + children.
		if locAny, ok := m["location"].(map[string]any); ok {
			rng, ok := decodeRange(locAny["range"])
			if !ok {
				continue
			}
			translated, ok := s.originalRange(t.rend, t.path, rng)
			if !ok {
				continue
			}
			locAny["range"] = translated
			locAny["uri"] = pathToURI(t.path)
			out = append(out, m)
			continue
		}

		keep := true
		for _, key := range []string{"range", "selectionRange"} {
			rng, ok := decodeRange(m[key])
			if !ok {
				keep = false
				break
			}
			translated, ok := s.originalRange(t.rend, t.path, rng)
			if !ok {
				keep = false
				break
			}
			m[key] = translated
		}
		if !keep {
			continue
		}
		if children, ok := m["children"].([]any); ok {
			m["children"] = s.translateSymbols(t, children)
		}
		out = append(out, m)
	}
	return out
}

// parseLocations decodes a definition/references result, which the protocol
// allows in three shapes.
func parseLocations(raw json.RawMessage) ([]protocol.Location, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var locs []protocol.Location
	if err := json.Unmarshal(raw, &locs); err == nil && (len(locs) == 0 || locs[0].URI != "") {
		return locs, nil
	}

	var loc protocol.Location
	if err := json.Unmarshal(raw, &loc); err == nil && loc.URI != "" {
		return []protocol.Location{loc}, nil
	}

	var links []protocol.LocationLink
	if err := json.Unmarshal(raw, &links); err == nil {
		out := make([]protocol.Location, 0, len(links))
		for _, link := range links {
			out = append(out, protocol.Location{URI: link.TargetURI, Range: link.TargetSelectionRange})
		}
		return out, nil
	}

	return nil, nil
}

// decodeRange converts a decoded-JSON range value into a protocol.Range.
func decodeRange(v any) (protocol.Range, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return protocol.Range{}, false
	}
	data, err := json.Marshal(m)
	if err != nil {
		return protocol.Range{}, false
	}
	var rng protocol.Range
	if err := json.Unmarshal(data, &rng); err != nil {
		return protocol.Range{}, false
	}
	return rng, true
}
