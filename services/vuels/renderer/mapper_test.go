// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package renderer

import (
	"strings"
	"testing"
)

func TestMapper_ScriptOffsets(t *testing.T) {
	c := buildTestCache(t, counterComponent)
	m := c.Mapper(nil)

	at := strings.Index(counterComponent, "count = 0")
	kind, _ := m.Classify(at)
	if kind != PositionScript {
		t.Fatalf("kind = %v, want script", kind)
	}
	proj, ok := m.ProjectedOffset(at)
	if !ok || proj != at {
		t.Errorf("projected = %d,%v, want identity before the insert", proj, ok)
	}
	orig, ok := m.OriginalOffset(at)
	if !ok || orig != at {
		t.Errorf("original = %d,%v, want identity before the insert", orig, ok)
	}
}

func TestMapper_OffsetsAfterInsert(t *testing.T) {
	c := buildTestCache(t, counterComponent)
	m := c.Mapper(nil)

	at := strings.Index(counterComponent, "</script>")
	proj, ok := m.ProjectedOffset(at)
	if !ok {
		t.Fatal("offset after the insert did not project")
	}
	if proj <= at {
		t.Errorf("projected = %d, want shifted past the insert at %d", proj, at)
	}
	orig, ok := m.OriginalOffset(proj)
	if !ok || orig != at {
		t.Errorf("round trip = %d,%v, want %d", orig, ok, at)
	}
}

func TestMapper_TemplateExpression(t *testing.T) {
	c := buildTestCache(t, counterComponent)
	m := c.Mapper(nil)

	at := strings.Index(counterComponent, "message }}")
	kind, proj := m.Classify(at)
	if kind != PositionTemplateExpr {
		t.Fatalf("kind = %v, want template expression", kind)
	}
	orig, ok := m.OriginalOffset(proj)
	if !ok || orig != at {
		t.Errorf("round trip = %d,%v, want %d", orig, ok, at)
	}
	direct, ok := m.ProjectedOffset(at)
	if !ok || direct != proj {
		t.Errorf("projected = %d,%v, want %d from Classify", direct, ok, proj)
	}
}

func TestMapper_StaticTemplateContent(t *testing.T) {
	c := buildTestCache(t, counterComponent)
	m := c.Mapper(nil)

	at := strings.Index(counterComponent, `<div class=`) + 1
	kind, _ := m.Classify(at)
	if kind != PositionTemplate {
		t.Errorf("kind = %v, want plain template", kind)
	}
	if _, ok := m.ProjectedOffset(at); ok {
		t.Error("static template content should not project")
	}
}

func TestMapper_SnapshotSurvivesShift(t *testing.T) {
	c := buildTestCache(t, counterComponent)
	m := c.Mapper(nil)

	expr := strings.Index(counterComponent, "message }}")
	kind, wantProj := m.Classify(expr)
	if kind != PositionTemplateExpr {
		t.Fatalf("kind = %v, want template expression", kind)
	}

	// An edit ahead of the expression moves the template span, the mapping
	// originals, and the insert offset. A mapper taken before the shift keeps
	// translating against the revision it was built from.
	const delta = 7
	c.Shift(strings.Index(counterComponent, "<span>"), delta)

	kind, got := m.Classify(expr)
	if kind != PositionTemplateExpr || got != wantProj {
		t.Errorf("stale mapper = %v,%d, want expression at %d", kind, got, wantProj)
	}

	fresh := c.Mapper(nil)
	kind, got = fresh.Classify(expr + delta)
	if kind != PositionTemplateExpr || got != wantProj+delta {
		t.Errorf("fresh mapper = %v,%d, want expression at %d", kind, got, wantProj+delta)
	}
}

func TestMapper_InsertPlacement(t *testing.T) {
	c := buildTestCache(t, counterComponent)
	text := projectionOf(c)
	if got := strings.Index(text, renderPrefix); got != c.RenderInsertOffset {
		t.Errorf("render member at %d, want the insert offset %d", got, c.RenderInsertOffset)
	}
	// Synthetic glue between the insert offset and the compiled body has no
	// original position.
	m := c.Mapper(nil)
	if _, ok := m.OriginalOffset(c.RenderInsertOffset + len(renderPrefix)/2); ok {
		t.Error("synthetic glue mapped back to an original offset")
	}
}
