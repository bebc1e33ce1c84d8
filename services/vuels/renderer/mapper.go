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

	"github.com/AleutianAI/vuebridge/services/vuels/compiler"
)

// PositionType classifies an original-document offset for request routing.
type PositionType int

const (
	// PositionScript: inside the script region; the backend sees the same
	// offset.
	PositionScript PositionType = iota + 1

	// PositionTemplate: inside the template but not on an expression; the
	// backend has nothing at this position.
	PositionTemplate

	// PositionTemplateExpr: on a template expression; the paired offset
	// points into the compiled body of the projection.
	PositionTemplateExpr
)

// Mapper translates offsets between a component file and its projection.
//
// Description:
//
//	Outside the spliced render member the projection is length-preserving,
//	so translation is pure arithmetic around the insert offset. Inside the
//	compiled body the template mapping decides; offsets on synthetic glue
//	have no original position and translate to false.
//
// A Mapper is a snapshot: it copies every offset and span it consults out of
// the cache, so it stays usable without a lock while edits mutate the cache —
// translations then describe the document revision it was taken from.
type Mapper struct {
	// renderInsert is the original-document offset the render member is
	// spliced at.
	renderInsert int

	// compiledStart is the projection offset of the compiled template body.
	compiledStart int

	// insert is the total length of the spliced render member.
	insert int

	mapping compiler.Mapping

	templateStart int
	templateEnd   int
	hasTemplate   bool
}

// Mapper builds an offset translator for the cache's current state. The
// caller must hold the renderer lock for the duration of the call. inherited
// lists the extends-chain property names the projection destructures after
// the file's own.
func (c *ComponentCache) Mapper(inherited []string) Mapper {
	merged := append(c.PropNames(), inherited...)
	prefix := len(renderPrefix) + len(strings.Join(merged, ",")) + len(renderMid)
	m := Mapper{
		renderInsert:  c.RenderInsertOffset,
		compiledStart: c.RenderInsertOffset + prefix,
		insert:        prefix + len(c.Compiled),
		mapping:       append(compiler.Mapping(nil), c.Mapping...),
	}
	if c.Template != nil {
		m.hasTemplate = true
		m.templateStart = c.Template.Start
		m.templateEnd = c.Template.End
	}
	return m
}

// OriginalOffset maps a projection offset back to the original document.
// Offsets on synthetic glue, or on compiled output with no source
// expression, return false.
func (m Mapper) OriginalOffset(projected int) (int, bool) {
	switch {
	case projected < m.renderInsert:
		return projected, true
	case projected >= m.renderInsert+m.insert:
		return projected - m.insert, true
	case projected >= m.compiledStart:
		return m.mapping.OriginalOffset(projected - m.compiledStart)
	default:
		return 0, false
	}
}

// ProjectedOffset maps an original-document offset into the projection.
// Template offsets map through the compile mapping; offsets on static
// template content have no projection position and return false.
func (m Mapper) ProjectedOffset(original int) (int, bool) {
	if m.inTemplate(original) {
		synth, ok := m.mapping.SyntheticOffset(original)
		if !ok {
			return 0, false
		}
		return m.compiledStart + synth, true
	}
	if original < m.renderInsert {
		return original, true
	}
	return original + m.insert, true
}

// Classify reports how requests at an original offset should be routed. For
// PositionTemplateExpr the second result is the paired projection offset.
func (m Mapper) Classify(original int) (PositionType, int) {
	if !m.inTemplate(original) {
		return PositionScript, 0
	}
	synth, ok := m.mapping.SyntheticOffset(original)
	if !ok {
		return PositionTemplate, 0
	}
	return PositionTemplateExpr, m.compiledStart + synth
}

func (m Mapper) inTemplate(offset int) bool {
	return m.hasTemplate && m.templateStart < offset && offset < m.templateEnd
}
