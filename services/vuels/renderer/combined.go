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

import "strings"

const (
	// renderPrefix opens the synthetic render member; the destructured
	// property list is spliced between renderPrefix and renderMid.
	renderPrefix = "protected render(){let {"
	renderMid    = "} = this;const $event:any;\n"
)

// insertLen is the length of the synthetic block spliced into the script at
// the render insert offset.
func insertLen(props []string, compiled string) int {
	return len(renderPrefix) + len(strings.Join(props, ",")) + len(renderMid) + len(compiled)
}

// Projection builds the synthetic TypeScript document of a component file.
//
// Description:
//
//	Everything outside the script region is blanked to spaces so byte
//	offsets inside the script agree with the original document, newlines
//	included so line numbers agree too. The synthetic render member is
//	spliced in just before the component class's closing brace, binding the
//	destructured property list and the compiled template body.
//
// Inputs:
//   - source: Original component file content.
//   - scriptStart, scriptEnd: Script region, start tag end through end tag
//     start; pass 0,0 when there is no script region.
//   - insertOffset: Byte offset where the render member is spliced.
//   - props: Property names to destructure, own props then inherited.
//   - compiled: Compiled template body, empty when there is no template.
func Projection(source string, scriptStart, scriptEnd, insertOffset int, props []string, compiled string) string {
	var b strings.Builder
	b.Grow(len(source) + insertLen(props, compiled))
	for i := 0; i < len(source); i++ {
		if i == insertOffset {
			writeRenderMember(&b, props, compiled)
		}
		switch {
		case i >= scriptStart && i < scriptEnd:
			b.WriteByte(source[i])
		case source[i] == '\n':
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
	}
	if insertOffset == len(source) {
		writeRenderMember(&b, props, compiled)
	}
	return b.String()
}

func writeRenderMember(b *strings.Builder, props []string, compiled string) {
	b.WriteString(renderPrefix)
	b.WriteString(strings.Join(props, ","))
	b.WriteString(renderMid)
	b.WriteString(compiled)
}

// Delta is one sequential edit against the projected document. Start and End
// are byte offsets valid at the moment the delta is applied, after all
// preceding deltas in the same batch.
type Delta struct {
	Start int
	End   int
	Text  string
}

// ApplyDeltas applies a batch of sequential deltas to content.
func ApplyDeltas(content string, deltas []Delta) string {
	for _, d := range deltas {
		content = content[:d.Start] + d.Text + content[d.End:]
	}
	return content
}

// blank replaces every byte except newlines with a space, preserving length
// and line structure.
func blank(text string) string {
	b := []byte(text)
	for i := range b {
		if b[i] != '\n' {
			b[i] = ' '
		}
	}
	return string(b)
}
