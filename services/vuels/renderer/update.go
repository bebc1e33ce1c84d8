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
	"context"
	"regexp"
	"strings"

	"github.com/AleutianAI/vuebridge/services/vuels/analyzer"
	"github.com/AleutianAI/vuebridge/services/vuels/compiler"
	"github.com/AleutianAI/vuebridge/services/vuels/document"
	"github.com/AleutianAI/vuebridge/services/vuels/tsast"
)

// Edit is one incoming edit against the original document: the half-open
// byte range [Start, End) is replaced by Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// regUnbalancedBrace matches text that opens or closes a brace scope: a '{'
// followed by anything but whitespace or its own '}', or a '}' not followed
// by a matching '{'. Such an edit can move the class's closing brace and is
// never treated as safe.
var regUnbalancedBrace = regexp.MustCompile(`\{[^\s}][^}]*|\}[^{]*[^\s{]`)

// EditResult is the outcome of an incremental cache update.
type EditResult struct {
	// Deltas replay the edit against the projected document. They apply
	// sequentially: each range is valid after the preceding deltas.
	Deltas []Delta

	// PropsChanged reports that the component's property list changed, so
	// dependents that inherit from this file need re-rendering.
	PropsChanged bool

	// Analysis is set when the script region was re-analyzed successfully;
	// the caller rebuilds outgoing relationship edges from it.
	Analysis *analyzer.Analysis
}

// ApplyEdit applies one edit to the cache in place and derives the
// projection deltas.
//
// Description:
//
//	The edit is classified by region. Inside the template, cached offsets
//	shift first, then the template element alone is re-parsed and
//	recompiled; the deltas blank the edited original range and swap the
//	compiled body. Inside the script, a brace-balanced edit confined to one
//	safe range passes straight through; anything else re-analyzes the
//	script region and refreshes the property list. Inside a style region
//	the edit is blanked. An edit touching region boundaries returns false
//	and the caller rebuilds the whole cache entry.
//
// Inputs:
//   - inherited: Property names contributed by the extends chain, in the
//     order the projection destructures them after the file's own props.
//
// Outputs:
//   - *EditResult: Deltas and change flags. Nil when ok is false.
//   - bool: False when the edit cannot be applied incrementally.
func (c *ComponentCache) ApplyEdit(ctx context.Context, docParser *document.Parser, tsParser *tsast.Parser, filePath string, inherited []string, edit Edit) (*EditResult, bool) {
	delta := len(edit.Text) - (edit.End - edit.Start)
	oldRIO := c.RenderInsertOffset
	merged := append(c.PropNames(), inherited...)
	oldInsert := insertLen(merged, c.Compiled)
	oldCompiled := c.Compiled
	oldOwnJoined := strings.Join(c.PropNames(), ",")
	oldMergedJoined := strings.Join(merged, ",")

	// Projection offset of an original offset before any of this edit's
	// deltas apply.
	projected := func(off int) int {
		if off < oldRIO {
			return off
		}
		return off + oldInsert
	}
	passThrough := Delta{
		Start: projected(edit.Start),
		End:   projected(edit.Start) + (edit.End - edit.Start),
		Text:  edit.Text,
	}
	blanked := passThrough
	blanked.Text = blank(edit.Text)

	switch {
	case c.Template != nil && c.Template.Start < edit.Start && edit.End < c.Template.End:
		c.Shift(edit.Start, delta)
		c.Content = c.Content[:edit.Start] + edit.Text + c.Content[edit.End:]
		fragment := c.Content[c.Template.Start:c.Template.End]
		node, err := docParser.ParseFragment(ctx, []byte(fragment), c.Template.Start)
		if err != nil {
			// Keep the stale compiled body; the blank alone keeps the
			// projection's offsets aligned.
			return &EditResult{Deltas: []Delta{blanked}}, true
		}
		c.Template = node
		c.Compiled, c.Mapping = compiler.Compile(node, c.Content)
		compiledStart := c.RenderInsertOffset + len(renderPrefix) + len(oldMergedJoined) + len(renderMid)
		swap := Delta{
			Start: compiledStart,
			End:   compiledStart + len(oldCompiled),
			Text:  c.Compiled,
		}
		return &EditResult{Deltas: []Delta{blanked, swap}}, true

	case c.Script != nil && c.Script.StartTagEnd <= edit.Start && edit.End <= c.Script.EndTagStart:
		if c.isSafeEdit(edit) {
			c.Shift(edit.Start, delta)
			c.Content = c.Content[:edit.Start] + edit.Text + c.Content[edit.End:]
			return &EditResult{Deltas: []Delta{passThrough}}, true
		}
		c.Shift(edit.Start, delta)
		c.Content = c.Content[:edit.Start] + edit.Text + c.Content[edit.End:]
		src := c.Content[c.Script.StartTagEnd:c.Script.EndTagStart]
		module, err := tsParser.Parse(ctx, []byte(src), c.Script.StartTagEnd, filePath)
		if err != nil {
			c.SafeRanges = nil
			return &EditResult{Deltas: []Delta{passThrough}}, true
		}
		analysis, ok := analyzer.Analyze(module)
		if !ok {
			c.SafeRanges = nil
			return &EditResult{Deltas: []Delta{passThrough}}, true
		}
		propsChanged := !propsEqual(c.Props, analysis.Props)
		c.NameStart = analysis.ClassStart
		c.NameEnd = analysis.ClassEnd
		c.Description = analysis.Description
		c.Props = analysis.Props
		c.RenderInsertOffset = analysis.RenderInsertOffset
		c.SafeRanges = analysis.SafeRanges
		propsStart := c.RenderInsertOffset + len(renderPrefix)
		propsSwap := Delta{
			Start: propsStart,
			End:   propsStart + len(oldOwnJoined),
			Text:  strings.Join(c.PropNames(), ","),
		}
		return &EditResult{
			Deltas:       []Delta{passThrough, propsSwap},
			PropsChanged: propsChanged,
			Analysis:     analysis,
		}, true
	}

	for _, style := range c.Styles {
		if style.Start < edit.Start && edit.End < style.End {
			c.Shift(edit.Start, delta)
			c.Content = c.Content[:edit.Start] + edit.Text + c.Content[edit.End:]
			return &EditResult{Deltas: []Delta{blanked}}, true
		}
	}
	return nil, false
}

// isSafeEdit reports whether the edit is brace-balanced and confined to one
// safe range, so the cached metadata cannot have changed.
func (c *ComponentCache) isSafeEdit(edit Edit) bool {
	if regUnbalancedBrace.MatchString(edit.Text) {
		return false
	}
	lo, hi := 0, len(c.SafeRanges)
	for lo < hi {
		mid := (lo + hi) / 2
		r := c.SafeRanges[mid]
		switch {
		case edit.End >= r.End:
			lo = mid + 1
		case edit.Start < r.Start:
			hi = mid
		default:
			return true
		}
	}
	return false
}
