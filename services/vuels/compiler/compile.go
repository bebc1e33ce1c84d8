// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package compiler turns a parsed template tree into a flat synthetic script
// fragment the type-checking backend can evaluate, together with a Mapping
// that ties every copied expression back to its source span.
//
// The output is deliberately one logical line: every linebreak inside a
// copied fragment is flattened to a space so that downstream position math
// can treat the compiled text as a single-line insertion.
package compiler

import (
	"regexp"
	"strings"

	"github.com/AleutianAI/vuebridge/services/vuels/document"
)

var (
	reInterpolation = regexp.MustCompile(`\{\{(.*?)\}\}`)
	reLoopWithIndex = regexp.MustCompile(`\((\w+),\s*(\w+)\)`)

	lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")
)

// Compile walks the markup subtree rooted at node and emits one statement per
// dynamic construct: conditional and loop wraps, slot bindings, bound
// attributes, event handlers, and text interpolations. Static markup
// contributes nothing, so a template with no dynamic content compiles to the
// empty string and a nil Mapping.
func Compile(node *document.Node, source string) (string, Mapping) {
	out := &output{}
	out.node(node, source)
	return out.render.String(), out.mapping
}

type output struct {
	render  strings.Builder
	mapping Mapping
	offset  int

	// comment tracking spans sibling text chunks, an interpolation inside
	// <!-- --> must stay dark even when the marker pair straddles children.
	inComment bool
}

// wrap appends synthesized boilerplate: copied into the render without a
// mapping entry.
func (o *output) wrap(text string) {
	o.render.WriteString(lineBreaks.Replace(text))
	o.offset += len(text)
}

// binding appends a verbatim identifier copy with a single mapping entry and
// no receiver rewriting. Used where the copy lands in a declaration position.
func (o *output) binding(text string, original int) {
	o.render.WriteString(lineBreaks.Replace(text))
	o.mapping = append(o.mapping, Span{Synthetic: o.offset, Original: original, Length: len(text)})
	o.offset += len(text)
}

// fragment appends a copied expression, splitting on '$' so that every
// $-prefixed segment except $event is rewritten as a member access off the
// implicit receiver. Each segment keeps its own mapping entry, so rewritten
// pieces still resolve to their exact source spans.
func (o *output) fragment(text string, original int) {
	parts := strings.Split(text, "$")

	o.render.WriteString(lineBreaks.Replace(parts[0]))
	o.mapping = append(o.mapping, Span{Synthetic: o.offset, Original: original, Length: len(parts[0])})
	o.offset += len(parts[0])
	original += len(parts[0])

	for _, part := range parts[1:] {
		if !strings.HasPrefix(part, "event") {
			o.wrap("this.")
		}
		o.render.WriteString("$")
		o.render.WriteString(lineBreaks.Replace(part))
		o.mapping = append(o.mapping, Span{Synthetic: o.offset, Original: original, Length: len(part) + 1})
		o.offset += len(part) + 1
		original += len(part) + 1
	}
}

func (o *output) node(n *document.Node, source string) {
	var closes string

	// At most one conditional wrap per node, first valid form wins.
	condKey := ""
	if _, _, ok := quotedValue(n, "v-if"); ok {
		condKey = "v-if"
	} else if _, _, ok := quotedValue(n, "v-else-if"); ok {
		condKey = "v-else-if"
	} else if n.HasAttr("v-else") {
		condKey = "v-else"
	}
	emitConditional := func() {
		switch condKey {
		case "v-if":
			value, offset, _ := quotedValue(n, "v-if")
			o.wrap("if(")
			o.fragment(value, offset)
			o.wrap("){")
		case "v-else-if":
			value, offset, _ := quotedValue(n, "v-else-if")
			o.wrap("else if(")
			o.fragment(value, offset)
			o.wrap("){")
		case "v-else":
			o.wrap("else{")
		}
		closes += "}"
	}

	loopLHS, loopRHS := "", ""
	loopOffset := 0
	loopConsumed := false
	if value, offset, ok := quotedValue(n, "v-for"); ok {
		if lhs, rhs, found := strings.Cut(value, " in "); found {
			loopConsumed = true
			loopLHS, loopRHS, loopOffset = lhs, rhs, offset
		}
	}
	emitLoop := func() {
		o.wrap("for(const __item__ of ")
		o.wrap(loopRHS)
		o.wrap("){")
		if m := reLoopWithIndex.FindStringSubmatchIndex(loopLHS); m != nil {
			o.wrap("const ")
			o.binding(loopLHS[m[2]:m[3]], loopOffset+m[2])
			o.wrap(" = __item__;")
			o.wrap("const ")
			o.binding(loopLHS[m[4]:m[5]], loopOffset+m[4])
			o.wrap(" = 0 as number;")
		} else {
			o.wrap("const ")
			o.binding(loopLHS, loopOffset)
			o.wrap(" = __item__;")
		}
		o.wrap("(")
		o.fragment(loopRHS, loopOffset+len(loopLHS)+len(" in "))
		o.wrap(");")
		closes += "}"
	}

	// Wrap nesting follows attribute declaration order: a v-for declared
	// before the conditional nests the conditional inside the loop body.
	// Emitting in source order keeps the mapping monotonic in both
	// coordinates, and matches Vue 2's v-for-over-v-if precedence.
	names := n.AttributeNames()
	if loopConsumed && condKey != "" && attrIndex(names, "v-for") < attrIndex(names, condKey) {
		emitLoop()
		emitConditional()
	} else {
		if condKey != "" {
			emitConditional()
		}
		if loopConsumed {
			emitLoop()
		}
	}

	// Attributes declared before a consumed directive stay dark: their
	// expressions would land ahead of the directive's own fragments in the
	// output but behind them in the source, which would break the mapping's
	// ordering in one of the two coordinate spaces. v-else consumes no
	// expression, so it anchors nothing.
	skipTo := -1
	for i, key := range names {
		if (key == condKey && key != "v-else") || (loopConsumed && key == "v-for") {
			skipTo = i
		}
	}
	for i, key := range names {
		if i <= skipTo {
			continue
		}
		if !isBoundAttribute(key) {
			continue
		}
		value, offset, ok := quotedValue(n, key)
		if !ok {
			continue
		}
		switch {
		case key == "v-slot" || strings.HasPrefix(key, "v-slot:") || strings.HasPrefix(key, "#"):
			if strings.HasPrefix(strings.TrimSpace(value), "{") {
				o.wrap("{const ")
				o.fragment(value, offset)
				o.wrap(" = {} as Record<string, any>;")
			} else {
				o.wrap("{const {")
				o.fragment(value, offset)
				o.wrap("} = {} as Record<string, any>;")
			}
			closes += "}"
		case key == "slot-scope":
			o.wrap("{const {")
			o.fragment(value, offset)
			o.wrap("} = {} as Record<string, any>;")
			closes += "}"
		case strings.HasPrefix(key, "@") || strings.HasPrefix(key, "v-on:"):
			if strings.Contains(value, "=>") {
				o.wrap("(")
				o.fragment(value, offset)
				o.wrap(");")
			} else {
				o.wrap("(()=>{")
				o.fragment(value, offset)
				o.wrap("});")
			}
		default:
			o.wrap("(")
			o.fragment(value, offset)
			o.wrap(");")
		}
	}

	start := n.StartTagEnd
	for _, child := range n.Children {
		if start != document.NoOffset {
			o.text(source[start:child.Start], start)
		}
		o.node(child, source)
		start = child.End
	}
	if n.EndTagStart != document.NoOffset && start != document.NoOffset && n.EndTagStart > start {
		o.text(source[start:n.EndTagStart], start)
	}

	if closes != "" {
		o.wrap(closes)
	}
}

// text extracts interpolations from literal text between tags. Stretches
// inside comment markers are skipped, with open-comment state carried across
// successive chunks of the same tree walk.
func (o *output) text(text string, base int) {
	i := 0
	for i < len(text) {
		if o.inComment {
			end := strings.Index(text[i:], "-->")
			if end < 0 {
				return
			}
			i += end + len("-->")
			o.inComment = false
			continue
		}
		open := strings.Index(text[i:], "<!--")
		segment := text[i:]
		if open >= 0 {
			segment = text[i : i+open]
		}
		o.interpolations(segment, base+i)
		if open < 0 {
			return
		}
		i += open + len("<!--")
		o.inComment = true
	}
}

func (o *output) interpolations(text string, base int) {
	for _, m := range reInterpolation.FindAllStringSubmatchIndex(text, -1) {
		o.wrap("(")
		o.fragment(text[m[2]:m[3]], base+m[2])
		o.wrap(");")
	}
}

func attrIndex(names []string, key string) int {
	for i, name := range names {
		if name == key {
			return i
		}
	}
	return len(names)
}

func isBoundAttribute(key string) bool {
	if key == "v-if" || key == "v-else-if" || key == "v-else" || key == "v-for" {
		return false
	}
	return strings.HasPrefix(key, ":") ||
		strings.HasPrefix(key, "@") ||
		strings.HasPrefix(key, "#") ||
		strings.HasPrefix(key, "v-") ||
		key == "slot-scope"
}

// quotedValue fetches an attribute value that is properly double-quoted and
// non-empty once trimmed, returning the unquoted text and the offset of its
// first byte in the source. Malformed values are reported as absent, the
// directive simply has no effect.
func quotedValue(n *document.Node, key string) (string, int, bool) {
	attr := n.Attr(key)
	if attr == nil {
		return "", 0, false
	}
	raw := attr.Value
	if len(raw) <= 1 || !strings.HasPrefix(raw, `"`) || !strings.HasSuffix(raw, `"`) {
		return "", 0, false
	}
	value := raw[1 : len(raw)-1]
	if strings.TrimSpace(value) == "" {
		return "", 0, false
	}
	return value, attr.Offset + len(key) + len(`="`), true
}
