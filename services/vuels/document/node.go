// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package document parses single-file component markup into a tree of tagged
// nodes with byte offsets. It is an adapter over the tree-sitter HTML grammar;
// nothing in this package understands directives or expressions — that is the
// compiler's job.
package document

// NoOffset marks an absent boundary offset, e.g. the end-tag start of a node
// whose closing tag is missing or self-closed.
const NoOffset = -1

// Attribute is a single attribute occurrence on a node.
type Attribute struct {
	// Offset is the byte offset of the attribute name in the original source.
	Offset int

	// Value is the raw attribute value exactly as written, including the
	// surrounding quotes. Empty when the attribute has no value.
	Value string
}

// Node is one element of the parsed markup tree.
//
// Description:
//
//	Offsets are byte offsets into the document the node was parsed from.
//	StartTagEnd points one past the '>' of the opening tag; EndTagStart points
//	at the '<' of the closing tag. Either may be NoOffset for malformed or
//	self-closed elements. Children hold element nodes only; interleaved text is
//	addressed through the gaps between child offsets.
//
// Thread Safety:
//
//	Nodes are not synchronized. The renderer mutates offsets in place through
//	Shift while holding its cache lock.
type Node struct {
	Tag         string
	Attributes  map[string]*Attribute
	AttrOrder   []string
	Start       int
	End         int
	StartTagEnd int
	EndTagStart int
	Children    []*Node
}

// Attr returns the named attribute, or nil if the node does not carry it.
func (n *Node) Attr(name string) *Attribute {
	if n.Attributes == nil {
		return nil
	}
	return n.Attributes[name]
}

// HasAttr reports whether the node carries the named attribute.
func (n *Node) HasAttr(name string) bool {
	return n.Attr(name) != nil
}

// AttributeNames returns the attribute names in declaration order.
func (n *Node) AttributeNames() []string {
	return n.AttrOrder
}

// Contains reports whether the byte offset falls strictly inside the node.
func (n *Node) Contains(offset int) bool {
	return n.Start < offset && offset < n.End
}

// Shift moves every recorded offset strictly after the given offset by delta.
//
// Description:
//
//	This is the incremental-edit offset correction: after a text replacement at
//	`offset` that grew or shrank the document by `delta` bytes, every boundary
//	recorded past the edit must move with it. The shift is applied before any
//	re-parse so that untouched subtrees stay addressable.
func (n *Node) Shift(offset, delta int) {
	if offset >= n.End {
		return
	}
	n.End += delta
	if offset < n.Start {
		n.Start += delta
	}
	if n.StartTagEnd != NoOffset && offset < n.StartTagEnd {
		n.StartTagEnd += delta
	}
	if n.EndTagStart != NoOffset && offset < n.EndTagStart {
		n.EndTagStart += delta
	}
	for _, attr := range n.Attributes {
		if offset < attr.Offset {
			attr.Offset += delta
		}
	}
	// Children guard themselves, so unclosed tags still shift their subtree.
	for _, child := range n.Children {
		child.Shift(offset, delta)
	}
}
