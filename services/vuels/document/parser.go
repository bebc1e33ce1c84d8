// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/html"
)

const (
	// DefaultMaxFileSize is the maximum component file size accepted by the
	// parser (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize is the size above which a warning is logged (1MB).
	WarnFileSize = 1024 * 1024
)

var (
	// ErrFileTooLarge is returned when content exceeds the parser's size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent is returned when content is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")

	// ErrNotSingleRoot is returned by ParseFragment when the fragment does not
	// parse to exactly one root element.
	ErrNotSingleRoot = errors.New("fragment is not a single root element")
)

// SFC is the region split of a parsed component file.
//
// Script is non-nil only when the script element has both an opening-tag end
// and a closing-tag start; a malformed script region is treated as absent.
type SFC struct {
	Template *Node
	Script   *Node
	Styles   []*Node
	Roots    []*Node
}

// ParserOption configures a Parser instance.
type ParserOption func(*Parser)

// WithMaxFileSize sets the maximum file size the parser will accept.
func WithMaxFileSize(bytes int64) ParserOption {
	return func(p *Parser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// Parser parses component markup using tree-sitter.
//
// Thread Safety:
//
//	Parser instances are safe for concurrent use. Each call creates its own
//	tree-sitter parser internally.
type Parser struct {
	maxFileSize int64
}

// NewParser creates a new markup Parser with the given options.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse splits a component file into template, script, and style regions.
//
// Description:
//
//	Parses the whole file with the HTML grammar and picks out the top-level
//	<template>, <script>, and <style> elements. Parsing is error-tolerant:
//	missing or malformed regions come back nil/empty rather than failing.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//   - content: Raw component file bytes. Must be valid UTF-8.
//   - filePath: Path used for logging only.
//
// Outputs:
//   - *SFC: Region split. Never nil on success.
//   - error: ErrFileTooLarge, ErrInvalidContent, tree-sitter failures, or
//     context errors.
func (p *Parser) Parse(ctx context.Context, content []byte, filePath string) (*SFC, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}
	if int64(len(content)) > p.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}
	if len(content) > WarnFileSize {
		slog.Warn("parsing large component file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	roots, err := parseRoots(ctx, content, 0)
	if err != nil {
		return nil, err
	}

	sfc := &SFC{Roots: roots}
	for _, root := range roots {
		switch root.Tag {
		case "template":
			if sfc.Template == nil {
				sfc.Template = root
			}
		case "script":
			if root.StartTagEnd != NoOffset && root.EndTagStart != NoOffset {
				sfc.Script = root
			}
		case "style":
			sfc.Styles = append(sfc.Styles, root)
		}
	}
	return sfc, nil
}

// ParseFragment re-parses a sub-range of a document as a single element.
//
// Description:
//
//	Used by the incremental updater to re-parse just the template subtree after
//	an in-template edit. All offsets in the returned node are rebased by `base`
//	so they remain valid against the full document.
//
// Outputs:
//   - *Node: The single root element of the fragment.
//   - error: ErrNotSingleRoot when the fragment does not parse cleanly to one
//     element — the caller falls back to blanking the edit.
func (p *Parser) ParseFragment(ctx context.Context, fragment []byte, base int) (*Node, error) {
	roots, err := parseRoots(ctx, fragment, base)
	if err != nil {
		return nil, err
	}
	if len(roots) != 1 {
		return nil, fmt.Errorf("%w: got %d roots", ErrNotSingleRoot, len(roots))
	}
	root := roots[0]
	if root.Tag == "" || root.EndTagStart == NoOffset && root.StartTagEnd == NoOffset {
		return nil, ErrNotSingleRoot
	}
	// A truncated fragment parses with the remainder swallowed into the root.
	if root.End-base != len(fragment) {
		return nil, fmt.Errorf("%w: root spans %d of %d bytes", ErrNotSingleRoot, root.End-base, len(fragment))
	}
	return root, nil
}

func parseRoots(ctx context.Context, content []byte, base int) ([]*Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(html.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	root := tree.RootNode()
	if root == nil {
		return nil, nil
	}
	var nodes []*Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if node := convertElement(child, content, base); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

// convertElement converts a tree-sitter element into a Node, or nil for
// non-element kinds (text, comments, doctype).
func convertElement(ts *sitter.Node, content []byte, base int) *Node {
	switch ts.Type() {
	case "element", "script_element", "style_element":
	default:
		return nil
	}

	node := &Node{
		Attributes:  map[string]*Attribute{},
		Start:       int(ts.StartByte()) + base,
		End:         int(ts.EndByte()) + base,
		StartTagEnd: NoOffset,
		EndTagStart: NoOffset,
	}

	for i := 0; i < int(ts.NamedChildCount()); i++ {
		child := ts.NamedChild(i)
		switch child.Type() {
		case "start_tag", "self_closing_tag":
			node.StartTagEnd = int(child.EndByte()) + base
			readStartTag(child, content, base, node)
		case "end_tag":
			node.EndTagStart = int(child.StartByte()) + base
		case "element", "script_element", "style_element":
			if sub := convertElement(child, content, base); sub != nil {
				node.Children = append(node.Children, sub)
			}
		case "erroneous_end_tag":
			// Mismatched close; leave EndTagStart unset.
		}
	}
	return node
}

func readStartTag(tag *sitter.Node, content []byte, base int, node *Node) {
	for i := 0; i < int(tag.NamedChildCount()); i++ {
		child := tag.NamedChild(i)
		switch child.Type() {
		case "tag_name":
			node.Tag = child.Content(content)
		case "attribute":
			name, attr := readAttribute(child, content, base)
			if name == "" {
				continue
			}
			if _, dup := node.Attributes[name]; dup {
				continue
			}
			node.Attributes[name] = attr
			node.AttrOrder = append(node.AttrOrder, name)
		}
	}
}

func readAttribute(ts *sitter.Node, content []byte, base int) (string, *Attribute) {
	attr := &Attribute{Offset: int(ts.StartByte()) + base}
	var name string
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		child := ts.NamedChild(i)
		switch child.Type() {
		case "attribute_name":
			name = child.Content(content)
			attr.Offset = int(child.StartByte()) + base
		case "quoted_attribute_value", "attribute_value":
			attr.Value = child.Content(content)
		}
	}
	return name, attr
}
