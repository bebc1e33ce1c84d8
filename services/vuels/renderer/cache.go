// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package renderer keeps a per-file cache of parsed components, maintains the
// relationship graph between them, and writes the synthetic TypeScript
// projection of every component file into a sibling shadow directory.
package renderer

import (
	"github.com/AleutianAI/vuebridge/services/vuels/analyzer"
	"github.com/AleutianAI/vuebridge/services/vuels/compiler"
	"github.com/AleutianAI/vuebridge/services/vuels/document"
)

// CacheKind discriminates the cache entry variants.
type CacheKind int

const (
	// CacheComponent is a component file with markup and script regions.
	CacheComponent CacheKind = iota + 1

	// CacheScript is a plain script file.
	CacheScript

	// CacheLibrary is a third-party component library under node_modules.
	CacheLibrary

	// CacheUnknown is a file that failed to parse.
	CacheUnknown
)

// Cache is one render cache entry. The concrete type is one of
// ComponentCache, ScriptCache, LibraryCache, or UnknownCache.
type Cache interface {
	Kind() CacheKind
}

// ComponentCache is the full markup-derived cache of one component file.
//
// Every offset field is a byte offset into Content. The incremental updater
// mutates them in place through Shift before any re-parse.
type ComponentCache struct {
	// Content mirrors the file as the editor last reported it.
	Content string
	Version int32

	Template *document.Node
	Script   *document.Node
	Styles   []*document.Node

	// NameStart and NameEnd span the component class declaration.
	NameStart int
	NameEnd   int

	// Description is the class hover card.
	Description string

	// Compiled is the synthetic script compiled from the template.
	Compiled string
	Mapping  compiler.Mapping

	Props              []analyzer.Prop
	RenderInsertOffset int
	SafeRanges         []analyzer.Range
}

// Kind implements Cache.
func (c *ComponentCache) Kind() CacheKind { return CacheComponent }

// PropNames returns the cached property names in declaration order.
func (c *ComponentCache) PropNames() []string {
	names := make([]string, 0, len(c.Props))
	for _, p := range c.Props {
		names = append(names, p.Name)
	}
	return names
}

// Shift moves every cached offset strictly after offset by delta.
//
// Description:
//
//	This is the cross-reference correction of the incremental updater:
//	node boundaries, attribute offsets, mapping originals, property ranges,
//	the insert offset, the name span, and the safe ranges all move together
//	so a skipped sub-parse still leaves the cache addressable.
func (c *ComponentCache) Shift(offset, delta int) {
	if c.Template != nil {
		c.Template.Shift(offset, delta)
	}
	if c.Script != nil {
		c.Script.Shift(offset, delta)
	}
	for _, style := range c.Styles {
		style.Shift(offset, delta)
	}
	if offset < c.NameStart {
		c.NameStart += delta
	}
	if offset < c.NameEnd {
		c.NameEnd += delta
	}
	c.Mapping.ShiftOriginal(offset, delta)
	if offset < c.RenderInsertOffset {
		c.RenderInsertOffset += delta
	}
	for i := range c.Props {
		if offset < c.Props[i].Start {
			c.Props[i].Start += delta
		}
		if offset < c.Props[i].End {
			c.Props[i].End += delta
		}
	}
	for i := range c.SafeRanges {
		if offset < c.SafeRanges[i].Start {
			c.SafeRanges[i].Start += delta
		}
		if offset < c.SafeRanges[i].End {
			c.SafeRanges[i].End += delta
		}
	}
}

// ScriptComponent is the component metadata of a script file whose export
// defines a component.
type ScriptComponent struct {
	NameStart   int
	NameEnd     int
	Description string
	Props       []analyzer.Prop
}

// ScriptCache is the cache of a plain script file.
type ScriptCache struct {
	Content string

	// Component is set when the file's default export defines a component.
	Component *ScriptComponent

	// LocalExports are the names defined and exported by the file itself;
	// the empty string stands for the default export.
	LocalExports []string
}

// Kind implements Cache.
func (c *ScriptCache) Kind() CacheKind { return CacheScript }

// HasLocalExport reports whether the file itself defines the export.
func (c *ScriptCache) HasLocalExport(name string) bool {
	for _, e := range c.LocalExports {
		if e == name {
			return true
		}
	}
	return false
}

// LibraryProp is one declared property of a library component.
type LibraryProp struct {
	Name  string
	Path  string
	Start int
	End   int
}

// LibraryComponent is one component declared by a third-party library's
// type declarations.
type LibraryComponent struct {
	Name        string
	Path        string
	NameStart   int
	NameEnd     int
	Description string
	Props       []LibraryProp
}

// LibraryCache is the parsed type-declaration metadata of one third-party
// component library.
type LibraryCache struct {
	Name       string
	Components []LibraryComponent
}

// Kind implements Cache.
func (c *LibraryCache) Kind() CacheKind { return CacheLibrary }

// Component returns the named library component, or nil.
func (c *LibraryCache) Component(name string) *LibraryComponent {
	for i := range c.Components {
		if c.Components[i].Name == name {
			return &c.Components[i]
		}
	}
	return nil
}

// UnknownCache marks a file that failed to parse. Lookups against it find
// no component metadata; the file is otherwise left alone.
type UnknownCache struct{}

// Kind implements Cache.
func (c *UnknownCache) Kind() CacheKind { return CacheUnknown }

// propsEqual compares property lists ignoring ranges: a safe in-place edit
// moves ranges without changing what the component exposes.
func propsEqual(a, b []analyzer.Prop) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Description != b[i].Description {
			return false
		}
	}
	return true
}
