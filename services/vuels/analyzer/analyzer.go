// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analyzer extracts component metadata from parsed script modules:
// instance properties, the extends relationship, registered child components,
// and the offset/range bookkeeping the render cache needs for incremental
// updates.
package analyzer

import (
	"fmt"

	"github.com/AleutianAI/vuebridge/services/vuels/tsast"
)

// frameworkBase is the superclass name that never produces an extends
// relationship.
const frameworkBase = "Vue"

// Prop is one instance property or method of a component class.
type Prop struct {
	Name  string
	Start int
	End   int

	// Description is hover markdown built from leading comments, empty
	// when the member has none.
	Description string
}

// Extends records the component's superclass import. Export empty means the
// superclass is the source module's default export.
type Extends struct {
	Export string
	Path   string
}

// Register records one child component registration from the decorator's
// components map.
type Register struct {
	// Name is the tag the component is registered under.
	Name string

	// Export is the exported name at Path, empty for a default export.
	Export string

	// Prop is set for one level of static access: AOption: Select.Option
	// yields Export "Select", Prop "Option".
	Prop string

	Path string
}

// Range is a half-open byte interval over the original document.
type Range struct {
	Start int
	End   int
}

// Contains reports whether the interval [start, end) falls inside r.
func (r Range) Contains(start, end int) bool {
	return start >= r.Start && end <= r.End
}

// Analysis is the extracted metadata of one component class.
type Analysis struct {
	Name string

	// ClassStart and ClassEnd span the class declaration, keyword through
	// closing brace.
	ClassStart int
	ClassEnd   int

	// Description is the hover card for the class itself.
	Description string

	// Props lists instance members in declaration order.
	Props []Prop

	// RenderInsertOffset is where the synthetic render member is spliced
	// into the projection, just before the class's closing brace.
	RenderInsertOffset int

	Extends   *Extends
	Registers []Register
	Mixins    []Register

	// SafeRanges are sorted, non-overlapping intervals where an edit cannot
	// change any of the metadata above.
	SafeRanges []Range
}

// Analyze extracts component metadata from the module's default-exported
// class. The second return is false when the module has no default class.
func Analyze(module *tsast.Module) (*Analysis, bool) {
	return AnalyzeClass(module, module.DefaultClass())
}

// AnalyzeExport extracts metadata for the class behind a named export.
func AnalyzeExport(module *tsast.Module, export string) (*Analysis, bool) {
	return AnalyzeClass(module, module.ClassFor(export))
}

// AnalyzeClass extracts metadata from one class of the module.
//
// Description:
//
//	Properties and safe ranges come from the class body alone. The extends
//	relationship is chased through the module's imports and dropped when
//	the superclass is the framework base class. Registrations require the
//	component decorator; a class without it still yields props and extends.
func AnalyzeClass(module *tsast.Module, cls *tsast.ComponentClass) (*Analysis, bool) {
	if cls == nil {
		return nil, false
	}

	a := &Analysis{
		Name:               cls.Name,
		ClassStart:         cls.Start,
		ClassEnd:           cls.End,
		Description:        classDescription(cls),
		RenderInsertOffset: cls.End - 1,
	}

	for _, m := range cls.Members {
		a.Props = append(a.Props, Prop{
			Name:        m.Name,
			Start:       m.NameStart,
			End:         m.NameStart + len(m.Name),
			Description: tsast.MarkdownAll(m.Comments),
		})
		if m.Kind == tsast.MemberProperty {
			continue
		}
		if m.ParamsStart < m.ParamsEnd {
			a.SafeRanges = append(a.SafeRanges, Range{Start: m.ParamsStart, End: m.ParamsEnd})
		}
		if m.BodyStart < m.BodyEnd {
			a.SafeRanges = append(a.SafeRanges, Range{Start: m.BodyStart, End: m.BodyEnd})
		}
	}

	if cls.SuperClass != "" {
		if b, path, ok := module.ImportOf(cls.SuperClass); ok && b.Imported != frameworkBase {
			a.Extends = &Extends{Export: b.Imported, Path: path}
		}
	}

	if components := cls.DecoratorProp("Component", "components"); components != nil {
		a.Registers = resolveEntries(module, components.Object)
	}
	if mixins := cls.DecoratorProp("Component", "mixins"); mixins != nil {
		var entries []tsast.ObjectEntry
		for _, name := range mixins.Array {
			entries = append(entries, tsast.ObjectEntry{Key: name, Value: name})
		}
		a.Mixins = resolveEntries(module, entries)
	}

	return a, true
}

// resolveEntries maps registration entries onto the module's imports.
// Entries whose identifier is not imported, or comes from a namespace
// import, are dropped.
func resolveEntries(module *tsast.Module, entries []tsast.ObjectEntry) []Register {
	var registers []Register
	for _, e := range entries {
		b, path, ok := module.ImportOf(e.Value)
		if !ok {
			continue
		}
		registers = append(registers, Register{
			Name:   e.Key,
			Export: b.Imported,
			Prop:   e.Prop,
			Path:   path,
		})
	}
	return registers
}

// classDescription builds the hover card: a fenced code signature followed
// by any leading documentation comments.
func classDescription(cls *tsast.ComponentClass) string {
	return fmt.Sprintf("```typescript\nclass %s\n```\n%s",
		cls.Name, tsast.MarkdownAll(cls.Comments))
}
