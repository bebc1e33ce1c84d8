// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tsast parses component scripts with the tree-sitter TypeScript
// grammar and reduces them to the module facts the rest of the pipeline
// needs: imports, export declarations, re-export transfers, and the
// decorator-marked component class with its members.
//
// Naming convention used throughout the package: wherever a name refers to a
// module export, the empty string stands for the default export. Real export
// names are never empty, so the two spaces cannot collide.
package tsast

// Module is the fact sheet extracted from one script.
//
// Description:
//
//	Declaration order is preserved in Imports and Decls; the tie-break rules
//	for ambiguous wildcard re-exports depend on it. All byte offsets are in
//	the coordinate space of the document the script was cut from (the base
//	passed to Parse), not the script slice itself.
type Module struct {
	FilePath string
	Imports  []Import
	Decls    []ExportFact

	// Classes holds every exported class in declaration order, whether or
	// not it carries the component decorator.
	Classes []*ComponentClass

	// HasError is set when the grammar reported syntax errors. Extraction is
	// still best-effort in that case.
	HasError bool
}

// Import is one import statement.
type Import struct {
	Path      string
	Bindings  []ImportBinding
	Namespace string
	Start     int
	End       int
}

// ImportBinding is a single imported name. Imported is the export name in
// the source module, empty for the default import.
type ImportBinding struct {
	Local    string
	Imported string
}

// ExportKind discriminates ExportFact.
type ExportKind int

const (
	// ExportDeclaration is an exported declaration: export class X, export
	// const x, export interface I.
	ExportDeclaration ExportKind = iota + 1
	// ExportClause is an export list: export { a, b as c } [from "..."].
	ExportClause
	// ExportDefault is a default-exported declaration: export default class.
	ExportDefault
	// ExportDefaultExpr is a default-exported expression: export default foo.
	ExportDefaultExpr
	// ExportStar is a wildcard re-export: export * from "...".
	ExportStar
)

// ExportFact is one export declaration, in source order.
type ExportFact struct {
	Kind ExportKind

	// Name is the declared identifier for ExportDeclaration, or the
	// referenced identifier for ExportDefaultExpr (empty when the default
	// export is not a plain identifier).
	Name string

	// Specs carries the entries of an ExportClause.
	Specs []ExportSpec

	// Path is the source module of a clause-with-source or star export.
	Path string

	// IsComponent marks a declared class carrying the component decorator.
	IsComponent bool
}

// ExportSpec is one entry of an export clause. Orig is the name in the
// source module or local scope; Exported is the name consumers see.
type ExportSpec struct {
	Orig     string
	Exported string
}

// Transfer is a re-export edge: this module exposes Local (empty = default)
// by forwarding Export (empty = default) from Path. Star transfers forward
// every name and carry no names of their own.
type Transfer struct {
	Local  string
	Export string
	Path   string
	IsStar bool
}

// ExportResultKind discriminates ExportResult.
type ExportResultKind int

const (
	// ExportCurrent: the export is a component class defined in this module.
	ExportCurrent ExportResultKind = iota + 1
	// ExportOther: the export is forwarded from another module.
	ExportOther
	// ExportNone: the export does not exist, or is not a component.
	ExportNone
	// ExportPossible: wildcard re-exports may provide it; Possible lists the
	// candidate module paths in declaration order.
	ExportPossible
)

// ExportResult is the outcome of resolving one export name against a module.
type ExportResult struct {
	Kind     ExportResultKind
	Path     string
	Name     string
	Possible []string
}

// MemberKind discriminates class members.
type MemberKind int

const (
	MemberProperty MemberKind = iota
	MemberMethod
	MemberGetter
	MemberSetter
)

// Member is one instance property or method of the component class.
type Member struct {
	Name      string
	NameStart int
	Kind      MemberKind
	Static    bool

	// Comments holds the raw leading comment blocks, outermost first.
	Comments []string

	// ParamsStart,ParamsEnd span the first through last formal parameter,
	// excluding the parentheses; both zero when there are none.
	ParamsStart int
	ParamsEnd   int

	// BodyStart,BodyEnd span the method body including its braces; both zero
	// for bodiless members.
	BodyStart int
	BodyEnd   int
}

// Decorator is one class decorator. Props is populated only when the
// decorator is called with an object-literal first argument.
type Decorator struct {
	Name  string
	Props []DecoratorProp
}

// DecoratorProp is a top-level property of a decorator's argument object.
// Exactly one of Object and Array is set, depending on the value's shape.
type DecoratorProp struct {
	Key    string
	Object []ObjectEntry
	Array  []string
}

// ObjectEntry is one property of a nested object literal. Value is the bound
// identifier (equal to Key for shorthand properties); Prop carries the
// member name when the value reaches through one level of static-property
// access, as in Select.Option.
type ObjectEntry struct {
	Key   string
	Value string
	Prop  string
}

// ComponentClass is an exported class declaration.
type ComponentClass struct {
	Name       string
	ExportName string
	Start      int
	End        int
	SuperClass string
	Comments   []string
	Decorators []Decorator
	Members    []Member
}

// HasDecorator reports whether the class carries a decorator with the given
// callee name. Matching is purely syntactic.
func (c *ComponentClass) HasDecorator(name string) bool {
	for _, d := range c.Decorators {
		if d.Name == name {
			return true
		}
	}
	return false
}

// DecoratorProp returns the named top-level property of the first decorator
// matching decoratorName, or nil.
func (c *ComponentClass) DecoratorProp(decoratorName, key string) *DecoratorProp {
	for i := range c.Decorators {
		if c.Decorators[i].Name != decoratorName {
			continue
		}
		for j := range c.Decorators[i].Props {
			if c.Decorators[i].Props[j].Key == key {
				return &c.Decorators[i].Props[j]
			}
		}
	}
	return nil
}

// DefaultClass returns the default-exported class, or nil.
func (m *Module) DefaultClass() *ComponentClass {
	for _, c := range m.Classes {
		if c.ExportName == "" {
			return c
		}
	}
	return nil
}

// ClassFor returns the exported class matching the export name (empty =
// default), or nil.
func (m *Module) ClassFor(export string) *ComponentClass {
	for _, c := range m.Classes {
		if c.ExportName == export {
			return c
		}
	}
	return nil
}

// ImportOf resolves a local identifier to its import binding and module
// path. Namespace imports are not considered.
func (m *Module) ImportOf(local string) (ImportBinding, string, bool) {
	for _, imp := range m.Imports {
		for _, b := range imp.Bindings {
			if b.Local == local {
				return b, imp.Path, true
			}
		}
	}
	return ImportBinding{}, "", false
}

// LocalExportsAndTransfers splits the module's exports into names defined
// locally (empty string = the default export) and re-export transfers, both
// in declaration order.
func (m *Module) LocalExportsAndTransfers() ([]string, []Transfer) {
	var locals []string
	var transfers []Transfer
	for _, d := range m.Decls {
		switch d.Kind {
		case ExportDeclaration:
			if b, path, ok := m.ImportOf(d.Name); ok {
				transfers = append(transfers, Transfer{Local: d.Name, Export: b.Imported, Path: path})
			} else {
				locals = append(locals, d.Name)
			}
		case ExportClause:
			for _, s := range d.Specs {
				if d.Path != "" {
					transfers = append(transfers, Transfer{Local: s.Exported, Export: s.Orig, Path: d.Path})
				} else if b, path, ok := m.ImportOf(s.Orig); ok {
					transfers = append(transfers, Transfer{Local: s.Exported, Export: b.Imported, Path: path})
				} else {
					locals = append(locals, s.Exported)
				}
			}
		case ExportDefault:
			locals = append(locals, "")
		case ExportDefaultExpr:
			if d.Name != "" {
				if b, path, ok := m.ImportOf(d.Name); ok {
					transfers = append(transfers, Transfer{Export: b.Imported, Path: path})
				}
			}
		case ExportStar:
			transfers = append(transfers, Transfer{Path: d.Path, IsStar: true})
		}
	}
	return locals, transfers
}

// ResolveExport follows one export name (empty = default) through the
// module's declarations.
//
// Description:
//
//	Declarations are checked in source order. A locally-declared component
//	class answers ExportCurrent; a forwarded binding answers ExportOther
//	with the source path and the name to chase there; star re-exports
//	accumulate and answer ExportPossible only when nothing more specific
//	matched first.
func (m *Module) ResolveExport(name string) ExportResult {
	var possible []string
	for _, d := range m.Decls {
		switch d.Kind {
		case ExportDeclaration:
			if name != "" && name == d.Name {
				if d.IsComponent {
					return ExportResult{Kind: ExportCurrent}
				}
				return ExportResult{Kind: ExportNone}
			}
		case ExportClause:
			for _, s := range d.Specs {
				if s.Exported != name {
					continue
				}
				if d.Path != "" {
					return ExportResult{Kind: ExportOther, Path: d.Path, Name: s.Orig}
				}
				key := name
				if key == "" {
					key = "default"
				}
				if b, path, ok := m.ImportOf(key); ok {
					return ExportResult{Kind: ExportOther, Path: path, Name: b.Imported}
				}
				return ExportResult{Kind: ExportNone}
			}
		case ExportDefault:
			if name == "" {
				if d.IsComponent {
					return ExportResult{Kind: ExportCurrent}
				}
				return ExportResult{Kind: ExportNone}
			}
		case ExportDefaultExpr:
			if name == "" {
				if d.Name != "" {
					if b, path, ok := m.ImportOf(d.Name); ok {
						return ExportResult{Kind: ExportOther, Path: path, Name: b.Imported}
					}
				}
				return ExportResult{Kind: ExportNone}
			}
		case ExportStar:
			possible = append(possible, d.Path)
		}
	}
	if len(possible) > 0 {
		return ExportResult{Kind: ExportPossible, Possible: possible}
	}
	return ExportResult{Kind: ExportNone}
}
