// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tsast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

const (
	// DefaultMaxFileSize is the largest script the parser accepts.
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize triggers a log warning for unusually large scripts.
	WarnFileSize = 1024 * 1024
)

var (
	// ErrFileTooLarge is returned when content exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent is returned for content that is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")
)

// ParserOption configures a Parser instance.
type ParserOption func(*Parser)

// WithMaxFileSize sets the maximum script size the parser will accept.
func WithMaxFileSize(bytes int64) ParserOption {
	return func(p *Parser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// WithComponentDecorator overrides the decorator name that marks a class as
// a component. The default is "Component".
func WithComponentDecorator(name string) ParserOption {
	return func(p *Parser) {
		if name != "" {
			p.componentDecorator = name
		}
	}
}

// Parser extracts Module facts from TypeScript source.
//
// Thread Safety:
//
//	Parser instances are safe for concurrent use. Each Parse call creates
//	its own tree-sitter parser internally.
type Parser struct {
	maxFileSize        int64
	componentDecorator string
}

// NewParser creates a Parser with the given options.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		maxFileSize:        DefaultMaxFileSize,
		componentDecorator: "Component",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts module facts from a script slice.
//
// Description:
//
//	content is the script text only, already cut out of its containing
//	document; base is the byte offset the slice starts at, and every offset
//	in the returned Module is pre-shifted by it. Extraction is error
//	tolerant: syntactically broken scripts yield a Module with HasError set
//	and whatever facts could still be read.
//
// Outputs:
//   - *Module: never nil on success.
//   - error: ErrFileTooLarge, ErrInvalidContent, context errors, or a
//     tree-sitter failure.
func (p *Parser) Parse(ctx context.Context, content []byte, base int, filePath string) (*Module, error) {
	ctx, span := startParseSpan(ctx, filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, time.Since(start), false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(ctx, time.Since(start), false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large script",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		recordParseMetrics(ctx, time.Since(start), false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, time.Since(start), false)
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	module := &Module{FilePath: filePath}

	root := tree.RootNode()
	if root == nil {
		module.HasError = true
		recordParseMetrics(ctx, time.Since(start), false)
		return module, nil
	}
	if root.HasError() {
		module.HasError = true
	}

	r := &reader{content: content, base: base, componentDecorator: p.componentDecorator}
	r.readProgram(root, module)

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, time.Since(start), false)
		return nil, fmt.Errorf("parse canceled after extraction: %w", err)
	}

	setParseSpanResult(span, len(module.Decls), module.HasError)
	recordParseMetrics(ctx, time.Since(start), !module.HasError)

	return module, nil
}

// reader carries the per-parse state for the extraction walk.
type reader struct {
	content            []byte
	base               int
	componentDecorator string
}

func (r *reader) text(n *sitter.Node) string {
	return string(r.content[n.StartByte():n.EndByte()])
}

func (r *reader) offset(b uint32) int {
	return r.base + int(b)
}

func (r *reader) readProgram(root *sitter.Node, module *Module) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "import_statement":
			if imp := r.readImport(child); imp.Path != "" {
				module.Imports = append(module.Imports, imp)
			}
		case "export_statement":
			r.readExport(child, module)
		}
	}
}

func (r *reader) readImport(node *sitter.Node) Import {
	imp := Import{
		Start: r.offset(node.StartByte()),
		End:   r.offset(node.EndByte()),
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "string":
			imp.Path = r.stringContent(child)
		case "import_clause":
			r.readImportClause(child, &imp)
		}
	}
	return imp
}

func (r *reader) readImportClause(node *sitter.Node, imp *Import) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			// Default import: the local name binds the source's default.
			imp.Bindings = append(imp.Bindings, ImportBinding{Local: r.text(child)})
		case "namespace_import":
			for j := 0; j < int(child.ChildCount()); j++ {
				if gc := child.Child(j); gc.Type() == "identifier" {
					imp.Namespace = r.text(gc)
				}
			}
		case "named_imports":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() != "import_specifier" {
					continue
				}
				name, alias := r.specifierNames(gc)
				if name == "" {
					continue
				}
				local := alias
				if local == "" {
					local = name
				}
				imp.Bindings = append(imp.Bindings, ImportBinding{Local: local, Imported: name})
			}
		}
	}
}

// specifierNames reads the name and optional alias of an import or export
// specifier.
func (r *reader) specifierNames(node *sitter.Node) (name, alias string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier", "string":
			value := r.text(child)
			if child.Type() == "string" {
				value = r.stringContent(child)
			}
			if name == "" {
				name = value
			} else {
				alias = value
			}
		}
	}
	return name, alias
}

func (r *reader) readExport(node *sitter.Node, module *Module) {
	var decorators []Decorator
	var comments []string
	isDefault := false
	recorded := false

	// Leading comments sit before the export statement, or before its
	// decorators when the decorator form is used.
	comments = r.leadingComments(node)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "ambient_declaration" {
			// export declare class/function: the declaration sits one
			// level down, past the declare keyword.
			child = unwrapAmbient(child)
		}
		switch child.Type() {
		case "decorator":
			if d, ok := r.readDecorator(child); ok {
				decorators = append(decorators, d)
			}
		case "default":
			isDefault = true
		case "class_declaration", "abstract_class_declaration":
			cls := r.readClass(child, decorators, comments)
			if !isDefault {
				cls.ExportName = cls.Name
			}
			module.Classes = append(module.Classes, cls)
			kind := ExportDeclaration
			if isDefault {
				kind = ExportDefault
			}
			module.Decls = append(module.Decls, ExportFact{
				Kind:        kind,
				Name:        cls.Name,
				IsComponent: cls.HasDecorator(r.componentDecorator),
			})
			recorded = true
		case "function_declaration", "generator_function_declaration":
			kind := ExportDeclaration
			if isDefault {
				kind = ExportDefault
			}
			module.Decls = append(module.Decls, ExportFact{Kind: kind, Name: r.declaredName(child)})
			recorded = true
		case "interface_declaration", "type_alias_declaration", "enum_declaration":
			module.Decls = append(module.Decls, ExportFact{Kind: ExportDeclaration, Name: r.declaredName(child)})
			recorded = true
		case "lexical_declaration", "variable_declaration":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() != "variable_declarator" {
					continue
				}
				for k := 0; k < int(gc.ChildCount()); k++ {
					if id := gc.Child(k); id.Type() == "identifier" {
						module.Decls = append(module.Decls, ExportFact{Kind: ExportDeclaration, Name: r.text(id)})
						recorded = true
						break
					}
				}
			}
		case "export_clause":
			fact := ExportFact{Kind: ExportClause}
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() != "export_specifier" {
					continue
				}
				orig, exported := r.specifierNames(gc)
				if orig == "" {
					continue
				}
				if exported == "" {
					exported = orig
				}
				fact.Specs = append(fact.Specs, ExportSpec{
					Orig:     defaultAsEmpty(orig),
					Exported: defaultAsEmpty(exported),
				})
			}
			fact.Path = r.trailingSource(node)
			module.Decls = append(module.Decls, fact)
			recorded = true
		case "*":
			module.Decls = append(module.Decls, ExportFact{Kind: ExportStar, Path: r.trailingSource(node)})
			recorded = true
		case "identifier":
			if isDefault {
				module.Decls = append(module.Decls, ExportFact{Kind: ExportDefaultExpr, Name: r.text(child)})
				recorded = true
			}
		}
	}

	// export default <non-identifier expression> still occupies the default
	// slot, it just cannot be chased anywhere.
	if isDefault && !recorded {
		module.Decls = append(module.Decls, ExportFact{Kind: ExportDefaultExpr})
	}
}

// unwrapAmbient returns the declaration inside an ambient_declaration node,
// or the node itself when none is found.
func unwrapAmbient(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "declare", "comment":
		default:
			return child
		}
	}
	return node
}

// trailingSource returns the module path of an export statement's from
// clause, or the empty string.
func (r *reader) trailingSource(node *sitter.Node) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == "string" {
			return r.stringContent(child)
		}
	}
	return ""
}

func (r *reader) declaredName(node *sitter.Node) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" || child.Type() == "type_identifier" {
			return r.text(child)
		}
	}
	return ""
}

func (r *reader) readClass(node *sitter.Node, decorators []Decorator, comments []string) *ComponentClass {
	cls := &ComponentClass{
		Name:       "Default",
		Start:      r.offset(node.StartByte()),
		End:        r.offset(node.EndByte()),
		Comments:   comments,
		Decorators: decorators,
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "decorator":
			if d, ok := r.readDecorator(child); ok {
				cls.Decorators = append(cls.Decorators, d)
			}
		case "class":
			// The recorded span starts at the keyword, decorators excluded.
			cls.Start = r.offset(child.StartByte())
		case "type_identifier":
			cls.Name = r.text(child)
		case "class_heritage":
			cls.SuperClass = r.superClassName(child)
		case "class_body":
			r.readClassBody(child, cls)
		}
	}
	return cls
}

// superClassName returns the extends identifier, or empty for complex
// superclass expressions (mixins factories and the like).
func (r *reader) superClassName(node *sitter.Node) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "extends_clause" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			gc := child.Child(j)
			if gc.Type() == "identifier" || gc.Type() == "type_identifier" {
				return r.text(gc)
			}
		}
	}
	return ""
}

func (r *reader) readClassBody(body *sitter.Node, cls *ComponentClass) {
	var pending []string
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "comment":
			pending = append(pending, r.text(child))
			continue
		case "method_definition", "abstract_method_signature":
			if m, ok := r.readMethod(child); ok {
				m.Comments = pending
				cls.Members = append(cls.Members, m)
			}
		case "public_field_definition", "field_definition":
			if m, ok := r.readField(child); ok {
				m.Comments = pending
				cls.Members = append(cls.Members, m)
			}
		}
		pending = nil
	}
}

func (r *reader) readMethod(node *sitter.Node) (Member, bool) {
	m := Member{Kind: MemberMethod}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "static":
			m.Static = true
		case "get":
			m.Kind = MemberGetter
		case "set":
			m.Kind = MemberSetter
		case "property_identifier", "private_property_identifier":
			m.Name = r.text(child)
			m.NameStart = r.offset(child.StartByte())
		case "string":
			m.Name = r.stringContent(child)
			m.NameStart = r.offset(child.StartByte())
		case "formal_parameters":
			m.ParamsStart, m.ParamsEnd = r.parameterSpan(child)
		case "statement_block":
			m.BodyStart = r.offset(child.StartByte())
			m.BodyEnd = r.offset(child.EndByte())
		}
	}
	if m.Name == "" || m.Name == "constructor" {
		return Member{}, false
	}
	return m, true
}

func (r *reader) readField(node *sitter.Node) (Member, bool) {
	m := Member{Kind: MemberProperty}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "static":
			m.Static = true
		case "property_identifier", "private_property_identifier":
			m.Name = r.text(child)
			m.NameStart = r.offset(child.StartByte())
		case "string":
			m.Name = r.stringContent(child)
			m.NameStart = r.offset(child.StartByte())
		}
	}
	if m.Name == "" {
		return Member{}, false
	}
	return m, true
}

// parameterSpan spans the first through last parameter inside a
// formal_parameters node, excluding the parentheses.
func (r *reader) parameterSpan(node *sitter.Node) (int, int) {
	start, end := 0, 0
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if !strings.HasSuffix(child.Type(), "parameter") {
			continue
		}
		if start == 0 && end == 0 {
			start = r.offset(child.StartByte())
		}
		end = r.offset(child.EndByte())
	}
	return start, end
}

func (r *reader) readDecorator(node *sitter.Node) (Decorator, bool) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			return Decorator{Name: r.text(child)}, true
		case "call_expression":
			d := Decorator{}
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "identifier":
					if d.Name == "" {
						d.Name = r.text(gc)
					}
				case "arguments":
					d.Props = r.decoratorArgProps(gc)
				}
			}
			return d, d.Name != ""
		}
	}
	return Decorator{}, false
}

// decoratorArgProps reads the top-level properties of an object-literal
// first argument.
func (r *reader) decoratorArgProps(args *sitter.Node) []DecoratorProp {
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(i)
		if child.Type() == "object" {
			return r.objectProps(child)
		}
	}
	return nil
}

func (r *reader) objectProps(obj *sitter.Node) []DecoratorProp {
	var props []DecoratorProp
	for i := 0; i < int(obj.ChildCount()); i++ {
		child := obj.Child(i)
		if child.Type() != "pair" {
			continue
		}
		prop := DecoratorProp{}
		for j := 0; j < int(child.ChildCount()); j++ {
			gc := child.Child(j)
			switch gc.Type() {
			case "property_identifier":
				prop.Key = r.text(gc)
			case "string":
				prop.Key = r.stringContent(gc)
			case "object":
				prop.Object = r.objectEntries(gc)
			case "array":
				prop.Array = r.arrayIdentifiers(gc)
			}
		}
		if prop.Key != "" {
			props = append(props, prop)
		}
	}
	return props
}

func (r *reader) objectEntries(obj *sitter.Node) []ObjectEntry {
	var entries []ObjectEntry
	for i := 0; i < int(obj.ChildCount()); i++ {
		child := obj.Child(i)
		switch child.Type() {
		case "shorthand_property_identifier":
			name := r.text(child)
			entries = append(entries, ObjectEntry{Key: name, Value: name})
		case "pair":
			entry := ObjectEntry{}
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "property_identifier":
					entry.Key = r.text(gc)
				case "string":
					entry.Key = r.stringContent(gc)
				case "identifier":
					entry.Value = r.text(gc)
				case "member_expression":
					entry.Value, entry.Prop = r.memberParts(gc)
				}
			}
			if entry.Key != "" && entry.Value != "" {
				entries = append(entries, entry)
			}
		}
	}
	return entries
}

// memberParts splits one level of static-property access: Select.Option
// yields ("Select", "Option"). Deeper chains keep only the outermost pair.
func (r *reader) memberParts(node *sitter.Node) (string, string) {
	var object, prop string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			object = r.text(child)
		case "property_identifier":
			prop = r.text(child)
		}
	}
	return object, prop
}

func (r *reader) arrayIdentifiers(node *sitter.Node) []string {
	var names []string
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == "identifier" {
			names = append(names, r.text(child))
		}
	}
	return names
}

// leadingComments collects the contiguous run of comment siblings directly
// before a node, outermost first.
func (r *reader) leadingComments(node *sitter.Node) []string {
	var texts []string
	for prev := node.PrevSibling(); prev != nil && prev.Type() == "comment"; prev = prev.PrevSibling() {
		texts = append([]string{r.text(prev)}, texts...)
	}
	return texts
}

func (r *reader) stringContent(node *sitter.Node) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "string_fragment" {
			return r.text(child)
		}
	}
	raw := r.text(node)
	return strings.Trim(raw, `"'`)
}

func defaultAsEmpty(name string) string {
	if name == "default" {
		return ""
	}
	return name
}
