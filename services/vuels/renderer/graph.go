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
	"log/slog"

	"github.com/AleutianAI/vuebridge/services/vuels/analyzer"
)

// EdgeKind discriminates relationship edges.
type EdgeKind int

const (
	// EdgeExtends: the source component's class extends an export of the
	// target file.
	EdgeExtends EdgeKind = iota + 1

	// EdgeRegisters: the source component registers an export of the target
	// file under a tag name.
	EdgeRegisters

	// EdgeTransfer: the source file re-exports something from the target.
	EdgeTransfer
)

// Edge is the relationship payload between two files. Export uses the empty
// string for the default export throughout.
type Edge struct {
	Kind EdgeKind

	// Export names the target's export the relationship reaches for.
	Export string

	// Name is the registered tag for EdgeRegisters, and the local exported
	// name for EdgeTransfer.
	Name string

	// Prop is the one-level static member for library registrations, as in
	// Select.Option.
	Prop string

	// IsStar marks a wildcard re-export; such edges carry no names.
	IsStar bool
}

type edgeRec struct {
	to   string
	edge Edge
}

type graphNode struct {
	cache Cache
	out   []edgeRec
}

type virtualEdge struct {
	from string
	to   string
	edge Edge
}

// Graph is the file relationship graph.
//
// Description:
//
//	Nodes are keyed by absolute file path and carry the file's render cache.
//	Edges record extends, register, and re-export relationships. Edges whose
//	target is not yet a node are parked as virtual edges until Flush, so the
//	initial scan can add files in any order.
//
// Thread Safety:
//
//	Not safe for concurrent use. The Renderer serializes all access under
//	its own mutex.
type Graph struct {
	nodes   map[string]*graphNode
	virtual []virtualEdge
}

// NewGraph creates an empty relationship graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*graphNode)}
}

// Get returns the cache stored for path, or nil.
func (g *Graph) Get(path string) Cache {
	if n, ok := g.nodes[path]; ok {
		return n.cache
	}
	return nil
}

// Has reports whether path is a node.
func (g *Graph) Has(path string) bool {
	_, ok := g.nodes[path]
	return ok
}

// AddNode inserts or replaces the cache for path. Existing edges survive a
// replacement.
func (g *Graph) AddNode(path string, cache Cache) {
	if n, ok := g.nodes[path]; ok {
		n.cache = cache
		return
	}
	g.nodes[path] = &graphNode{cache: cache}
}

// AddEdge records a relationship from one existing node to another.
// Duplicate edges (same target and payload) are suppressed. An edge naming a
// missing node is dropped with a warning; use AddVirtualEdge during scans.
func (g *Graph) AddEdge(from, to string, edge Edge) {
	src, ok := g.nodes[from]
	if !ok {
		slog.Warn("relationship edge from unknown file", slog.String("from", from))
		return
	}
	if _, exists := g.nodes[to]; !exists {
		slog.Warn("relationship edge to unknown file",
			slog.String("from", from), slog.String("to", to))
		return
	}
	for _, rec := range src.out {
		if rec.to == to && rec.edge == edge {
			return
		}
	}
	src.out = append(src.out, edgeRec{to: to, edge: edge})
}

// AddVirtualEdge parks an edge until Flush. Scans use this so relationships
// can be recorded before both endpoints exist.
func (g *Graph) AddVirtualEdge(from, to string, edge Edge) {
	g.virtual = append(g.virtual, virtualEdge{from: from, to: to, edge: edge})
}

// Flush materializes all parked virtual edges. Edges whose endpoints still
// do not exist are dropped with a warning.
func (g *Graph) Flush() {
	pending := g.virtual
	g.virtual = nil
	for _, v := range pending {
		g.AddEdge(v.from, v.to, v.edge)
	}
}

// RemoveOutgoingEdges drops every edge leaving path.
func (g *Graph) RemoveOutgoingEdges(path string) {
	if n, ok := g.nodes[path]; ok {
		n.out = nil
	}
}

// RemoveNode drops path and every edge touching it.
func (g *Graph) RemoveNode(path string) {
	delete(g.nodes, path)
	for _, n := range g.nodes {
		kept := n.out[:0]
		for _, rec := range n.out {
			if rec.to != path {
				kept = append(kept, rec)
			}
		}
		n.out = kept
	}
}

// BumpIncomingVersions increments the cached document version of every
// component file with an edge into path. The projection of a dependent is
// re-published under a new version when a dependency changes underneath it.
func (g *Graph) BumpIncomingVersions(path string) []string {
	var bumped []string
	for from, n := range g.nodes {
		for _, rec := range n.out {
			if rec.to != path {
				continue
			}
			if c, ok := n.cache.(*ComponentCache); ok {
				c.Version++
				bumped = append(bumped, from)
			}
			break
		}
	}
	return bumped
}

// Registers returns every register edge leaving path in insertion order.
func (g *Graph) Registers(path string) []RegisterEdge {
	n, ok := g.nodes[path]
	if !ok {
		return nil
	}
	var regs []RegisterEdge
	for _, rec := range n.out {
		if rec.edge.Kind == EdgeRegisters {
			regs = append(regs, RegisterEdge{
				Target: rec.to,
				Tag:    rec.edge.Name,
				Export: rec.edge.Export,
				Prop:   rec.edge.Prop,
			})
		}
	}
	return regs
}

// RegisterEdge is one resolved component registration.
type RegisterEdge struct {
	Target string
	Tag    string
	Export string
	Prop   string
}

// Register returns path's registration for the given tag name.
func (g *Graph) Register(path, tag string) (RegisterEdge, bool) {
	for _, reg := range g.Registers(path) {
		if reg.Tag == tag {
			return reg, true
		}
	}
	return RegisterEdge{}, false
}

// extendsEdges returns every extends edge leaving path in insertion order:
// the superclass first, then mixins in declaration order.
func (g *Graph) extendsEdges(path string) []edgeRec {
	n, ok := g.nodes[path]
	if !ok {
		return nil
	}
	var edges []edgeRec
	for _, rec := range n.out {
		if rec.edge.Kind == EdgeExtends {
			edges = append(edges, rec)
		}
	}
	return edges
}

// transferTarget returns the transfer edge of path exposing export, skipping
// wildcard edges.
func (g *Graph) transferTarget(path, export string) (string, string, bool) {
	n, ok := g.nodes[path]
	if !ok {
		return "", "", false
	}
	for _, rec := range n.out {
		if rec.edge.Kind == EdgeTransfer && !rec.edge.IsStar && rec.edge.Name == export {
			return rec.to, rec.edge.Export, true
		}
	}
	return "", "", false
}

// starTargets returns the wildcard re-export targets of path in declaration
// order.
func (g *Graph) starTargets(path string) []string {
	n, ok := g.nodes[path]
	if !ok {
		return nil
	}
	var targets []string
	for _, rec := range n.out {
		if rec.edge.Kind == EdgeTransfer && rec.edge.IsStar {
			targets = append(targets, rec.to)
		}
	}
	return targets
}

// resolveStar chases wildcard re-exports looking for a file that actually
// provides export. Targets are tried in declaration order and the first one
// that resolves wins; later candidates are ignored even if they would also
// resolve. Returns the providing file.
func (g *Graph) resolveStar(path, export string, seen map[string]bool) (string, bool) {
	if seen[path] {
		return "", false
	}
	seen[path] = true
	for _, target := range g.starTargets(path) {
		if g.provides(target, export, seen) {
			return target, true
		}
	}
	return "", false
}

// provides reports whether the file at path defines export itself, forwards
// it by name, or reaches it through its own wildcard re-exports.
func (g *Graph) provides(path, export string, seen map[string]bool) bool {
	switch c := g.Get(path).(type) {
	case *ComponentCache:
		return export == ""
	case *ScriptCache:
		if c.HasLocalExport(export) {
			return true
		}
	case *LibraryCache:
		return c.Component(export) != nil
	}
	if _, _, ok := g.transferTarget(path, export); ok {
		return true
	}
	_, ok := g.resolveStar(path, export, seen)
	return ok
}

// InheritedProps walks the extends edges of path and collects the properties
// contributed by every ancestor component.
//
// Description:
//
//	Extends edges are followed in insertion order: the superclass first,
//	then mixins in declaration order. Each hop lands on a file and an
//	export name. A component file contributes its props and the walk
//	continues through its own extends edges. A script file contributes
//	props only when the requested export is its default-exported component;
//	a named local export stops that branch, a matching re-export forwards
//	it, and wildcard re-exports are chased in declaration order with the
//	first resolving branch taken. Library files end the walk.
func (g *Graph) InheritedProps(path string) []analyzer.Prop {
	var props []analyzer.Prop
	visited := map[string]bool{path: true}
	for _, e := range g.extendsEdges(path) {
		props = append(props, g.chainProps(e.to, e.edge.Export, visited)...)
	}
	return props
}

func (g *Graph) chainProps(cur, export string, visited map[string]bool) []analyzer.Prop {
	if visited[cur] {
		return nil
	}
	visited[cur] = true
	var props []analyzer.Prop
	switch c := g.Get(cur).(type) {
	case *ComponentCache:
		props = append(props, c.Props...)
	case *ScriptCache:
		if export == "" && c.Component != nil {
			props = append(props, c.Component.Props...)
			break
		}
		if c.HasLocalExport(export) {
			return nil
		}
		if next, nextExport, ok := g.transferTarget(cur, export); ok {
			return g.chainProps(next, nextExport, visited)
		}
		if next, ok := g.resolveStar(cur, export, map[string]bool{}); ok {
			return g.chainProps(next, export, visited)
		}
		return nil
	default:
		return nil
	}
	for _, e := range g.extendsEdges(cur) {
		props = append(props, g.chainProps(e.to, e.edge.Export, visited)...)
	}
	return props
}
