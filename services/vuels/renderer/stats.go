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

// GraphStats summarizes the relationship graph for the debug endpoints.
type GraphStats struct {
	Nodes         int `json:"nodes"`
	Components    int `json:"components"`
	Scripts       int `json:"scripts"`
	Libraries     int `json:"libraries"`
	Unknown       int `json:"unknown"`
	Edges         int `json:"edges"`
	ExtendsEdges  int `json:"extends_edges"`
	RegisterEdges int `json:"register_edges"`
	TransferEdges int `json:"transfer_edges"`
	VirtualEdges  int `json:"virtual_edges"`
}

// EdgeStats describes one outgoing edge of a node.
type EdgeStats struct {
	Kind   string `json:"kind"`
	To     string `json:"to"`
	Export string `json:"export,omitempty"`
	Name   string `json:"name,omitempty"`
	Prop   string `json:"prop,omitempty"`
	Star   bool   `json:"star,omitempty"`
}

// NodeStats describes one file's cache entry and its graph neighborhood.
type NodeStats struct {
	Path           string      `json:"path"`
	Kind           string      `json:"kind"`
	Version        int32       `json:"version,omitempty"`
	Props          []string    `json:"props,omitempty"`
	InheritedProps []string    `json:"inherited_props,omitempty"`
	Edges          []EdgeStats `json:"edges,omitempty"`
	Dependents     []string    `json:"dependents,omitempty"`
}

// Stats returns aggregate graph counters.
//
// Thread Safety: Safe for concurrent use; takes the renderer lock.
func (r *Renderer) Stats() GraphStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s GraphStats
	for _, n := range r.graph.nodes {
		s.Nodes++
		switch n.cache.Kind() {
		case CacheComponent:
			s.Components++
		case CacheScript:
			s.Scripts++
		case CacheLibrary:
			s.Libraries++
		default:
			s.Unknown++
		}
		for _, e := range n.out {
			s.Edges++
			switch e.edge.Kind {
			case EdgeExtends:
				s.ExtendsEdges++
			case EdgeRegisters:
				s.RegisterEdges++
			case EdgeTransfer:
				s.TransferEdges++
			}
		}
	}
	s.VirtualEdges = len(r.graph.virtual)
	return s
}

// NodeStats returns one node's cache summary, edges, and dependents.
func (r *Renderer) NodeStats(path string) (*NodeStats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.graph.nodes[path]
	if !ok {
		return nil, false
	}

	info := &NodeStats{Path: path, Kind: cacheKindName(n.cache.Kind())}
	switch c := n.cache.(type) {
	case *ComponentCache:
		info.Version = c.Version
		info.Props = c.PropNames()
		for _, p := range r.graph.InheritedProps(path) {
			info.InheritedProps = append(info.InheritedProps, p.Name)
		}
	case *ScriptCache:
		if c.Component != nil {
			for _, p := range c.Component.Props {
				info.Props = append(info.Props, p.Name)
			}
		}
	}

	for _, e := range n.out {
		info.Edges = append(info.Edges, EdgeStats{
			Kind:   edgeKindName(e.edge.Kind),
			To:     e.to,
			Export: e.edge.Export,
			Name:   e.edge.Name,
			Prop:   e.edge.Prop,
			Star:   e.edge.IsStar,
		})
	}

	for from, other := range r.graph.nodes {
		if from == path {
			continue
		}
		for _, e := range other.out {
			if e.to == path {
				info.Dependents = append(info.Dependents, from)
				break
			}
		}
	}
	return info, true
}

func cacheKindName(k CacheKind) string {
	switch k {
	case CacheComponent:
		return "component"
	case CacheScript:
		return "script"
	case CacheLibrary:
		return "library"
	default:
		return "unknown"
	}
}

func edgeKindName(k EdgeKind) string {
	switch k {
	case EdgeExtends:
		return "extends"
	case EdgeRegisters:
		return "registers"
	case EdgeTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}
