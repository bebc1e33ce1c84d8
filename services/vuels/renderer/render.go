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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/vuebridge/services/vuels/analyzer"
	"github.com/AleutianAI/vuebridge/services/vuels/compiler"
	"github.com/AleutianAI/vuebridge/services/vuels/document"
	"github.com/AleutianAI/vuebridge/services/vuels/tsast"
)

// componentExt is the extension of component files; everything else under
// the project is either a script file or passed through untouched.
const componentExt = ".vue"

// ErrUnknownFile is returned when an incremental update names a file the
// renderer has no usable cache for; the caller should resend the full text.
var ErrUnknownFile = errors.New("no render cache for file")

// Option configures a Renderer.
type Option func(*Renderer)

// WithTargetDir overrides the projection directory. The default is a
// sibling of the project root named ".~$" plus the root's base name.
func WithTargetDir(dir string) Option {
	return func(r *Renderer) {
		if dir != "" {
			r.targetRoot = dir
		}
	}
}

// WithDocumentParser overrides the markup parser.
func WithDocumentParser(p *document.Parser) Option {
	return func(r *Renderer) { r.docParser = p }
}

// WithScriptParser overrides the script parser.
func WithScriptParser(p *tsast.Parser) Option {
	return func(r *Renderer) { r.tsParser = p }
}

// Renderer owns the render cache, the relationship graph, and the shadow
// projection directory of one project.
//
// Thread Safety:
//
//	All exported methods take the renderer's mutex; the graph and caches
//	are only ever touched under it. The initial scan parses files in
//	parallel but mutates the graph from a single goroutine.
type Renderer struct {
	mu sync.Mutex

	root       string
	targetRoot string

	docParser *document.Parser
	tsParser  *tsast.Parser
	resolver  *pathResolver
	graph     *Graph
}

// New creates a Renderer for the project rooted at root. Call Init before
// anything else.
func New(root string, opts ...Option) *Renderer {
	root = filepath.Clean(root)
	r := &Renderer{
		root:       root,
		targetRoot: filepath.Join(filepath.Dir(root), ".~$"+filepath.Base(root)),
		docParser:  document.NewParser(),
		tsParser:   tsast.NewParser(),
		graph:      NewGraph(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TargetRoot returns the projection directory.
func (r *Renderer) TargetRoot() string { return r.targetRoot }

// TargetPath returns the projection path of a project file. Component files
// gain a ".ts" suffix so the backend sees them as TypeScript.
func (r *Renderer) TargetPath(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return ""
	}
	target := filepath.Join(r.targetRoot, rel)
	if filepath.Ext(path) == componentExt {
		target += ".ts"
	}
	return target
}

// OriginalPath inverts TargetPath. The second result is false when the path
// is not under the projection directory.
func (r *Renderer) OriginalPath(target string) (string, bool) {
	rel, err := filepath.Rel(r.targetRoot, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	if strings.HasSuffix(rel, componentExt+".ts") {
		rel = strings.TrimSuffix(rel, ".ts")
	}
	return filepath.Join(r.root, rel), true
}

// pendingRef is a relationship recorded during parsing, before the target
// specifier is resolved against the graph.
type pendingRef struct {
	specifier string
	edge      Edge
}

type scanResult struct {
	path  string
	cache Cache
	refs  []pendingRef
}

// Init builds the render cache, the relationship graph, and the projection
// directory from scratch.
//
// Description:
//
//	The previous projection directory is discarded. Project files are
//	parsed in parallel, then nodes and edges land in the graph from a
//	single goroutine, with edges parked as virtual until every file is in.
//	Component files are rendered into the projection directory; all other
//	files are hard-linked so the backend sees them verbatim; node_modules
//	is symlinked once at the top.
func (r *Renderer) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := time.Now()
	ctx, span := startInitSpan(ctx, r.root)
	defer span.End()

	if err := os.RemoveAll(r.targetRoot); err != nil {
		return fmt.Errorf("clear projection dir: %w", err)
	}
	if err := os.MkdirAll(r.targetRoot, 0o755); err != nil {
		return fmt.Errorf("create projection dir: %w", err)
	}

	alias := map[string]string{}
	if raw, err := os.ReadFile(filepath.Join(r.root, "tsconfig.json")); err == nil {
		alias = ParseAlias(raw, r.root)
	}
	r.resolver = newPathResolver(r.root, alias)

	var sources, others []string
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isSourceFile(path) {
			sources = append(sources, path)
		} else {
			others = append(others, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan project: %w", err)
	}

	results := make([]*scanResult, len(sources))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.NumCPU())
	for i, path := range sources {
		group.Go(func() error {
			content, err := os.ReadFile(path)
			if err != nil {
				slog.Warn("skipping unreadable file", slog.String("file", path), slog.Any("error", err))
				results[i] = &scanResult{path: path, cache: &UnknownCache{}}
				return nil
			}
			cache, refs := r.buildCache(groupCtx, path, string(content))
			results[i] = &scanResult{path: path, cache: cache, refs: refs}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("parse project: %w", err)
	}

	for _, res := range results {
		r.graph.AddNode(res.path, res.cache)
	}
	for _, res := range results {
		r.addRefs(ctx, res.path, res.refs)
	}
	r.graph.Flush()

	for _, res := range results {
		if err := r.writeProjection(res.path); err != nil {
			slog.Warn("projection write failed", slog.String("file", res.path), slog.Any("error", err))
		}
	}
	for _, path := range others {
		if err := r.linkOther(path); err != nil {
			slog.Warn("projection link failed", slog.String("file", path), slog.Any("error", err))
		}
	}
	if nm := filepath.Join(r.root, "node_modules"); dirExists(nm) {
		if err := os.Symlink(nm, filepath.Join(r.targetRoot, "node_modules")); err != nil {
			slog.Warn("node_modules symlink failed", slog.Any("error", err))
		}
	}

	recordInitMetrics(ctx, time.Since(start), len(sources))
	setInitSpanResult(span, len(sources), len(others))
	slog.Info("projection initialized",
		slog.String("root", r.root),
		slog.String("target", r.targetRoot),
		slog.Int("sources", len(sources)),
		slog.Int("passthrough", len(others)))
	return nil
}

func skipDir(name string) bool {
	return name == "node_modules" || strings.HasPrefix(name, ".git") || strings.HasPrefix(name, ".~$")
}

func isSourceFile(path string) bool {
	switch {
	case strings.HasSuffix(path, componentExt):
		return true
	case strings.HasSuffix(path, ".ts"):
		return true
	}
	return false
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// buildCache parses one project file into a cache entry plus its outgoing
// relationships. Pure with respect to the graph, so scans can run it in
// parallel.
func (r *Renderer) buildCache(ctx context.Context, path, content string) (Cache, []pendingRef) {
	if strings.HasSuffix(path, componentExt) {
		return r.buildComponentCache(ctx, path, content)
	}
	return r.buildScriptCache(ctx, path, content)
}

func (r *Renderer) buildComponentCache(ctx context.Context, path, content string) (Cache, []pendingRef) {
	sfc, err := r.docParser.Parse(ctx, []byte(content), path)
	if err != nil || sfc.Script == nil {
		return &UnknownCache{}, nil
	}
	script := content[sfc.Script.StartTagEnd:sfc.Script.EndTagStart]
	module, err := r.tsParser.Parse(ctx, []byte(script), sfc.Script.StartTagEnd, path)
	if err != nil {
		return &UnknownCache{}, nil
	}
	analysis, ok := analyzer.Analyze(module)
	if !ok {
		return &UnknownCache{}, nil
	}
	cache := &ComponentCache{
		Content:            content,
		Template:           sfc.Template,
		Script:             sfc.Script,
		Styles:             sfc.Styles,
		NameStart:          analysis.ClassStart,
		NameEnd:            analysis.ClassEnd,
		Description:        analysis.Description,
		Props:              analysis.Props,
		RenderInsertOffset: analysis.RenderInsertOffset,
		SafeRanges:         analysis.SafeRanges,
	}
	if sfc.Template != nil {
		cache.Compiled, cache.Mapping = compiler.Compile(sfc.Template, content)
	}
	return cache, analysisRefs(analysis)
}

func (r *Renderer) buildScriptCache(ctx context.Context, path, content string) (Cache, []pendingRef) {
	module, err := r.tsParser.Parse(ctx, []byte(content), 0, path)
	if err != nil {
		return &UnknownCache{}, nil
	}
	locals, transfers := module.LocalExportsAndTransfers()
	cache := &ScriptCache{Content: content, LocalExports: locals}
	var refs []pendingRef
	for _, t := range transfers {
		refs = append(refs, pendingRef{
			specifier: t.Path,
			edge:      Edge{Kind: EdgeTransfer, Export: t.Export, Name: t.Local, IsStar: t.IsStar},
		})
	}
	if analysis, ok := analyzer.Analyze(module); ok {
		cache.Component = &ScriptComponent{
			NameStart:   analysis.ClassStart,
			NameEnd:     analysis.ClassEnd,
			Description: analysis.Description,
			Props:       analysis.Props,
		}
		refs = append(refs, analysisRefs(analysis)...)
	}
	return cache, refs
}

// analysisRefs turns extracted component metadata into pending edges:
// the superclass and each mixin extend, each registration registers.
func analysisRefs(analysis *analyzer.Analysis) []pendingRef {
	var refs []pendingRef
	if analysis.Extends != nil {
		refs = append(refs, pendingRef{
			specifier: analysis.Extends.Path,
			edge:      Edge{Kind: EdgeExtends, Export: analysis.Extends.Export},
		})
	}
	for _, m := range analysis.Mixins {
		refs = append(refs, pendingRef{
			specifier: m.Path,
			edge:      Edge{Kind: EdgeExtends, Export: m.Export},
		})
	}
	for _, reg := range analysis.Registers {
		refs = append(refs, pendingRef{
			specifier: reg.Path,
			edge:      Edge{Kind: EdgeRegisters, Export: reg.Export, Name: reg.Name, Prop: reg.Prop},
		})
	}
	return refs
}

// addRefs resolves pending relationships and parks them as virtual edges.
// Library targets get their cache node created on first sight.
func (r *Renderer) addRefs(ctx context.Context, from string, refs []pendingRef) {
	for _, ref := range refs {
		resolved := r.resolver.Resolve(from, ref.specifier)
		switch resolved.Kind {
		case ImportFile:
			r.graph.AddVirtualEdge(from, resolved.Path, ref.edge)
		case ImportLibrary:
			if !r.graph.Has(resolved.Path) {
				r.graph.AddNode(resolved.Path, parseLibrary(ctx, r.tsParser, resolved.Path, resolved.Library))
			}
			r.graph.AddVirtualEdge(from, resolved.Path, ref.edge)
		default:
			slog.Debug("unresolved import", slog.String("from", from), slog.String("specifier", ref.specifier))
		}
	}
}

// Render returns the current full projection text of a project file.
func (r *Renderer) Render(path string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renderLocked(path)
}

func (r *Renderer) renderLocked(path string) (string, bool) {
	switch c := r.graph.Get(path).(type) {
	case *ComponentCache:
		return r.projectionLocked(c, path), true
	case *ScriptCache:
		return c.Content, true
	case *UnknownCache:
		return "", true
	}
	return "", false
}

func (r *Renderer) projectionLocked(c *ComponentCache, path string) string {
	props := c.PropNames()
	for _, p := range r.graph.InheritedProps(path) {
		props = append(props, p.Name)
	}
	scriptStart, scriptEnd := 0, 0
	if c.Script != nil {
		scriptStart, scriptEnd = c.Script.StartTagEnd, c.Script.EndTagStart
	}
	return Projection(c.Content, scriptStart, scriptEnd, c.RenderInsertOffset, props, c.Compiled)
}

func (r *Renderer) writeProjection(path string) error {
	text, ok := r.renderLocked(path)
	if !ok {
		return nil
	}
	target := r.TargetPath(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	switch r.graph.Get(path).(type) {
	case *ScriptCache:
		// Scripts project verbatim; a hard link keeps them in lockstep
		// with the original on disk.
		if err := os.Link(path, target); err == nil || errors.Is(err, fs.ErrExist) {
			return nil
		}
	case *UnknownCache:
		if strings.HasSuffix(path, componentExt) {
			// An unparsable component projects as an empty module.
			break
		}
		if err := os.Link(path, target); err == nil || errors.Is(err, fs.ErrExist) {
			return nil
		}
	}
	return os.WriteFile(target, []byte(text), 0o644)
}

func (r *Renderer) linkOther(path string) error {
	target := r.TargetPath(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.Link(path, target); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	return nil
}

// ProjectionUpdate describes how one projected document changed.
type ProjectionUpdate struct {
	SourcePath string
	TargetPath string

	// Version is the renderer-owned monotonic version of the projection.
	Version int32

	// Deltas replay the change incrementally. When FullChange is set the
	// deltas are absent and Full carries the whole new text.
	Deltas     []Delta
	Full       string
	FullChange bool
}

// UpdateOutcome is the result of applying editor edits to one file: the
// file's own projection change plus full re-renders of any dependents whose
// inherited properties were affected.
type UpdateOutcome struct {
	Self       ProjectionUpdate
	Dependents []ProjectionUpdate
}

// Update applies editor edits to a file and re-derives projections.
//
// Description:
//
//	Component files go through the incremental cache update; edits the
//	cache cannot absorb fall back to a full rebuild from the edited text.
//	Script files re-parse wholesale. When the visible property surface or
//	the relationship edges change, dependent components are re-rendered
//	under bumped versions.
//
// Outputs:
//   - *UpdateOutcome: Projection changes to publish to the backend.
//   - error: ErrUnknownFile when the renderer needs the full text instead.
func (r *Renderer) Update(ctx context.Context, path string, edits []Edit) (*UpdateOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch c := r.graph.Get(path).(type) {
	case *ComponentCache:
		return r.updateComponent(ctx, path, c, edits)
	case *ScriptCache:
		return r.updateScript(ctx, path, c, edits)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFile, path)
}

func (r *Renderer) updateComponent(ctx context.Context, path string, c *ComponentCache, edits []Edit) (*UpdateOutcome, error) {
	inherited := make([]string, 0)
	for _, p := range r.graph.InheritedProps(path) {
		inherited = append(inherited, p.Name)
	}
	oldExtends := extendsKey(r.graph.extendsEdges(path))

	var deltas []Delta
	propsChanged := false
	full := false
	var lastAnalysis *analyzer.Analysis
	for i, edit := range edits {
		res, ok := c.ApplyEdit(ctx, r.docParser, r.tsParser, path, inherited, edit)
		if !ok {
			content := c.Content
			for _, rest := range edits[i:] {
				content = content[:rest.Start] + rest.Text + content[rest.End:]
			}
			return r.rebuildNode(ctx, path, content, c.Version)
		}
		deltas = append(deltas, res.Deltas...)
		propsChanged = propsChanged || res.PropsChanged
		if res.Analysis != nil {
			lastAnalysis = res.Analysis
		}
	}

	if lastAnalysis != nil {
		r.graph.RemoveOutgoingEdges(path)
		r.addRefs(ctx, path, analysisRefs(lastAnalysis))
		r.graph.Flush()
		if extendsKey(r.graph.extendsEdges(path)) != oldExtends {
			// The inherited tail of the destructure is stale; replaying
			// deltas cannot fix it.
			full = true
		}
	}

	c.Version++
	self := ProjectionUpdate{
		SourcePath: path,
		TargetPath: r.TargetPath(path),
		Version:    c.Version,
		Deltas:     deltas,
	}
	if full {
		self.Deltas = nil
		self.Full, _ = r.renderLocked(path)
		self.FullChange = true
	}
	outcome := &UpdateOutcome{Self: self}
	if propsChanged {
		outcome.Dependents = r.rerenderDependents(path)
	}
	recordUpdateMetrics(ctx, full, len(outcome.Dependents))
	return outcome, nil
}

func extendsKey(edges []edgeRec) string {
	var b strings.Builder
	for _, e := range edges {
		b.WriteString(e.to)
		b.WriteByte(0)
		b.WriteString(e.edge.Export)
		b.WriteByte(0)
	}
	return b.String()
}

func (r *Renderer) updateScript(ctx context.Context, path string, c *ScriptCache, edits []Edit) (*UpdateOutcome, error) {
	content := c.Content
	var deltas []Delta
	for _, edit := range edits {
		content = content[:edit.Start] + edit.Text + content[edit.End:]
		deltas = append(deltas, Delta{Start: edit.Start, End: edit.End, Text: edit.Text})
	}
	oldComponent := c.Component

	cache, refs := r.buildScriptCache(ctx, path, content)
	r.graph.AddNode(path, cache)
	r.graph.RemoveOutgoingEdges(path)
	r.addRefs(ctx, path, refs)
	r.graph.Flush()

	outcome := &UpdateOutcome{Self: ProjectionUpdate{
		SourcePath: path,
		TargetPath: r.TargetPath(path),
		Deltas:     deltas,
	}}
	if scriptSurfaceChanged(oldComponent, cache) {
		outcome.Dependents = r.rerenderDependents(path)
	}
	recordUpdateMetrics(ctx, false, len(outcome.Dependents))
	return outcome, nil
}

// scriptSurfaceChanged reports whether a script file's component surface
// moved in a way dependents can observe.
func scriptSurfaceChanged(old *ScriptComponent, cache Cache) bool {
	c, ok := cache.(*ScriptCache)
	if !ok {
		return true
	}
	switch {
	case old == nil && c.Component == nil:
		return false
	case old == nil || c.Component == nil:
		return true
	default:
		return !propsEqual(old.Props, c.Component.Props)
	}
}

// rebuildNode replaces a file's cache wholesale and returns a full-change
// outcome, re-rendering dependents unconditionally.
func (r *Renderer) rebuildNode(ctx context.Context, path, content string, version int32) (*UpdateOutcome, error) {
	cache, refs := r.buildCache(ctx, path, content)
	if c, ok := cache.(*ComponentCache); ok {
		c.Version = version + 1
	}
	r.graph.AddNode(path, cache)
	r.graph.RemoveOutgoingEdges(path)
	r.addRefs(ctx, path, refs)
	r.graph.Flush()

	full, _ := r.renderLocked(path)
	outcome := &UpdateOutcome{
		Self: ProjectionUpdate{
			SourcePath: path,
			TargetPath: r.TargetPath(path),
			Version:    version + 1,
			Full:       full,
			FullChange: true,
		},
		Dependents: r.rerenderDependents(path),
	}
	recordUpdateMetrics(ctx, true, len(outcome.Dependents))
	return outcome, nil
}

// rerenderDependents bumps and fully re-renders every component with an edge
// into path.
func (r *Renderer) rerenderDependents(path string) []ProjectionUpdate {
	var updates []ProjectionUpdate
	for _, dep := range r.graph.BumpIncomingVersions(path) {
		c, ok := r.graph.Get(dep).(*ComponentCache)
		if !ok {
			continue
		}
		updates = append(updates, ProjectionUpdate{
			SourcePath: dep,
			TargetPath: r.TargetPath(dep),
			Version:    c.Version,
			Full:       r.projectionLocked(c, dep),
			FullChange: true,
		})
	}
	return updates
}

// SetContent (re)builds a file's cache from full text, as on open or when
// an incremental update was refused.
func (r *Renderer) SetContent(ctx context.Context, path, content string) (*UpdateOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var version int32
	if c, ok := r.graph.Get(path).(*ComponentCache); ok {
		version = c.Version
	}
	return r.rebuildNode(ctx, path, content, version)
}

// Save writes a file's current projection to disk. Hard-linked files are
// already current.
func (r *Renderer) Save(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.graph.Get(path).(*ComponentCache); !ok {
		return nil
	}
	return r.writeProjection(path)
}

// CreateFile adds a newly created project file to the graph and projection.
func (r *Renderer) CreateFile(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !isSourceFile(path) {
		return r.linkOther(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read created file: %w", err)
	}
	cache, refs := r.buildCache(ctx, path, string(content))
	r.graph.AddNode(path, cache)
	r.addRefs(ctx, path, refs)
	r.graph.Flush()
	return r.writeProjection(path)
}

// RemoveFile drops a deleted project file from the graph and projection.
// Components that depended on it keep their edges' absence reflected on the
// next re-render.
func (r *Renderer) RemoveFile(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.graph.RemoveNode(path)
	target := r.TargetPath(path)
	if target == "" {
		return nil
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// MapperFor returns an offset translator for a component file.
func (r *Renderer) MapperFor(path string) (Mapper, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.graph.Get(path).(*ComponentCache)
	if !ok {
		return Mapper{}, false
	}
	var inherited []string
	for _, p := range r.graph.InheritedProps(path) {
		inherited = append(inherited, p.Name)
	}
	return c.Mapper(inherited), true
}

// ComponentMeta is resolved hover/definition metadata for a component
// reachable through the relationship graph.
type ComponentMeta struct {
	Path        string
	Start       int
	End         int
	Description string
}

// RegisteredComponent resolves the component a file registers under tag,
// chasing re-exports until a definition is found.
func (r *Renderer) RegisteredComponent(path, tag string) (*ComponentMeta, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.graph.Register(path, tag)
	if !ok {
		return nil, false
	}
	return r.resolveMeta(reg.Target, reg.Export, reg.Prop, map[string]bool{})
}

func (r *Renderer) resolveMeta(path, export, prop string, seen map[string]bool) (*ComponentMeta, bool) {
	if seen[path] {
		return nil, false
	}
	seen[path] = true
	switch c := r.graph.Get(path).(type) {
	case *ComponentCache:
		return &ComponentMeta{Path: path, Start: c.NameStart, End: c.NameEnd, Description: c.Description}, true
	case *ScriptCache:
		if export == "" && c.Component != nil {
			return &ComponentMeta{Path: path, Start: c.Component.NameStart, End: c.Component.NameEnd, Description: c.Component.Description}, true
		}
		if next, nextExport, ok := r.graph.transferTarget(path, export); ok {
			return r.resolveMeta(next, nextExport, prop, seen)
		}
		if next, ok := r.graph.resolveStar(path, export, map[string]bool{}); ok {
			return r.resolveMeta(next, export, prop, seen)
		}
	case *LibraryCache:
		name := prop
		if name == "" {
			name = export
		}
		if comp := c.Component(name); comp != nil {
			return &ComponentMeta{Path: comp.Path, Start: comp.NameStart, End: comp.NameEnd, Description: comp.Description}, true
		}
	}
	return nil, false
}

// InheritedPropNames returns the extends-chain property names of a file.
func (r *Renderer) InheritedPropNames(path string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, p := range r.graph.InheritedProps(path) {
		names = append(names, p.Name)
	}
	return names
}
