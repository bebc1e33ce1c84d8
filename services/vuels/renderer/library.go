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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/vuebridge/services/vuels/tsast"
)

// parseLibrary reads a component library's shipped type declarations into a
// cache entry.
//
// Description:
//
//	Only libraries publishing a types/index.d.ts are inspected. Declaration
//	files directly under types/ and one subdirectory deep are parsed; the
//	first class each file declares becomes a library component, its
//	non-static members the component's documented properties. Anything
//	else yields an empty cache, which downstream lookups treat as "no
//	component metadata" rather than an error.
func parseLibrary(ctx context.Context, parser *tsast.Parser, dir, name string) *LibraryCache {
	cache := &LibraryCache{Name: name}
	typesDir := filepath.Join(dir, "types")
	if _, err := os.Stat(filepath.Join(typesDir, "index.d.ts")); err != nil {
		return cache
	}
	for _, file := range declarationFiles(typesDir) {
		comp, ok := parseLibraryComponent(ctx, parser, file)
		if !ok {
			continue
		}
		cache.Components = append(cache.Components, comp)
	}
	slog.Debug("library types parsed",
		slog.String("library", name),
		slog.Int("components", len(cache.Components)))
	return cache
}

// declarationFiles lists .d.ts files under dir, descending one level.
func declarationFiles(dir string) []string {
	var files []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			subEntries, err := os.ReadDir(path)
			if err != nil {
				continue
			}
			for _, sub := range subEntries {
				if !sub.IsDir() && strings.HasSuffix(sub.Name(), ".d.ts") {
					files = append(files, filepath.Join(path, sub.Name()))
				}
			}
			continue
		}
		if strings.HasSuffix(entry.Name(), ".d.ts") {
			files = append(files, path)
		}
	}
	return files
}

func parseLibraryComponent(ctx context.Context, parser *tsast.Parser, file string) (LibraryComponent, bool) {
	content, err := os.ReadFile(file)
	if err != nil {
		return LibraryComponent{}, false
	}
	module, err := parser.Parse(ctx, content, 0, file)
	if err != nil || len(module.Classes) == 0 {
		return LibraryComponent{}, false
	}
	cls := module.Classes[0]
	comp := LibraryComponent{
		Name:        cls.Name,
		Path:        file,
		NameStart:   cls.Start,
		NameEnd:     cls.End,
		Description: libraryDescription(cls),
	}
	for _, m := range cls.Members {
		if m.Static {
			continue
		}
		comp.Props = append(comp.Props, LibraryProp{
			Name:  m.Name,
			Path:  file,
			Start: m.NameStart,
			End:   m.NameStart + len(m.Name),
		})
	}
	return comp, true
}

func libraryDescription(cls *tsast.ComponentClass) string {
	card := fmt.Sprintf("```typescript\nclass %s\n```\n", cls.Name)
	if doc := tsast.MarkdownAll(cls.Comments); doc != "" {
		card += doc
	}
	return card
}
