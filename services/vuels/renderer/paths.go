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
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ImportKind discriminates import resolution outcomes.
type ImportKind int

const (
	// ImportFile: the specifier resolves to a project source file.
	ImportFile ImportKind = iota + 1

	// ImportLibrary: the specifier resolves to a package under node_modules.
	ImportLibrary

	// ImportUnresolved: nothing on disk matches the specifier.
	ImportUnresolved
)

// ResolvedImport is the outcome of resolving one import specifier.
type ResolvedImport struct {
	Kind ImportKind

	// Path is the resolved file for ImportFile, and the package directory
	// for ImportLibrary.
	Path string

	// Library is the package name for ImportLibrary.
	Library string
}

// tsconfig is the subset of the compiler configuration the resolver reads.
type tsconfig struct {
	CompilerOptions struct {
		Paths map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// ParseAlias extracts path aliases from tsconfig content. Wildcard entries
// like "@/*": ["src/*"] become prefix mappings rooted at root. A config that
// fails to parse yields no aliases.
func ParseAlias(content []byte, root string) map[string]string {
	var cfg tsconfig
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil
	}
	alias := make(map[string]string, len(cfg.CompilerOptions.Paths))
	for key, values := range cfg.CompilerOptions.Paths {
		if len(values) == 0 {
			continue
		}
		prefix := strings.TrimSuffix(key, "*")
		target := strings.TrimSuffix(values[0], "*")
		alias[prefix] = filepath.Join(root, target) + suffixSeparator(target)
		if prefix == key {
			// Exact mapping, no wildcard.
			alias[prefix] = filepath.Join(root, values[0])
		}
	}
	return alias
}

// suffixSeparator keeps a trailing separator that Join would strip, so a
// wildcard target concatenates cleanly with the matched remainder.
func suffixSeparator(target string) string {
	if strings.HasSuffix(target, "/") {
		return string(filepath.Separator)
	}
	return ""
}

// pathResolver resolves import specifiers against the project layout.
// The probe functions are swappable for tests.
type pathResolver struct {
	root       string
	alias      map[string]string
	aliasKeys  []string
	fileExists func(path string) bool
	dirExists  func(path string) bool
}

func newPathResolver(root string, alias map[string]string) *pathResolver {
	r := &pathResolver{
		root:  root,
		alias: alias,
		fileExists: func(path string) bool {
			info, err := os.Stat(path)
			return err == nil && !info.IsDir()
		},
		dirExists: func(path string) bool {
			info, err := os.Stat(path)
			return err == nil && info.IsDir()
		},
	}
	for key := range alias {
		r.aliasKeys = append(r.aliasKeys, key)
	}
	// Longest prefix wins; ties break lexicographically for determinism.
	sort.Slice(r.aliasKeys, func(i, j int) bool {
		if len(r.aliasKeys[i]) != len(r.aliasKeys[j]) {
			return len(r.aliasKeys[i]) > len(r.aliasKeys[j])
		}
		return r.aliasKeys[i] < r.aliasKeys[j]
	})
	return r
}

// Resolve resolves an import specifier appearing in the file at fromFile.
//
// Description:
//
//	Alias prefixes apply first, then relative specifiers against the
//	importing file's directory. Bare specifiers name a package under
//	node_modules. File candidates are probed in order: the path itself,
//	then the .d.ts, .ts, and /index.ts variants. A resolved file inside
//	node_modules is treated as part of its library, not a project file.
func (r *pathResolver) Resolve(fromFile, specifier string) ResolvedImport {
	var target string
	switch {
	case r.aliasTarget(specifier) != "":
		target = r.aliasTarget(specifier)
	case strings.HasPrefix(specifier, "."):
		target = filepath.Join(filepath.Dir(fromFile), specifier)
	default:
		dir := filepath.Join(r.root, "node_modules", specifier)
		if r.dirExists(dir) {
			return ResolvedImport{Kind: ImportLibrary, Path: dir, Library: specifier}
		}
		return ResolvedImport{Kind: ImportUnresolved}
	}

	candidates := []string{
		target,
		target + ".d.ts",
		target + ".ts",
		filepath.Join(target, "index.ts"),
	}
	for _, cand := range candidates {
		if !r.fileExists(cand) {
			continue
		}
		if inNodeModules(cand) {
			break
		}
		return ResolvedImport{Kind: ImportFile, Path: cand}
	}
	return ResolvedImport{Kind: ImportUnresolved}
}

func (r *pathResolver) aliasTarget(specifier string) string {
	for _, key := range r.aliasKeys {
		if strings.HasPrefix(specifier, key) {
			return r.alias[key] + strings.TrimPrefix(specifier, key)
		}
	}
	return ""
}

func inNodeModules(path string) bool {
	return strings.Contains(path, string(filepath.Separator)+"node_modules"+string(filepath.Separator))
}
