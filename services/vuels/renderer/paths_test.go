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

import "testing"

func TestParseAlias(t *testing.T) {
	raw := []byte(`{
  "compilerOptions": {
    "target": "es2018",
    "paths": {
      "@/*": ["src/*"],
      "#lib": ["vendor/lib"]
    }
  }
}`)
	alias := ParseAlias(raw, "/proj")
	if got := alias["@/"]; got != "/proj/src/" {
		t.Errorf("wildcard alias = %q, want %q", got, "/proj/src/")
	}
	if got := alias["#lib"]; got != "/proj/vendor/lib" {
		t.Errorf("exact alias = %q, want %q", got, "/proj/vendor/lib")
	}
}

func TestParseAlias_BadConfig(t *testing.T) {
	if alias := ParseAlias([]byte("// not json"), "/proj"); len(alias) != 0 {
		t.Errorf("alias = %v, want none for unparsable config", alias)
	}
}

func testResolver(files, dirs map[string]bool) *pathResolver {
	r := newPathResolver("/proj", map[string]string{"@/": "/proj/src/"})
	r.fileExists = func(path string) bool { return files[path] }
	r.dirExists = func(path string) bool { return dirs[path] }
	return r
}

func TestResolve(t *testing.T) {
	files := map[string]bool{
		"/proj/src/components/Hello.vue": true,
		"/proj/src/base.ts":              true,
		"/proj/src/store/index.ts":       true,
	}
	dirs := map[string]bool{
		"/proj/node_modules/ant-design-vue": true,
	}
	r := testResolver(files, dirs)
	from := "/proj/src/App.vue"

	tests := []struct {
		name      string
		specifier string
		want      ResolvedImport
	}{
		{
			name:      "relative with extension",
			specifier: "./components/Hello.vue",
			want:      ResolvedImport{Kind: ImportFile, Path: "/proj/src/components/Hello.vue"},
		},
		{
			name:      "relative suffix probe",
			specifier: "./base",
			want:      ResolvedImport{Kind: ImportFile, Path: "/proj/src/base.ts"},
		},
		{
			name:      "relative index probe",
			specifier: "./store",
			want:      ResolvedImport{Kind: ImportFile, Path: "/proj/src/store/index.ts"},
		},
		{
			name:      "alias",
			specifier: "@/components/Hello.vue",
			want:      ResolvedImport{Kind: ImportFile, Path: "/proj/src/components/Hello.vue"},
		},
		{
			name:      "library",
			specifier: "ant-design-vue",
			want:      ResolvedImport{Kind: ImportLibrary, Path: "/proj/node_modules/ant-design-vue", Library: "ant-design-vue"},
		},
		{
			name:      "unresolved",
			specifier: "./missing",
			want:      ResolvedImport{Kind: ImportUnresolved},
		},
		{
			name:      "unresolved bare",
			specifier: "not-installed",
			want:      ResolvedImport{Kind: ImportUnresolved},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(from, tt.specifier); got != tt.want {
				t.Errorf("Resolve(%q) = %+v, want %+v", tt.specifier, got, tt.want)
			}
		})
	}
}

func TestResolve_NodeModulesFileNotProjectFile(t *testing.T) {
	files := map[string]bool{
		"/proj/node_modules/pkg/helper.ts": true,
	}
	r := testResolver(files, map[string]bool{})
	got := r.Resolve("/proj/node_modules/pkg/entry.ts", "./helper")
	if got.Kind != ImportUnresolved {
		t.Errorf("resolve inside node_modules = %+v, want unresolved", got)
	}
}
