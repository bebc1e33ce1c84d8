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
	"reflect"
	"strings"
	"testing"
)

func parseSource(t *testing.T, source string) *Module {
	t.Helper()
	module, err := NewParser().Parse(context.Background(), []byte(source), 0, "test.ts")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return module
}

func TestParse_Imports(t *testing.T) {
	source := strings.Join([]string{
		`import Vue from "vue";`,
		`import { Select as ASelect, Option } from "ant-design-vue";`,
		`import * as utils from "./utils";`,
	}, "\n")

	module := parseSource(t, source)

	if len(module.Imports) != 3 {
		t.Fatalf("imports = %d, want 3", len(module.Imports))
	}

	first := module.Imports[0]
	if first.Path != "vue" {
		t.Errorf("imports[0].Path = %q, want %q", first.Path, "vue")
	}
	wantBindings := []ImportBinding{{Local: "Vue"}}
	if !reflect.DeepEqual(first.Bindings, wantBindings) {
		t.Errorf("imports[0].Bindings = %+v, want %+v", first.Bindings, wantBindings)
	}
	if first.Start != 0 || first.End != len(`import Vue from "vue";`) {
		t.Errorf("imports[0] span = [%d, %d)", first.Start, first.End)
	}

	second := module.Imports[1]
	wantBindings = []ImportBinding{
		{Local: "ASelect", Imported: "Select"},
		{Local: "Option", Imported: "Option"},
	}
	if !reflect.DeepEqual(second.Bindings, wantBindings) {
		t.Errorf("imports[1].Bindings = %+v, want %+v", second.Bindings, wantBindings)
	}

	third := module.Imports[2]
	if third.Namespace != "utils" || len(third.Bindings) != 0 {
		t.Errorf("imports[2] = %+v, want namespace utils with no bindings", third)
	}
}

func TestParse_BaseOffsetShift(t *testing.T) {
	source := `import Vue from "vue";`
	module, err := NewParser().Parse(context.Background(), []byte(source), 100, "test.ts")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(module.Imports) != 1 {
		t.Fatalf("imports = %d, want 1", len(module.Imports))
	}
	if got := module.Imports[0].Start; got != 100 {
		t.Errorf("Start = %d, want 100", got)
	}
	if got := module.Imports[0].End; got != 100+len(source) {
		t.Errorf("End = %d, want %d", got, 100+len(source))
	}
}

func TestParse_ComponentClass(t *testing.T) {
	source := strings.Join([]string{
		`import Vue from "vue";`,
		`import Component from "vue-class-component";`,
		``,
		`/**`,
		` * The root view.`,
		` */`,
		`@Component`,
		`export default class App extends Vue {`,
		`  private msg = "hi";`,
		``,
		`  constructor() {`,
		`    super();`,
		`  }`,
		``,
		`  /** Greets. */`,
		`  greet(name: string): string {`,
		`    return this.msg + name;`,
		`  }`,
		``,
		`  get label() {`,
		`    return this.msg;`,
		`  }`,
		`}`,
	}, "\n")

	module := parseSource(t, source)
	if module.HasError {
		t.Fatal("HasError = true")
	}

	cls := module.DefaultClass()
	if cls == nil {
		t.Fatal("DefaultClass() = nil")
	}
	if cls.Name != "App" {
		t.Errorf("Name = %q, want App", cls.Name)
	}
	if cls.ExportName != "" {
		t.Errorf("ExportName = %q, want empty", cls.ExportName)
	}
	if cls.SuperClass != "Vue" {
		t.Errorf("SuperClass = %q, want Vue", cls.SuperClass)
	}
	if !cls.HasDecorator("Component") {
		t.Error("HasDecorator(Component) = false")
	}
	if len(cls.Comments) != 1 || !strings.Contains(cls.Comments[0], "The root view.") {
		t.Errorf("Comments = %q", cls.Comments)
	}

	// The span starts at the class keyword and ends after the closing brace.
	if got := source[cls.Start : cls.Start+5]; got != "class" {
		t.Errorf("source at Start = %q, want class keyword", got)
	}
	if got := source[cls.End-1]; got != '}' {
		t.Errorf("source at End-1 = %q, want closing brace", got)
	}

	if len(cls.Members) != 3 {
		t.Fatalf("members = %d, want 3 (constructor excluded)", len(cls.Members))
	}

	msg := cls.Members[0]
	if msg.Name != "msg" || msg.Kind != MemberProperty {
		t.Errorf("members[0] = %+v, want msg property", msg)
	}
	if got := source[msg.NameStart : msg.NameStart+3]; got != "msg" {
		t.Errorf("source at members[0].NameStart = %q", got)
	}

	greet := cls.Members[1]
	if greet.Name != "greet" || greet.Kind != MemberMethod {
		t.Errorf("members[1] = %+v, want greet method", greet)
	}
	if got := source[greet.ParamsStart:greet.ParamsEnd]; got != "name: string" {
		t.Errorf("greet params = %q, want %q", got, "name: string")
	}
	if source[greet.BodyStart] != '{' || source[greet.BodyEnd-1] != '}' {
		t.Errorf("greet body span = [%d, %d)", greet.BodyStart, greet.BodyEnd)
	}
	if len(greet.Comments) != 1 || greet.Comments[0] != "/** Greets. */" {
		t.Errorf("greet.Comments = %q", greet.Comments)
	}

	label := cls.Members[2]
	if label.Name != "label" || label.Kind != MemberGetter {
		t.Errorf("members[2] = %+v, want label getter", label)
	}
}

func TestParse_DecoratorProps(t *testing.T) {
	source := strings.Join([]string{
		`import Vue from "vue";`,
		`import { Component, Mixins } from "vue-property-decorator";`,
		`import HelloWorld from "./HelloWorld.vue";`,
		`import { Select } from "ant-design-vue";`,
		`import FormMixin from "./mixins/form";`,
		``,
		`@Component({`,
		`  components: {`,
		`    HelloWorld,`,
		`    "a-select": Select,`,
		`    AOption: Select.Option,`,
		`  },`,
		`  mixins: [FormMixin],`,
		`})`,
		`export default class Page extends Vue {}`,
	}, "\n")

	module := parseSource(t, source)

	cls := module.DefaultClass()
	if cls == nil {
		t.Fatal("DefaultClass() = nil")
	}

	components := cls.DecoratorProp("Component", "components")
	if components == nil {
		t.Fatal("DecoratorProp(Component, components) = nil")
	}
	wantEntries := []ObjectEntry{
		{Key: "HelloWorld", Value: "HelloWorld"},
		{Key: "a-select", Value: "Select"},
		{Key: "AOption", Value: "Select", Prop: "Option"},
	}
	if !reflect.DeepEqual(components.Object, wantEntries) {
		t.Errorf("components = %+v, want %+v", components.Object, wantEntries)
	}

	mixins := cls.DecoratorProp("Component", "mixins")
	if mixins == nil {
		t.Fatal("DecoratorProp(Component, mixins) = nil")
	}
	if !reflect.DeepEqual(mixins.Array, []string{"FormMixin"}) {
		t.Errorf("mixins = %+v, want [FormMixin]", mixins.Array)
	}
}

func TestModule_LocalExportsAndTransfers(t *testing.T) {
	source := strings.Join([]string{
		`import { Inner } from "./inner";`,
		`export const helper = 1;`,
		`export { Inner };`,
		`export { Outer as Renamed } from "./outer";`,
		`export * from "./star";`,
		`export default class Main {}`,
	}, "\n")

	module := parseSource(t, source)

	locals, transfers := module.LocalExportsAndTransfers()

	wantLocals := []string{"helper", ""}
	if !reflect.DeepEqual(locals, wantLocals) {
		t.Errorf("locals = %q, want %q", locals, wantLocals)
	}

	wantTransfers := []Transfer{
		{Local: "Inner", Export: "Inner", Path: "./inner"},
		{Local: "Renamed", Export: "Outer", Path: "./outer"},
		{Path: "./star", IsStar: true},
	}
	if !reflect.DeepEqual(transfers, wantTransfers) {
		t.Errorf("transfers = %+v, want %+v", transfers, wantTransfers)
	}
}

func TestModule_ResolveExport(t *testing.T) {
	tests := []struct {
		name   string
		source []string
		export string
		want   ExportResult
	}{
		{
			name: "decorated default class",
			source: []string{
				`import { Component } from "vue-property-decorator";`,
				`@Component`,
				`export default class MyComponent {}`,
			},
			want: ExportResult{Kind: ExportCurrent},
		},
		{
			name:   "clause default alias with source",
			source: []string{`export { MyComponent as default } from "xxx";`},
			want:   ExportResult{Kind: ExportOther, Path: "xxx", Name: "MyComponent"},
		},
		{
			name: "default expression from named import",
			source: []string{
				`import { MyComponent } from "xxx";`,
				`export default MyComponent;`,
			},
			want: ExportResult{Kind: ExportOther, Path: "xxx", Name: "MyComponent"},
		},
		{
			name: "default expression from default import",
			source: []string{
				`import MyComponent from "xxx";`,
				`export default MyComponent;`,
			},
			want: ExportResult{Kind: ExportOther, Path: "xxx"},
		},
		{
			name: "default expression from aliased import",
			source: []string{
				`import { OtherComponent as MyComponent } from "xxx";`,
				`export default MyComponent;`,
			},
			want: ExportResult{Kind: ExportOther, Path: "xxx", Name: "OtherComponent"},
		},
		{
			name:   "named clause with source",
			source: []string{`export { MyComponent } from "xxx";`},
			export: "MyComponent",
			want:   ExportResult{Kind: ExportOther, Path: "xxx", Name: "MyComponent"},
		},
		{
			name: "named clause over import",
			source: []string{
				`import { MyComponent } from "xxx";`,
				`export { MyComponent };`,
			},
			export: "MyComponent",
			want:   ExportResult{Kind: ExportOther, Path: "xxx", Name: "MyComponent"},
		},
		{
			name: "named clause over aliased import beats star",
			source: []string{
				`export * from "xxx";`,
				`import { OtherComponent as MyComponent } from "xxx";`,
				`export { MyComponent };`,
			},
			export: "MyComponent",
			want:   ExportResult{Kind: ExportOther, Path: "xxx", Name: "OtherComponent"},
		},
		{
			name: "named clause over default import beats star",
			source: []string{
				`export * from "xxx";`,
				`import MyComponent from "xxx";`,
				`export { MyComponent };`,
			},
			export: "MyComponent",
			want:   ExportResult{Kind: ExportOther, Path: "xxx"},
		},
		{
			name:   "default missing from sourced clause",
			source: []string{`export { MyComponent } from "xxx";`},
			want:   ExportResult{Kind: ExportNone},
		},
		{
			name: "default missing from local clause",
			source: []string{
				`import { MyComponent } from "xxx";`,
				`export { MyComponent };`,
			},
			want: ExportResult{Kind: ExportNone},
		},
		{
			name: "original name not re-exported",
			source: []string{
				`import { OtherComponent as MyComponent } from "xxx";`,
				`export { MyComponent };`,
			},
			export: "OtherComponent",
			want:   ExportResult{Kind: ExportNone},
		},
		{
			name: "default object literal",
			source: []string{
				`import { Component } from "vue-property-decorator";`,
				`export default {};`,
			},
			want: ExportResult{Kind: ExportNone},
		},
		{
			name: "plain const export",
			source: []string{
				`import { Component } from "vue-property-decorator";`,
				`export const MyComponent = {};`,
			},
			export: "MyComponent",
			want:   ExportResult{Kind: ExportNone},
		},
		{
			name:   "star only default",
			source: []string{`export * from "xxx";`},
			want:   ExportResult{Kind: ExportPossible, Possible: []string{"xxx"}},
		},
		{
			name:   "star only named",
			source: []string{`export * from "xxx";`},
			export: "MyComponent",
			want:   ExportResult{Kind: ExportPossible, Possible: []string{"xxx"}},
		},
		{
			name:   "multiple stars keep order",
			source: []string{`export * from "aaa";`, `export * from "bbb";`},
			export: "MyComponent",
			want:   ExportResult{Kind: ExportPossible, Possible: []string{"aaa", "bbb"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			module := parseSource(t, strings.Join(tt.source, "\n"))
			got := module.ResolveExport(tt.export)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveExport(%q) = %+v, want %+v", tt.export, got, tt.want)
			}
		})
	}
}

func TestParse_NamedExportClass(t *testing.T) {
	source := strings.Join([]string{
		`import { Component } from "vue-property-decorator";`,
		`@Component`,
		`export class Widget {}`,
	}, "\n")

	module := parseSource(t, source)

	if got := module.ResolveExport("Widget"); got.Kind != ExportCurrent {
		t.Errorf("ResolveExport(Widget) = %+v, want current", got)
	}
	cls := module.ClassFor("Widget")
	if cls == nil {
		t.Fatal("ClassFor(Widget) = nil")
	}
	if cls.Name != "Widget" {
		t.Errorf("Name = %q, want Widget", cls.Name)
	}
}

func TestParse_SizeLimit(t *testing.T) {
	p := NewParser(WithMaxFileSize(8))
	_, err := p.Parse(context.Background(), []byte("import Vue from 'vue';"), 0, "big.ts")
	if err == nil {
		t.Fatal("Parse() error = nil, want size error")
	}
	if !strings.Contains(err.Error(), "file too large") {
		t.Errorf("error = %v", err)
	}
}

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		want    string
	}{
		{
			name:    "jsdoc block",
			comment: "/**\n * The title shown in the tab bar.\n */",
			want:    "\n\n The title shown in the tab bar.\n ",
		},
		{
			name:    "param tags styled",
			comment: "/** @param count the number of rows */",
			want:    " *@param* `count` the number of rows ",
		},
		{
			name:    "line comment",
			comment: "// plain note",
			want:    " plain note",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Markdown(tt.comment); got != tt.want {
				t.Errorf("Markdown(%q) = %q, want %q", tt.comment, got, tt.want)
			}
		})
	}
}
