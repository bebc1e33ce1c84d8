// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/AleutianAI/vuebridge/services/vuels/tsast"
)

func analyzeSource(t *testing.T, source string) (*Analysis, string) {
	t.Helper()
	module, err := tsast.NewParser().Parse(context.Background(), []byte(source), 0, "test.ts")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	a, ok := Analyze(module)
	if !ok {
		t.Fatal("Analyze() ok = false")
	}
	return a, source
}

func propNames(a *Analysis) []string {
	names := make([]string, 0, len(a.Props))
	for _, p := range a.Props {
		names = append(names, p.Name)
	}
	return names
}

const memberClass = `export default class Test extends Vue {
   private prop1 = ''
   public prop2 = 1
   protected get prop3() {
       return true
   }
   private method1() {}
   private method2() {
       console.log('method2')
   }
}`

func TestAnalyze_Props(t *testing.T) {
	a, source := analyzeSource(t, strings.Join([]string{
		`import MyComponent1 from './components/MyComponent1.vue'`,
		`import MyComponent2 from './components/MyComponent2.vue'`,
		`@Component({`,
		`    components: {`,
		`        MyComponent1,`,
		`        MyComponent2,`,
		`    },`,
		`})`,
		memberClass,
	}, "\n"))

	want := []string{"prop1", "prop2", "prop3", "method1", "method2"}
	if got := propNames(a); !reflect.DeepEqual(got, want) {
		t.Errorf("props = %q, want %q", got, want)
	}

	for _, p := range a.Props {
		if got := source[p.Start:p.End]; got != p.Name {
			t.Errorf("prop %q range covers %q", p.Name, got)
		}
	}
}

func TestAnalyze_RenderInsertOffset(t *testing.T) {
	a, source := analyzeSource(t, memberClass)

	if source[a.RenderInsertOffset] != '}' {
		t.Errorf("source at RenderInsertOffset = %q, want closing brace", source[a.RenderInsertOffset])
	}
	if a.RenderInsertOffset != a.ClassEnd-1 {
		t.Errorf("RenderInsertOffset = %d, want ClassEnd-1 = %d", a.RenderInsertOffset, a.ClassEnd-1)
	}
}

func TestAnalyze_Extends(t *testing.T) {
	t.Run("superclass not imported", func(t *testing.T) {
		a, _ := analyzeSource(t, memberClass)
		if a.Extends != nil {
			t.Errorf("Extends = %+v, want nil", a.Extends)
		}
	})

	t.Run("default-imported superclass", func(t *testing.T) {
		a, _ := analyzeSource(t, strings.Join([]string{
			`import MyComponent1 from './components/MyComponent1.vue'`,
			`export default class Test extends MyComponent1 {}`,
		}, "\n"))
		want := &Extends{Path: "./components/MyComponent1.vue"}
		if !reflect.DeepEqual(a.Extends, want) {
			t.Errorf("Extends = %+v, want %+v", a.Extends, want)
		}
	})

	t.Run("framework base from named import", func(t *testing.T) {
		a, _ := analyzeSource(t, strings.Join([]string{
			`import { Vue } from 'vue-property-decorator'`,
			`export default class Test extends Vue {}`,
		}, "\n"))
		if a.Extends != nil {
			t.Errorf("Extends = %+v, want nil", a.Extends)
		}
	})

	t.Run("renamed named import", func(t *testing.T) {
		a, _ := analyzeSource(t, strings.Join([]string{
			`import { Base as AppBase } from './base'`,
			`export default class Test extends AppBase {}`,
		}, "\n"))
		want := &Extends{Export: "Base", Path: "./base"}
		if !reflect.DeepEqual(a.Extends, want) {
			t.Errorf("Extends = %+v, want %+v", a.Extends, want)
		}
	})
}

func TestAnalyze_Registers(t *testing.T) {
	t.Run("default imports", func(t *testing.T) {
		a, _ := analyzeSource(t, strings.Join([]string{
			`import MyComponent1 from './components/MyComponent1.vue'`,
			`import MyComponent2 from './components/MyComponent2.vue'`,
			`@Component({`,
			`    components: {`,
			`        MyComponent1,`,
			`        MyComponent2,`,
			`    },`,
			`})`,
			memberClass,
		}, "\n"))
		want := []Register{
			{Name: "MyComponent1", Path: "./components/MyComponent1.vue"},
			{Name: "MyComponent2", Path: "./components/MyComponent2.vue"},
		}
		if !reflect.DeepEqual(a.Registers, want) {
			t.Errorf("registers = %+v, want %+v", a.Registers, want)
		}
	})

	t.Run("library named imports", func(t *testing.T) {
		a, _ := analyzeSource(t, strings.Join([]string{
			`import { Button, Select } from 'component-library'`,
			`import MyComponent1 from './components/MyComponent1.vue'`,
			`@Component({`,
			`    components: {`,
			`        Button,`,
			`        Select,`,
			`        MyComponent1,`,
			`    },`,
			`})`,
			`export default class Test extends Vue {}`,
		}, "\n"))
		want := []Register{
			{Name: "Button", Export: "Button", Path: "component-library"},
			{Name: "Select", Export: "Select", Path: "component-library"},
			{Name: "MyComponent1", Path: "./components/MyComponent1.vue"},
		}
		if !reflect.DeepEqual(a.Registers, want) {
			t.Errorf("registers = %+v, want %+v", a.Registers, want)
		}
	})

	t.Run("static property access", func(t *testing.T) {
		a, _ := analyzeSource(t, strings.Join([]string{
			`import { Select } from 'component-library'`,
			`@Component({`,
			`    components: {`,
			`        AOption: Select.Option,`,
			`    },`,
			`})`,
			`export default class Test extends Vue {}`,
		}, "\n"))
		want := []Register{
			{Name: "AOption", Export: "Select", Prop: "Option", Path: "component-library"},
		}
		if !reflect.DeepEqual(a.Registers, want) {
			t.Errorf("registers = %+v, want %+v", a.Registers, want)
		}
	})

	t.Run("unimported identifiers dropped", func(t *testing.T) {
		a, _ := analyzeSource(t, strings.Join([]string{
			`@Component({`,
			`    components: {`,
			`        Mystery,`,
			`    },`,
			`})`,
			`export default class Test extends Vue {}`,
		}, "\n"))
		if len(a.Registers) != 0 {
			t.Errorf("registers = %+v, want none", a.Registers)
		}
	})

	t.Run("undecorated class registers nothing", func(t *testing.T) {
		a, _ := analyzeSource(t, strings.Join([]string{
			`import MyComponent1 from './components/MyComponent1.vue'`,
			`export default class Test extends Vue {}`,
		}, "\n"))
		if len(a.Registers) != 0 {
			t.Errorf("registers = %+v, want none", a.Registers)
		}
	})
}

func TestAnalyze_Mixins(t *testing.T) {
	a, _ := analyzeSource(t, strings.Join([]string{
		`import MyComponent1 from './components/MyComponent1.vue'`,
		`import MyComponent2 from '@components/MyComponent2.vue'`,
		`@Component({`,
		`    components: {`,
		`        MyComponent1,`,
		`    },`,
		`    mixins: [MyComponent2],`,
		`})`,
		`export default class Test extends Vue {}`,
	}, "\n"))

	wantRegisters := []Register{
		{Name: "MyComponent1", Path: "./components/MyComponent1.vue"},
	}
	if !reflect.DeepEqual(a.Registers, wantRegisters) {
		t.Errorf("registers = %+v, want %+v", a.Registers, wantRegisters)
	}

	wantMixins := []Register{
		{Name: "MyComponent2", Path: "@components/MyComponent2.vue"},
	}
	if !reflect.DeepEqual(a.Mixins, wantMixins) {
		t.Errorf("mixins = %+v, want %+v", a.Mixins, wantMixins)
	}
}

func TestAnalyze_ExtendsAndRegisters(t *testing.T) {
	a, _ := analyzeSource(t, strings.Join([]string{
		`import Bar from './bar.vue'`,
		`import Foo from './foo.vue'`,
		`@Component({components:{Foo}})`,
		`export default class X extends Bar {}`,
	}, "\n"))

	wantExtends := &Extends{Path: "./bar.vue"}
	if !reflect.DeepEqual(a.Extends, wantExtends) {
		t.Errorf("Extends = %+v, want %+v", a.Extends, wantExtends)
	}
	wantRegisters := []Register{{Name: "Foo", Path: "./foo.vue"}}
	if !reflect.DeepEqual(a.Registers, wantRegisters) {
		t.Errorf("registers = %+v, want %+v", a.Registers, wantRegisters)
	}
}

func TestAnalyze_SafeRanges(t *testing.T) {
	source := strings.Join([]string{
		`export default class Test extends Vue {`,
		`   private msg = ''`,
		`   greet(name: string) {`,
		`       return name`,
		`   }`,
		`}`,
	}, "\n")
	a, _ := analyzeSource(t, source)

	if len(a.SafeRanges) != 2 {
		t.Fatalf("safe ranges = %+v, want params + body", a.SafeRanges)
	}

	params := a.SafeRanges[0]
	if got := source[params.Start:params.End]; got != "name: string" {
		t.Errorf("params range covers %q", got)
	}

	body := a.SafeRanges[1]
	if source[body.Start] != '{' || source[body.End-1] != '}' {
		t.Errorf("body range = %+v", body)
	}
	if !body.Contains(body.Start+1, body.End-1) {
		t.Error("Contains() rejected interior interval")
	}

	// Sorted and non-overlapping.
	for i := 1; i < len(a.SafeRanges); i++ {
		if a.SafeRanges[i].Start < a.SafeRanges[i-1].End {
			t.Errorf("ranges overlap: %+v", a.SafeRanges)
		}
	}
}

func TestAnalyze_Description(t *testing.T) {
	a, _ := analyzeSource(t, strings.Join([]string{
		`/**`,
		` * The login page.`,
		` */`,
		`@Component`,
		`export default class Login extends Vue {`,
		`   /** Submits the form. */`,
		`   submit() {}`,
		`}`,
	}, "\n"))

	if !strings.HasPrefix(a.Description, "```typescript\nclass Login\n```\n") {
		t.Errorf("Description = %q, want fenced signature prefix", a.Description)
	}
	if !strings.Contains(a.Description, "The login page.") {
		t.Errorf("Description = %q, missing comment text", a.Description)
	}

	if len(a.Props) != 1 {
		t.Fatalf("props = %+v", a.Props)
	}
	if !strings.Contains(a.Props[0].Description, "Submits the form.") {
		t.Errorf("prop description = %q", a.Props[0].Description)
	}
}

func TestAnalyze_NoDefaultClass(t *testing.T) {
	module, err := tsast.NewParser().Parse(context.Background(), []byte(`export const x = 1;`), 0, "test.ts")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, ok := Analyze(module); ok {
		t.Error("Analyze() ok = true, want false")
	}
}
