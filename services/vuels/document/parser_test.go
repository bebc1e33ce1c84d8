// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package document

import (
	"context"
	"strings"
	"testing"
)

const sampleSFC = `<template>
  <div class="root">
    <MyButton :label="label" @click="onClick" />
  </div>
</template>
<script lang="ts">
export default class App {}
</script>
<style scoped>
.root { display: flex; }
</style>
`

func TestParser_Parse(t *testing.T) {
	parser := NewParser()
	sfc, err := parser.Parse(context.Background(), []byte(sampleSFC), "app.vue")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	t.Run("regions", func(t *testing.T) {
		if sfc.Template == nil {
			t.Fatal("expected template region")
		}
		if sfc.Script == nil {
			t.Fatal("expected script region")
		}
		if len(sfc.Styles) != 1 {
			t.Fatalf("expected 1 style region, got %d", len(sfc.Styles))
		}
	})

	t.Run("template offsets", func(t *testing.T) {
		tpl := sfc.Template
		if tpl.Start != 0 {
			t.Errorf("template start = %d, want 0", tpl.Start)
		}
		if tpl.StartTagEnd != len("<template>") {
			t.Errorf("template startTagEnd = %d, want %d", tpl.StartTagEnd, len("<template>"))
		}
		wantEndTagStart := strings.Index(sampleSFC, "</template>")
		if tpl.EndTagStart != wantEndTagStart {
			t.Errorf("template endTagStart = %d, want %d", tpl.EndTagStart, wantEndTagStart)
		}
	})

	t.Run("script boundaries", func(t *testing.T) {
		script := sfc.Script
		wantStart := strings.Index(sampleSFC, `<script lang="ts">`) + len(`<script lang="ts">`)
		if script.StartTagEnd != wantStart {
			t.Errorf("script startTagEnd = %d, want %d", script.StartTagEnd, wantStart)
		}
		wantEnd := strings.Index(sampleSFC, "</script>")
		if script.EndTagStart != wantEnd {
			t.Errorf("script endTagStart = %d, want %d", script.EndTagStart, wantEnd)
		}
	})

	t.Run("attributes", func(t *testing.T) {
		div := sfc.Template.Children[0]
		if div.Tag != "div" {
			t.Fatalf("expected div child, got %q", div.Tag)
		}
		button := div.Children[0]
		if button.Tag != "MyButton" {
			t.Fatalf("expected MyButton child, got %q", button.Tag)
		}
		wantOrder := []string{":label", "@click"}
		got := button.AttributeNames()
		if len(got) != len(wantOrder) {
			t.Fatalf("attribute order = %v, want %v", got, wantOrder)
		}
		for i := range wantOrder {
			if got[i] != wantOrder[i] {
				t.Errorf("attribute[%d] = %q, want %q", i, got[i], wantOrder[i])
			}
		}
		label := button.Attr(":label")
		if label == nil {
			t.Fatal("missing :label attribute")
		}
		if label.Value != `"label"` {
			t.Errorf("label value = %q, want %q", label.Value, `"label"`)
		}
		if label.Offset != strings.Index(sampleSFC, ":label") {
			t.Errorf("label offset = %d, want %d", label.Offset, strings.Index(sampleSFC, ":label"))
		}
		if button.EndTagStart != NoOffset {
			t.Errorf("self-closed node endTagStart = %d, want NoOffset", button.EndTagStart)
		}
	})
}

func TestParser_ParseFragment(t *testing.T) {
	parser := NewParser()

	t.Run("single root rebased", func(t *testing.T) {
		fragment := `<div><span v-if="a">x</span></div>`
		node, err := parser.ParseFragment(context.Background(), []byte(fragment), 100)
		if err != nil {
			t.Fatalf("ParseFragment failed: %v", err)
		}
		if node.Start != 100 {
			t.Errorf("start = %d, want 100", node.Start)
		}
		if node.End != 100+len(fragment) {
			t.Errorf("end = %d, want %d", node.End, 100+len(fragment))
		}
		span := node.Children[0]
		if span.Attr("v-if") == nil {
			t.Fatal("missing v-if attribute on child")
		}
		if span.Attr("v-if").Offset != 100+strings.Index(fragment, "v-if") {
			t.Errorf("v-if offset = %d, want %d", span.Attr("v-if").Offset, 100+strings.Index(fragment, "v-if"))
		}
	})

	t.Run("multiple roots rejected", func(t *testing.T) {
		if _, err := parser.ParseFragment(context.Background(), []byte("<a></a><b></b>"), 0); err == nil {
			t.Error("expected error for multi-root fragment")
		}
	})
}

func TestParser_Limits(t *testing.T) {
	t.Run("file too large", func(t *testing.T) {
		parser := NewParser(WithMaxFileSize(8))
		_, err := parser.Parse(context.Background(), []byte(sampleSFC), "app.vue")
		if err == nil || !strings.Contains(err.Error(), "file too large") {
			t.Errorf("expected ErrFileTooLarge, got %v", err)
		}
	})

	t.Run("invalid utf8", func(t *testing.T) {
		parser := NewParser()
		_, err := parser.Parse(context.Background(), []byte{0xff, 0xfe, '<'}, "app.vue")
		if err == nil || !strings.Contains(err.Error(), "invalid content") {
			t.Errorf("expected ErrInvalidContent, got %v", err)
		}
	})
}

func TestNode_Shift(t *testing.T) {
	parser := NewParser()
	sfc, err := parser.Parse(context.Background(), []byte(sampleSFC), "app.vue")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	editAt := strings.Index(sampleSFC, `"label"`) + 1
	const delta = 3

	tpl := sfc.Template
	beforeEnd := tpl.End
	beforeAttr := tpl.Children[0].Children[0].Attr("@click").Offset
	beforeLabel := tpl.Children[0].Children[0].Attr(":label").Offset

	tpl.Shift(editAt, delta)

	if tpl.End != beforeEnd+delta {
		t.Errorf("template end = %d, want %d", tpl.End, beforeEnd+delta)
	}
	if tpl.Start != 0 {
		t.Errorf("template start moved to %d, want 0", tpl.Start)
	}
	if got := tpl.Children[0].Children[0].Attr("@click").Offset; got != beforeAttr+delta {
		t.Errorf("@click offset = %d, want %d", got, beforeAttr+delta)
	}
	if got := tpl.Children[0].Children[0].Attr(":label").Offset; got != beforeLabel {
		t.Errorf(":label offset = %d, want %d (before edit, must not move)", got, beforeLabel)
	}
}

func TestNode_ShiftUnclosedElement(t *testing.T) {
	child := &Node{
		Tag:         "span",
		Attributes:  map[string]*Attribute{"@click": {Offset: 15}},
		AttrOrder:   []string{"@click"},
		Start:       10,
		End:         30,
		StartTagEnd: 24,
		EndTagStart: 26,
	}
	// Closing tag missing: the parent has no end-tag offset but still owns
	// the child, which must move with an edit above it.
	parent := &Node{
		Tag:         "div",
		Start:       0,
		End:         40,
		StartTagEnd: 5,
		EndTagStart: NoOffset,
		Children:    []*Node{child},
	}

	parent.Shift(7, 4)

	if parent.End != 44 {
		t.Errorf("parent end = %d, want 44", parent.End)
	}
	if parent.StartTagEnd != 5 {
		t.Errorf("parent start-tag end = %d, want 5 (before edit, must not move)", parent.StartTagEnd)
	}
	if parent.EndTagStart != NoOffset {
		t.Errorf("parent end-tag start = %d, want absent", parent.EndTagStart)
	}
	if child.Start != 14 || child.End != 34 {
		t.Errorf("child span = [%d,%d), want [14,34)", child.Start, child.End)
	}
	if child.StartTagEnd != 28 || child.EndTagStart != 30 {
		t.Errorf("child tags = %d,%d, want 28,30", child.StartTagEnd, child.EndTagStart)
	}
	if got := child.Attr("@click").Offset; got != 19 {
		t.Errorf("@click offset = %d, want 19", got)
	}
}
