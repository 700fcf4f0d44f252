package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestStructuralTag_Strings(t *testing.T) {
	want := []string{"unknown", "thesis", "introduction", "point", "example", "evidence", "counterpoint", "conclusion"}
	tags := AllStructuralTags()
	if len(tags) != len(want) {
		t.Fatalf("expected %d tags, got %d", len(want), len(tags))
	}
	for i, tag := range tags {
		if tag.String() != want[i] {
			t.Errorf("expected %q, got %q", want[i], tag.String())
		}
		parsed, err := ParseStructuralTag(strings.ToUpper(want[i]))
		if err != nil || parsed != tag {
			t.Errorf("ParseStructuralTag(%q) = %v, %v", strings.ToUpper(want[i]), parsed, err)
		}
	}

	if _, err := ParseStructuralTag("heading"); err == nil {
		t.Error("expected error for unknown tag name")
	}
	if _, err := StructuralTag(99).MarshalText(); err == nil {
		t.Error("expected error for out-of-range tag")
	}
}

func TestArgumentRole_Strings(t *testing.T) {
	want := []string{"unknown", "supporting", "counterpoint", "elaboration", "evidence", "neutral"}
	for i, role := range AllArgumentRoles() {
		if role.String() != want[i] {
			t.Errorf("expected %q, got %q", want[i], role.String())
		}
	}

	var r ArgumentRole
	if err := json.Unmarshal([]byte(`"Supporting"`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r != RoleSupporting {
		t.Errorf("expected supporting, got %s", r)
	}
}

func TestDocument_JSONShape(t *testing.T) {
	doc := &Document{
		Metadata: map[string]any{"title": "Essay"},
		Paragraphs: []Paragraph{{
			ID:            "p-1",
			Text:          "A point. More.",
			StructuralTag: TagPoint,
			ArgumentRole:  RoleUnknown,
			Sentences:     []Sentence{{ID: "p-1-s1", Text: "A point."}, {ID: "p-1-s2", Text: "More."}},
		}},
		ArgumentTree: ArgumentTree{
			Thesis:     Slot{ID: "t"},
			Points:     []ArgumentPoint{{ID: "p-1", Gist: "A point.", SourceParagraphID: "p-1"}},
			Conclusion: Slot{ID: "c"},
		},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	paragraph := raw["paragraphs"].([]any)[0].(map[string]any)
	if paragraph["structural_tag"] != "point" || paragraph["argument_role"] != "unknown" {
		t.Errorf("unexpected enum encoding: %v", paragraph)
	}
	if _, ok := paragraph["gist"]; ok {
		t.Error("expected gist to be omitted when empty")
	}

	tree := raw["argument_tree"].(map[string]any)
	point := tree["points"].([]any)[0].(map[string]any)
	for _, key := range []string{"supporting_points", "counter_points"} {
		list, ok := point[key].([]any)
		if !ok || len(list) != 0 {
			t.Errorf("expected empty list for %s, got %v", key, point[key])
		}
	}
	thesis := tree["thesis"].(map[string]any)
	if thesis["id"] != "t" || thesis["text"] != "" {
		t.Errorf("unexpected thesis slot: %v", thesis)
	}

	var back Document
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal into Document: %v", err)
	}
	if back.Paragraphs[0].StructuralTag != TagPoint || len(back.Paragraphs[0].Sentences) != 2 {
		t.Errorf("unexpected decoded paragraph: %+v", back.Paragraphs[0])
	}
}

func TestDocument_Title(t *testing.T) {
	var doc Document
	if doc.Title() != "Untitled Document" {
		t.Errorf("expected default title, got %q", doc.Title())
	}
	doc.Metadata = map[string]any{"title": "  "}
	if doc.Title() != "Untitled Document" {
		t.Errorf("expected default for blank title, got %q", doc.Title())
	}
	doc.Metadata["title"] = "Essay"
	if doc.Title() != "Essay" {
		t.Errorf("expected Essay, got %q", doc.Title())
	}
}

func TestDocument_Clone(t *testing.T) {
	doc := &Document{
		Metadata:   map[string]any{"k": "v"},
		Paragraphs: []Paragraph{{ID: "p-1", Sentences: []Sentence{{ID: "s", Text: "x"}}}},
		ArgumentTree: ArgumentTree{
			Points: []ArgumentPoint{{ID: "p-1", Gist: "g"}},
		},
	}

	c := doc.Clone()
	c.Metadata["k"] = "changed"
	c.Paragraphs[0].Sentences[0].Text = "changed"
	c.ArgumentTree.Points[0].Gist = "changed"

	if doc.Metadata["k"] != "v" || doc.Paragraphs[0].Sentences[0].Text != "x" || doc.ArgumentTree.Points[0].Gist != "g" {
		t.Error("expected clone to be independent of the original")
	}
}

func TestTruncateGist(t *testing.T) {
	short := strings.Repeat("a", GistMaxRunes)
	if TruncateGist(short) != short {
		t.Error("expected text at the limit to be unchanged")
	}

	long := strings.Repeat("é", GistMaxRunes+1)
	got := TruncateGist(long)
	if got != strings.Repeat("é", GistMaxRunes)+"..." {
		t.Errorf("unexpected truncation: %q", got)
	}
}

func TestWordCount(t *testing.T) {
	if n := WordCount("  one two\tthree\nfour "); n != 4 {
		t.Errorf("expected 4 words, got %d", n)
	}
	if n := WordCount(""); n != 0 {
		t.Errorf("expected 0 words, got %d", n)
	}
}
