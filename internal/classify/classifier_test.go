package classify

import (
	"strings"
	"testing"

	"github.com/ppiankov/docstruct/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		tag  model.StructuralTag
		rule string
	}{
		{"Abstract", model.TagThesis, "abstract-header"},
		{"SUMMARY:", model.TagConclusion, "conclusion-keyword"},
		{"Introduction", model.TagIntroduction, "introduction-keyword"},
		{"Related Work", model.TagIntroduction, "heading"},
		{"2.1 Experimental setup", model.TagIntroduction, "heading"},
		{"1. Übersicht", model.TagIntroduction, "heading"},
		{"3 Études de cas", model.TagIntroduction, "heading"},
		{"This is a regular paragraph that should be classified.", model.TagUnknown, ""},
		{"In conclusion, we have demonstrated the effectiveness of our approach.", model.TagConclusion, "conclusion-keyword"},
		{"Some background before the conclusion.", model.TagConclusion, "conclusion-keyword"},
		{"We conclude that the method is effective.", model.TagUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res := Classify(tt.text)
			if res.Tag != tt.tag {
				t.Errorf("expected tag %s, got %s", tt.tag, res.Tag)
			}
			if res.Rule != tt.rule {
				t.Errorf("expected rule %q, got %q", tt.rule, res.Rule)
			}
			if res.Role != model.RoleUnknown {
				t.Errorf("expected role unknown, got %s", res.Role)
			}
		})
	}
}

func TestClassify_KeywordRulesNeedShortParagraph(t *testing.T) {
	long := "In conclusion " + strings.Repeat("word ", ShortParagraphWords)
	if res := Classify(long); res.Tag != model.TagUnknown {
		t.Errorf("expected long paragraph to stay unknown, got %s via %q", res.Tag, res.Rule)
	}

	short := "Background on the problem."
	if res := Classify(short); res.Tag != model.TagIntroduction {
		t.Errorf("expected introduction, got %s", res.Tag)
	}
}

func TestRules_Precedence(t *testing.T) {
	want := []string{"heading", "abstract-header", "introduction-keyword", "conclusion-keyword"}
	got := Rules()
	if len(got) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(got))
	}
	for i, r := range got {
		if r.Name != want[i] {
			t.Errorf("rule %d: expected %q, got %q", i, want[i], r.Name)
		}
	}

	// Callers cannot reorder the shared table
	got[0], got[3] = got[3], got[0]
	if Rules()[0].Name != "heading" {
		t.Error("expected rule table to be unaffected by caller mutation")
	}
}

func TestIsAbstractHeader(t *testing.T) {
	for _, s := range []string{"Abstract", "abstract:", "Summary\n", "ABSTRACT :"} {
		if !IsAbstractHeader(s) {
			t.Errorf("expected %q to be an abstract header", s)
		}
	}
	for _, s := range []string{"Abstract thinking", "An abstract", "Overview"} {
		if IsAbstractHeader(s) {
			t.Errorf("expected %q not to be an abstract header", s)
		}
	}
}

func TestIsHeading(t *testing.T) {
	for _, s := range []string{"Methods", "Related Work:", "3 Results", "1.2.3 Details"} {
		if !IsHeading(s) {
			t.Errorf("expected %q to be a heading", s)
		}
	}
	for _, s := range []string{"methods", "The results are in.", "ALL CAPS"} {
		if IsHeading(s) {
			t.Errorf("expected %q not to be a heading", s)
		}
	}
}
