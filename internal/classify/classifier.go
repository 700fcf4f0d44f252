// Package classify assigns an initial structural tag to a single paragraph.
package classify

import (
	"regexp"
	"strings"

	"github.com/ppiankov/docstruct/internal/model"
)

// ShortParagraphWords is the exclusive word limit for keyword-based rules
const ShortParagraphWords = 20

var (
	headingPattern  = regexp.MustCompile(`^(?:(?:[0-9]+\.?)+\s+[\p{L}\p{N}_]+|[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*[\s:]*$)`)
	abstractPattern = regexp.MustCompile(`(?i)^(?:abstract|summary)[\s:]*$`)

	introductionKeywords = []string{"introduction", "background", "context"}
	conclusionKeywords   = []string{
		"conclusion", "summary", "in summary", "to summarize",
		"in conclusion", "to conclude", "finally",
	}
)

// Rule tags a paragraph when Match reports true
type Rule struct {
	Name  string
	Tag   model.StructuralTag
	Match func(text string) bool
}

// rules are evaluated in order; the last matching rule decides the tag
var rules = [...]Rule{
	{Name: "heading", Tag: model.TagIntroduction, Match: IsHeading},
	{Name: "abstract-header", Tag: model.TagThesis, Match: IsAbstractHeader},
	{Name: "introduction-keyword", Tag: model.TagIntroduction, Match: shortWithKeyword(introductionKeywords)},
	{Name: "conclusion-keyword", Tag: model.TagConclusion, Match: shortWithKeyword(conclusionKeywords)},
}

// Rules returns the rule table in evaluation order
func Rules() []Rule {
	return append([]Rule(nil), rules[:]...)
}

// Result is the initial classification of one paragraph
type Result struct {
	Tag  model.StructuralTag
	Role model.ArgumentRole
	Rule string // Name of the deciding rule, empty when none matched
}

// Classify runs every rule against text. Later matches override earlier ones,
// so a short paragraph with both introduction and conclusion keywords ends up
// a conclusion. The argument role is always left unknown.
func Classify(text string) Result {
	res := Result{Tag: model.TagUnknown, Role: model.RoleUnknown}
	for _, r := range rules {
		if r.Match(text) {
			res.Tag = r.Tag
			res.Rule = r.Name
		}
	}
	return res
}

// IsHeading reports whether text looks like a numbered heading or a short Title Case line
func IsHeading(text string) bool {
	return headingPattern.MatchString(text)
}

// IsAbstractHeader reports whether text is only an "Abstract" or "Summary" header
func IsAbstractHeader(text string) bool {
	return abstractPattern.MatchString(text)
}

func shortWithKeyword(keywords []string) func(string) bool {
	return func(text string) bool {
		if model.WordCount(text) >= ShortParagraphWords {
			return false
		}
		lower := strings.ToLower(text)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	}
}
