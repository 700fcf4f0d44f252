package analyze

import (
	"github.com/ppiankov/docstruct/internal/classify"
	"github.com/ppiankov/docstruct/internal/model"
)

const (
	thesisScanLimit = 3  // Only the first paragraphs may become a thesis by length
	thesisMinWords  = 30 // Exclusive
	pointMinWords   = 20 // Exclusive
)

// Refine applies the document-level passes to individually classified
// paragraphs and returns a new slice together with the ID of the designated
// thesis paragraph (empty when none was found). The input is not modified.
//
// Passes, in order:
//  1. an unknown first paragraph becomes an introduction;
//  2. with more than two paragraphs, an unknown last paragraph becomes a conclusion;
//  3. the first paragraph preceded by an abstract header, or among the first
//     three with more than 30 words, becomes the thesis regardless of its tag;
//  4. remaining unknown paragraphs become points (more than 20 words) or examples.
func Refine(paragraphs []model.Paragraph) ([]model.Paragraph, string) {
	out := make([]model.Paragraph, len(paragraphs))
	for i, p := range paragraphs {
		out[i] = p.Clone()
	}
	n := len(out)

	if n > 0 && out[0].StructuralTag == model.TagUnknown {
		out[0].StructuralTag = model.TagIntroduction
	}

	if n > 2 && out[n-1].StructuralTag == model.TagUnknown {
		out[n-1].StructuralTag = model.TagConclusion
	}

	thesisID := ""
	if i := findThesis(out); i >= 0 {
		out[i].StructuralTag = model.TagThesis
		thesisID = out[i].ID
	}

	for i := range out {
		if out[i].StructuralTag != model.TagUnknown {
			continue
		}
		if model.WordCount(out[i].Text) > pointMinWords {
			out[i].StructuralTag = model.TagPoint
		} else {
			out[i].StructuralTag = model.TagExample
		}
	}

	return out, thesisID
}

// findThesis returns the index of the thesis paragraph or -1. Both conditions
// are checked per paragraph in document order; the first hit wins.
func findThesis(paragraphs []model.Paragraph) int {
	for i, p := range paragraphs {
		if i > 0 && classify.IsAbstractHeader(paragraphs[i-1].Text) {
			return i
		}
		if i < thesisScanLimit && model.WordCount(p.Text) > thesisMinWords {
			return i
		}
	}
	return -1
}
