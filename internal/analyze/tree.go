package analyze

import "github.com/ppiankov/docstruct/internal/model"

// BuildTree assembles the argument tree from refined paragraphs.
//
// The thesis comes from the paragraph with thesisID, the conclusion from the
// last conclusion-tagged paragraph, and every point-tagged paragraph becomes a
// top-level point in document order. Missing slots are placeholders with an
// identifier from newID and empty text. Points are never nested.
func BuildTree(paragraphs []model.Paragraph, thesisID string, newID func() string) model.ArgumentTree {
	tree := model.ArgumentTree{
		Points: []model.ArgumentPoint{},
	}

	thesis, ok := findSlot(paragraphs, func(p model.Paragraph) bool { return thesisID != "" && p.ID == thesisID }, false)
	if !ok {
		thesis = model.Slot{ID: newID()}
	}
	tree.Thesis = thesis

	conclusion, ok := findSlot(paragraphs, func(p model.Paragraph) bool { return p.StructuralTag == model.TagConclusion }, true)
	if !ok {
		conclusion = model.Slot{ID: newID()}
	}
	tree.Conclusion = conclusion

	for _, p := range paragraphs {
		if p.StructuralTag != model.TagPoint {
			continue
		}
		tree.Points = append(tree.Points, model.ArgumentPoint{
			ID:                p.ID,
			Gist:              model.TruncateGist(p.Summary()),
			SourceParagraphID: p.ID,
			SupportingPoints:  []model.ArgumentPoint{},
			CounterPoints:     []model.ArgumentPoint{},
		})
	}

	return tree
}

// findSlot summarizes the first paragraph matching match, scanning backwards when reverse is set
func findSlot(paragraphs []model.Paragraph, match func(model.Paragraph) bool, reverse bool) (model.Slot, bool) {
	for k := range paragraphs {
		i := k
		if reverse {
			i = len(paragraphs) - 1 - k
		}
		if p := paragraphs[i]; match(p) {
			return model.Slot{ID: p.ID, Text: p.Summary()}, true
		}
	}
	return model.Slot{}, false
}
