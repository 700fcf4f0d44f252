package enrich

import (
	"fmt"
	"strings"
)

const (
	analysisSystemPrompt = "You are a document analysis assistant that identifies the structural elements of text and creates concise summaries."
	imageSystemPrompt    = "You are a helpful assistant that creates concise visual descriptions."

	wordsPerGistSentence = 50
	imageTagMaxTokens    = 50
)

// positionContext describes where a paragraph sits in the document
func positionContext(index, total int) string {
	switch {
	case index < 2:
		return "beginning"
	case index >= total-2:
		return "end"
	default:
		return "middle"
	}
}

// maxGistSentences allows one gist sentence per fifty words, at least one
func maxGistSentences(words int) int {
	return max(1, words/wordsPerGistSentence)
}

// analysisPrompt asks for the structural tag, argument role and gist of one paragraph
func analysisPrompt(text, position, title string, words int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the following paragraph from a document titled %q.\n", title)
	fmt.Fprintf(&b, "This paragraph appears at the %s of the document.\n\n", position)
	fmt.Fprintf(&b, "Paragraph:\n%s\n\n", text)

	b.WriteString(`1. Identify the structural role of this paragraph:
   - THESIS: Main argument or claim of the document
   - INTRODUCTION: Heading, background or framing
   - POINT: Key supporting evidence or claim
   - EXAMPLE: Illustrative instance or detailed evidence
   - EVIDENCE: Data or citations backing a point
   - COUNTERPOINT: Opposing view or limitation
   - CONCLUSION: Final synthesis, summary, or implication

2. Identify the argument role of this paragraph:
   - SUPPORTING: Directly supports the main thesis
   - COUNTERPOINT: Presents an opposing view or limitation
   - ELABORATION: Explains or adds detail to a previous point
   - EVIDENCE: Supplies data or citations
   - NEUTRAL: Neither supports nor opposes

3. Create a concise gist of this paragraph that captures its core meaning.
`)
	fmt.Fprintf(&b, "   - The paragraph has %d words, so the gist should be at most %d sentence(s)\n", words, maxGistSentences(words))
	b.WriteString(`   - State the gist directly, in the voice of the original text
   - Do not start with phrases like "This paragraph discusses..."
   - Every sentence must be complete and grammatical

Respond with JSON only:
{"structural_tag": "THESIS|INTRODUCTION|POINT|EXAMPLE|EVIDENCE|COUNTERPOINT|CONCLUSION", "argument_role": "SUPPORTING|COUNTERPOINT|ELABORATION|EVIDENCE|NEUTRAL", "gist": "..."}`)

	return b.String()
}

// imageTagPrompt asks for a short visual description of one gist sentence
func imageTagPrompt(sentence string) string {
	return fmt.Sprintf(`Create a brief visual description (5-10 words) for an image that would illustrate the following sentence:

%q

The description should be visual and concrete, representative of the key concept, and brief.
Respond with just the image description, nothing else.`, sentence)
}
