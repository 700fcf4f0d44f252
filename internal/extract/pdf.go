package extract

import (
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	// paragraphGapFactor marks a vertical move as a paragraph break when it
	// exceeds the document's line step by this factor
	paragraphGapFactor = 1.5

	// tjSpaceThreshold is the TJ kerning (thousandths of an em) read as a word space
	tjSpaceThreshold = -200
)

// FromPDF extracts a PDF file
func FromPDF(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	src, err := FromPDFReader(f)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	src.Metadata["source_path"] = path
	src.Metadata["filename"] = filepath.Base(path)
	return src, nil
}

// FromPDFReader extracts paragraphs from every page's content stream. Vertical
// text moves clearly larger than the line step start a new paragraph.
func FromPDFReader(rs io.ReadSeeker) (*Source, error) {
	ctx, err := api.ReadValidateAndOptimize(rs, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	var paragraphs []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil || len(data) == 0 {
			continue
		}
		paragraphs = append(paragraphs, splitPDFParagraphs(parseContentStream(data))...)
	}

	if len(paragraphs) == 0 {
		return nil, ErrNoText
	}

	metadata := map[string]any{
		"pages": ctx.PageCount,
	}
	if title, ok := titleFromFirstLine(paragraphs[0]); ok {
		metadata["title"] = title
	}

	return &Source{Paragraphs: paragraphs, Metadata: metadata}, nil
}

// splitPDFParagraphs splits on blank lines and joins the lines of each paragraph
func splitPDFParagraphs(text string) []string {
	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = cleanPDFText(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// cleanPDFText normalises whitespace and drops non-printable runes
func cleanPDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

// textState tracks the text position while replaying a content stream.
// Lines are separated by '\n', paragraphs by a blank line.
type textState struct {
	sb         strings.Builder
	y          float64 // Current line origin
	lastY      float64 // Line origin of the last shown text
	step       float64 // Smallest vertical gap seen so far
	leading    float64
	hasText    bool
	moved      bool
	forceBreak bool
}

func (s *textState) moveTo(y float64) {
	s.y = y
	s.moved = true
}

func (s *textState) nextLine() {
	if s.leading != 0 {
		s.moveTo(s.y - s.leading)
		return
	}
	s.moved = true
	s.forceBreak = true
}

func (s *textState) show(text string) {
	if text == "" {
		return
	}

	if s.hasText && s.moved {
		gap := math.Abs(s.lastY - s.y)
		switch {
		case gap == 0 && !s.forceBreak:
			s.sb.WriteByte(' ')
		case gap == 0 || s.step == 0 || gap <= s.step*paragraphGapFactor:
			s.sb.WriteByte('\n')
		default:
			s.sb.WriteString("\n\n")
		}
		if gap > 0 && (s.step == 0 || gap < s.step) {
			s.step = gap
		}
	}

	s.sb.WriteString(text)
	s.hasText = true
	s.lastY = s.y
	s.moved = false
	s.forceBreak = false
}

// parseContentStream replays the text operators of a page content stream
func parseContentStream(data []byte) string {
	lex := &contentLexer{data: data}
	var state textState
	var operands []pdfToken

	for {
		tok, op, ok := lex.next()
		if !ok {
			break
		}
		if op == "" {
			operands = append(operands, tok)
			continue
		}

		nums := numbers(operands)
		switch op {
		case "BT":
			state.moveTo(0)
		case "Td", "TD":
			if len(nums) == 2 {
				if op == "TD" {
					state.leading = -nums[1]
				}
				state.moveTo(state.y + nums[1])
			}
		case "Tm":
			if len(nums) == 6 {
				state.moveTo(nums[5])
			}
		case "TL":
			if len(nums) == 1 {
				state.leading = nums[0]
			}
		case "T*":
			state.nextLine()
		case "Tj":
			state.show(lastString(operands))
		case "'", `"`:
			state.nextLine()
			state.show(lastString(operands))
		case "TJ":
			if len(operands) > 0 {
				state.show(arrayText(operands[len(operands)-1]))
			}
		case "ID":
			lex.skipInlineImage()
		}
		operands = operands[:0]
	}

	return state.sb.String()
}

func numbers(operands []pdfToken) []float64 {
	var out []float64
	for _, t := range operands {
		if t.kind == tokNumber {
			out = append(out, t.num)
		}
	}
	return out
}

func lastString(operands []pdfToken) string {
	for i := len(operands) - 1; i >= 0; i-- {
		if operands[i].kind == tokString {
			return operands[i].str
		}
	}
	return ""
}

// arrayText joins the strings of a TJ array, reading wide negative kerning as a space
func arrayText(tok pdfToken) string {
	var sb strings.Builder
	for _, item := range tok.items {
		switch item.kind {
		case tokString:
			sb.WriteString(item.str)
		case tokNumber:
			if item.num <= tjSpaceThreshold && sb.Len() > 0 && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}

type tokenKind int

const (
	tokOther tokenKind = iota
	tokNumber
	tokString
	tokArray
)

type pdfToken struct {
	kind  tokenKind
	num   float64
	str   string
	items []pdfToken
}

// contentLexer tokenizes a content stream into operands and operators
type contentLexer struct {
	data []byte
	pos  int
}

func isPDFSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isPDFDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *contentLexer) peek(offset int) byte {
	if l.pos+offset < len(l.data) {
		return l.data[l.pos+offset]
	}
	return 0
}

func (l *contentLexer) skipSpace() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if c == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		if !isPDFSpace(c) {
			return
		}
		l.pos++
	}
}

// next returns an operand token, or an operator name in op; ok is false at the end
func (l *contentLexer) next() (tok pdfToken, op string, ok bool) {
	l.skipSpace()
	if l.pos >= len(l.data) {
		return pdfToken{}, "", false
	}

	switch c := l.data[l.pos]; {
	case c == '(':
		return pdfToken{kind: tokString, str: l.readString()}, "", true
	case c == '<' && l.peek(1) == '<', c == '>' && l.peek(1) == '>':
		l.pos += 2
		return pdfToken{kind: tokOther}, "", true
	case c == '<':
		return pdfToken{kind: tokString, str: l.readHex()}, "", true
	case c == '[':
		l.pos++
		var items []pdfToken
		for {
			item, itemOp, itemOK := l.next()
			if !itemOK || itemOp == "]" {
				break
			}
			if itemOp == "" {
				items = append(items, item)
			}
		}
		return pdfToken{kind: tokArray, items: items}, "", true
	case c == ']':
		l.pos++
		return pdfToken{}, "]", true
	case c == '/':
		l.pos++
		l.readRegular()
		return pdfToken{kind: tokOther}, "", true
	}

	word := l.readRegular()
	if word == "" {
		// Stray delimiter
		l.pos++
		return pdfToken{kind: tokOther}, "", true
	}
	if n, err := strconv.ParseFloat(word, 64); err == nil {
		return pdfToken{kind: tokNumber, num: n}, "", true
	}
	return pdfToken{}, word, true
}

func (l *contentLexer) readRegular() string {
	start := l.pos
	for l.pos < len(l.data) && !isPDFSpace(l.data[l.pos]) && !isPDFDelimiter(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// readString reads a literal string with balanced parentheses
func (l *contentLexer) readString() string {
	l.pos++ // (
	depth := 1
	var raw []byte
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case c == '\\' && l.pos+1 < len(l.data):
			raw = append(raw, c, l.data[l.pos+1])
			l.pos += 2
			continue
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				l.pos++
				return decodePDFString(raw)
			}
		}
		raw = append(raw, c)
		l.pos++
	}
	return decodePDFString(raw)
}

// readHex reads a hex string; multi-byte font encodings are dropped
func (l *contentLexer) readHex() string {
	l.pos++ // <
	var digits []byte
	for l.pos < len(l.data) && l.data[l.pos] != '>' {
		if !isPDFSpace(l.data[l.pos]) {
			digits = append(digits, l.data[l.pos])
		}
		l.pos++
	}
	l.pos++ // >

	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	decoded, err := hex.DecodeString(string(digits))
	if err != nil {
		return ""
	}
	for _, b := range decoded {
		if b < 0x20 || b > 0x7e {
			return ""
		}
	}
	return string(decoded)
}

// skipInlineImage moves past binary inline image data up to the EI operator
func (l *contentLexer) skipInlineImage() {
	for l.pos+2 < len(l.data) {
		if isPDFSpace(l.data[l.pos]) && l.data[l.pos+1] == 'E' && l.data[l.pos+2] == 'I' &&
			(l.pos+3 == len(l.data) || isPDFSpace(l.data[l.pos+3])) {
			l.pos += 3
			return
		}
		l.pos++
	}
	l.pos = len(l.data)
}

// decodePDFString handles PDF literal string escape sequences
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			writeCharCode(&sb, raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b', 'f':
		case '\n':
			// Line continuation
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				writeCharCode(&sb, byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// writeCharCode writes a single-byte character code, reading the upper half as Latin-1
func writeCharCode(sb *strings.Builder, b byte) {
	if b < 0x80 {
		sb.WriteByte(b)
		return
	}
	sb.WriteRune(rune(b))
}
