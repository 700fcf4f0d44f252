package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ppiankov/docstruct/internal/classify"
	"github.com/ppiankov/docstruct/internal/enrich"
	"github.com/ppiankov/docstruct/internal/extract"
	"github.com/ppiankov/docstruct/internal/model"
	"github.com/ppiankov/docstruct/internal/segment"
	"github.com/ppiankov/docstruct/internal/synth"
)

// AnalyzeRequest is the body for POST /v1/analyze and /v1/transcript.
// Paragraphs wins over Text; Text is split on blank lines.
type AnalyzeRequest struct {
	Paragraphs []string       `json:"paragraphs"`
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata"`
}

// EnrichedResponse is returned by /v1/analyze when enrichment is requested
type EnrichedResponse struct {
	Document   *model.Document `json:"document"`
	Enrichment *enrich.Report  `json:"enrichment"`
}

// TextRequest is the body for POST /v1/split and /v1/classify
type TextRequest struct {
	Text string `json:"text"`
}

// SplitResponse lists the sentences of the request text
type SplitResponse struct {
	Sentences []string `json:"sentences"`
}

// ClassifyResponse is the heuristic classification of one paragraph
type ClassifyResponse struct {
	StructuralTag model.StructuralTag `json:"structural_tag"`
	ArgumentRole  model.ArgumentRole  `json:"argument_role"`
	Rule          string              `json:"rule,omitempty"`
}

// TranscriptResponse is the Markdown transcript of the analyzed text
type TranscriptResponse struct {
	Title      string `json:"title"`
	Transcript string `json:"transcript"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"enrich":   s.enricher != nil,
		"versions": []string{"v1"},
	})
}

// POST /v1/analyze[?enrich=true]
// Returns the document, or an EnrichedResponse when enrich is set.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	wantEnrich, _ := strconv.ParseBool(r.URL.Query().Get("enrich"))
	if wantEnrich && s.enricher == nil {
		s.writeError(w, http.StatusBadRequest, "enrichment is not configured")
		return
	}

	doc, ok := s.analyzeRequest(w, r)
	if !ok {
		return
	}
	if !wantEnrich {
		s.writeJSON(w, http.StatusOK, doc)
		return
	}

	enriched, report, err := s.enricher.Enrich(r.Context(), doc)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "enrichment cancelled")
		return
	}
	s.writeJSON(w, http.StatusOK, EnrichedResponse{Document: enriched, Enrichment: report})
}

// POST /v1/transcript
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.analyzeRequest(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, TranscriptResponse{
		Title:      doc.Title(),
		Transcript: synth.Transcript(doc),
	})
}

// POST /v1/split
func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !s.decode(w, r, &req) {
		return
	}
	sentences := []string{}
	if strings.TrimSpace(req.Text) != "" {
		sentences = segment.Split(req.Text)
	}
	s.writeJSON(w, http.StatusOK, SplitResponse{Sentences: sentences})
}

// POST /v1/classify
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	res := classify.Classify(strings.TrimSpace(req.Text))
	s.writeJSON(w, http.StatusOK, ClassifyResponse{
		StructuralTag: res.Tag,
		ArgumentRole:  res.Role,
		Rule:          res.Rule,
	})
}

func (s *Server) analyzeRequest(w http.ResponseWriter, r *http.Request) (*model.Document, bool) {
	var req AnalyzeRequest
	if !s.decode(w, r, &req) {
		return nil, false
	}

	// An explicit empty list is a valid, empty document
	paragraphs := req.Paragraphs
	metadata := req.Metadata
	if paragraphs == nil {
		if strings.TrimSpace(req.Text) == "" {
			s.writeError(w, http.StatusBadRequest, "paragraphs or text is required")
			return nil, false
		}
		src := extract.FromText(req.Text, req.Metadata)
		paragraphs = src.Paragraphs
		metadata = src.Metadata
	}

	return s.analyzer.Analyze(paragraphs, metadata), true
}

// decode reads a JSON body limited to the configured size
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if s.config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
