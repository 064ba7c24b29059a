// Package httpapi exposes the synchronous REST harness used for integration
// testing: analysis and analysis-then-questions over plain POST, no session
// machinery involved.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/voxlab/interviewd/pkg/genai"
)

const defaultMaxBodyBytes = int64(1 << 20) // 1 MiB

// Analyzer is the slice of the generation client the harness needs.
type Analyzer interface {
	AnalyzeResume(ctx context.Context, resumeText, jdText string) genai.Analysis
	GenerateQuestions(ctx context.Context, analysis genai.Analysis, count int) []genai.QuestionDraft
}

// Server serves the REST harness endpoints.
type Server struct {
	gen           Analyzer
	questionCount int
	maxBodyBytes  int64
}

// NewServer builds the harness over gen. questionCount bounds the
// test-questions endpoint; values below 1 fall back to 2.
func NewServer(gen Analyzer, questionCount int) *Server {
	if questionCount < 1 {
		questionCount = 2
	}
	return &Server{gen: gen, questionCount: questionCount}
}

// RegisterRoutes mounts the harness on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/test-analysis", s.handleTestAnalysis)
	mux.HandleFunc("/api/test-questions", s.handleTestQuestions)
}

type testRequest struct {
	Resume string `json:"resume"`
	JD     string `json:"jd"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Code: "method_not_allowed", Message: http.StatusText(http.StatusMethodNotAllowed)})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "online", "message": "AI Interviewer Backend Ready"})
}

func (s *Server) handleTestAnalysis(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeTestRequest(w, r)
	if !ok {
		return
	}
	analysis := s.gen.AnalyzeResume(r.Context(), req.Resume, req.JD)
	if analysis.Empty() {
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Code: "analysis_failed", Message: "analysis failed or returned empty"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": analysis})
}

func (s *Server) handleTestQuestions(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeTestRequest(w, r)
	if !ok {
		return
	}
	analysis := s.gen.AnalyzeResume(r.Context(), req.Resume, req.JD)
	if analysis.Empty() {
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Code: "analysis_failed", Message: "analysis failed or returned empty"})
		return
	}
	questions := s.gen.GenerateQuestions(r.Context(), analysis, s.questionCount)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"count":     len(questions),
		"questions": questions,
	})
}

func (s *Server) decodeTestRequest(w http.ResponseWriter, r *http.Request) (testRequest, bool) {
	var req testRequest
	if r.Method != http.MethodPost {
		s.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Code: "method_not_allowed", Message: "only POST is supported"})
		return req, false
	}
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Code: "invalid_request", Message: err.Error()})
		return req, false
	}
	if strings.TrimSpace(req.Resume) == "" || strings.TrimSpace(req.JD) == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Code: "missing_fields", Message: "resume and jd are required"})
		return req, false
	}
	return req, true
}

func (s *Server) decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	defer r.Body.Close()
	reader := io.LimitReader(r.Body, s.bodyLimit())
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != nil && !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func (s *Server) bodyLimit() int64 {
	if s.maxBodyBytes > 0 {
		return s.maxBodyBytes
	}
	return defaultMaxBodyBytes
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// CORS wraps next with a permissive CORS policy for browser clients.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
