package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/yhchiang/medrag/internal/config"
	"github.com/yhchiang/medrag/internal/core/domain"
	"github.com/yhchiang/medrag/internal/core/ports"
	"github.com/yhchiang/medrag/internal/core/usecase"
	"github.com/yhchiang/medrag/internal/observability/metrics"
)

const serviceName = "api"

const backpressureWait = 200 * time.Millisecond

// Pipeline is the slice of the core the HTTP surface serves. The query
// use case satisfies all four contracts.
type Pipeline interface {
	ports.LiteratureSearcher
	ports.QuestionAnswerer
	ports.QueryTranslator
	ports.StatsProvider
}

type Router struct {
	cfg      config.Config
	pipeline Pipeline
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(cfg config.Config, pipeline Pipeline, m *metrics.HTTPServerMetrics) *Router {
	return &Router{
		cfg:      cfg,
		pipeline: pipeline,
		metrics:  m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", rt.health)
	mux.HandleFunc("/api/stats", rt.corpusStats)
	mux.HandleFunc("/api/translate", rt.translate)
	mux.HandleFunc("/api/search", rt.search)
	mux.HandleFunc("/api/search_with_progress", rt.searchWithProgress)
	mux.HandleFunc("/api/rag_qa", rt.answerQuestion)
	mux.HandleFunc("/api/rag_qa_with_progress", rt.answerQuestionWithProgress)
	mux.Handle("/metrics", rt.metrics.Handler())

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = rt.metrics.Middleware(serviceName, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "PubMed Search API with Translation and RAG is running",
	})
}

func (rt *Router) corpusStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, rt.pipeline.Stats())
}

func (rt *Router) translate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Query is required"})
		return
	}

	translation, pureEnglish := rt.pipeline.Translate(r.Context(), req.Query)
	rt.metrics.RecordTranslation(serviceName, !pureEnglish)

	writeJSON(w, http.StatusOK, map[string]any{
		"original":        req.Query,
		"translated":      translation.Text,
		"is_pure_english": pureEnglish,
	})
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	sink := rt.timedSink(flowSearch, domain.DiscardProgress)
	result, err := rt.pipeline.Search(r.Context(), req.Query, req.TopK, sink)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.recordSearchOutcome("/api/search", req.Query, result, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) searchWithProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	start := time.Now()
	sink := rt.timedSink(flowSearch, stream.send)
	result, err := rt.pipeline.Search(r.Context(), req.Query, req.TopK, sink)
	if err != nil {
		// The terminal error event has already been streamed.
		return
	}

	rt.recordSearchOutcome("/api/search_with_progress", req.Query, result, time.Since(start))
}

func (rt *Router) answerQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req, ok := decodeAnswerRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	sink := rt.timedSink(flowAnswer, domain.DiscardProgress)
	result, err := rt.pipeline.Answer(r.Context(), req.Question, req.TopK, sink)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.recordAnswerOutcome("/api/rag_qa", req.Question, result, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) answerQuestionWithProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req, ok := decodeAnswerRequest(w, r)
	if !ok {
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	start := time.Now()
	sink := rt.timedSink(flowAnswer, stream.send)
	result, err := rt.pipeline.Answer(r.Context(), req.Question, req.TopK, sink)
	if err != nil {
		// The terminal error event has already been streamed.
		return
	}

	rt.recordAnswerOutcome("/api/rag_qa_with_progress", req.Question, result, time.Since(start))
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func decodeSearchRequest(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return searchRequest{}, false
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Query is required"})
		return searchRequest{}, false
	}
	return req, true
}

type answerRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

func decodeAnswerRequest(w http.ResponseWriter, r *http.Request) (answerRequest, bool) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return answerRequest{}, false
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Question is required"})
		return answerRequest{}, false
	}
	return req, true
}

func (rt *Router) recordSearchOutcome(endpoint, query string, result *domain.SearchResult, elapsed time.Duration) {
	rt.metrics.RecordRetrieval(serviceName, endpoint, result.TotalResults, elapsed)
	rt.metrics.RecordTranslation(serviceName, !usecase.IsPlainEnglish(query))
}

func (rt *Router) recordAnswerOutcome(endpoint, question string, result *domain.AnswerResult, elapsed time.Duration) {
	rt.metrics.RecordRetrieval(serviceName, endpoint, len(result.RelevantArticles), elapsed)
	rt.metrics.RecordTranslation(serviceName, !usecase.IsPlainEnglish(question))
	rt.metrics.RecordGateOutcome(serviceName, endpoint, result.Gate == domain.GateNormal)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
