package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"LinkStrategist/internal/domain"
	"LinkStrategist/internal/usecase"
)

type projectResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	TotalArticles     int       `json:"total_articles"`
	CompletedArticles int       `json:"completed_articles"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

type articleSummary struct {
	ID          string `json:"id"`
	FromURL     string `json:"from_url"`
	ToURL       string `json:"to_url"`
	MainKeyword string `json:"main_kw"`
	Status      string `json:"status"`
	OrderIndex  int    `json:"order_index"`
	HasHTML     bool   `json:"has_html"`
	HasAnalysis bool   `json:"has_analysis"`
}

type articleDetail struct {
	ID             string                 `json:"id"`
	FromURL        string                 `json:"from_url"`
	ToURL          string                 `json:"to_url"`
	MainKeyword    string                 `json:"main_kw"`
	Status         string                 `json:"status"`
	OrderIndex     int                    `json:"order_index"`
	ProcessingTime *float64               `json:"processing_time"`
	Analysis       *domain.AnalysisResult `json:"analysis,omitempty"`
}

type analyzeBody struct {
	HTMLContent      string `json:"html_content"`
	CustomPrompt     string `json:"custom_prompt"`
	OpportunityCount int    `json:"opportunity_count"`
}

func toProjectResponse(p domain.Project) projectResponse {
	return projectResponse{
		ID:                p.ID,
		Name:              p.Name,
		TotalArticles:     p.TotalArticles,
		CompletedArticles: p.CompletedArticles,
		Status:            string(p.Status),
		CreatedAt:         p.CreatedAt,
	}
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body: %w", domain.ErrValidation, err))
		return
	}

	project, err := s.svc.Projects.Create(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.svc.Projects.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.svc.Projects.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: multipart field \"file\" is required: %w", domain.ErrValidation, err))
		return
	}
	defer file.Close()

	n, err := s.svc.Ingestor.IngestFile(r.Context(), projectID, header.Filename, file)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        fmt.Sprintf("Successfully uploaded %d articles", n),
		"total_articles": n,
	})
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := s.svc.Projects.Articles(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]articleSummary, 0, len(articles))
	for _, a := range articles {
		out = append(out, articleSummary{
			ID:          a.ID,
			FromURL:     a.FromURL,
			ToURL:       a.ToURL,
			MainKeyword: a.MainKeyword,
			Status:      string(a.Status),
			OrderIndex:  a.OrderIndex,
			HasHTML:     a.HTMLContent != "",
			HasAnalysis: a.Analysis != nil,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Exporter.Export(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Projects.Article(r.Context(), chi.URLParam(r, "articleID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articleDetail{
		ID:             a.ID,
		FromURL:        a.FromURL,
		ToURL:          a.ToURL,
		MainKeyword:    a.MainKeyword,
		Status:         string(a.Status),
		OrderIndex:     a.OrderIndex,
		ProcessingTime: a.ProcessingTime,
		Analysis:       a.Analysis,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body: %w", domain.ErrValidation, err))
		return
	}

	// A missing or zero opportunity_count means the default.
	result, err := s.svc.Analyzer.Analyze(r.Context(), usecase.AnalyzeRequest{
		ArticleID:        chi.URLParam(r, "articleID"),
		HTMLContent:      body.HTMLContent,
		CustomPrompt:     body.CustomPrompt,
		OpportunityCount: body.OpportunityCount,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", code, "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
