// Package api exposes the prediction pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "green-finance-risk/internal/common/errors"
	"green-finance-risk/internal/common/logger"
	"green-finance-risk/internal/common/validation"
	"green-finance-risk/internal/companies"
	"green-finance-risk/internal/models"
	"green-finance-risk/internal/prediction"
)

const maxBodyBytes = 1 << 20

// Runner executes the prediction pipeline for one request.
type Runner interface {
	Execute(ctx context.Context, profile models.ImpactProfile, company models.CompanyContext) (*prediction.Result, error)
}

type Server struct {
	pipeline Runner
	catalog  companies.Catalog
	ready    func() bool
	logger   logger.Logger
}

type Options struct {
	Pipeline Runner
	Catalog  companies.Catalog
	// Ready reports whether the model artifacts are loaded.
	Ready  func() bool
	Logger logger.Logger
}

func NewServer(opts Options) *Server {
	ready := opts.Ready
	if ready == nil {
		ready = func() bool { return true }
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Server{
		pipeline: opts.Pipeline,
		catalog:  opts.Catalog,
		ready:    ready,
		logger:   log.With(map[string]interface{}{"component": "http-api"}),
	}
}

// Routes returns the API mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/reports", s.handleCreateReport)
	mux.HandleFunc("GET /v1/companies", s.handleListCompanies)
	mux.HandleFunc("GET /v1/companies/{name}", s.handleGetCompany)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, apperrors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidateReportRequest(body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req models.ReportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	company, err := companies.Resolve(r.Context(), s.catalog, req)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}

	result, err := s.pipeline.Execute(r.Context(), req.Profile(), company)
	if err != nil {
		s.logger.Error("Report request failed", map[string]interface{}{
			"companyName":    company.CompanyName,
			"errorCode":      string(apperrors.CodeOf(err)),
			"stageErrorCode": string(apperrors.StageCode(err)),
			"error":          err.Error(),
		})
		writeError(w, StatusFor(err), err)
		return
	}

	s.logger.Info("Report request served", map[string]interface{}{
		"requestId":   result.RequestID,
		"companyName": company.CompanyName,
		"durationMs":  time.Since(start).Milliseconds(),
	})
	writeJSON(w, http.StatusOK, models.ReportResponse{
		RequestID:       result.RequestID,
		CompanyName:     company.CompanyName,
		RiskProbability: result.Estimate.Primary,
		RiskLevel:       result.Estimate.Level(),
		Probabilities:   result.Estimate.Probabilities,
		Report:          result.Report,
	})
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, apperrors.NewCatalogUnavailableError(nil))
		return
	}
	names, err := s.catalog.Names(r.Context())
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"companies": names, "count": len(names)})
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := companies.Resolve(r.Context(), s.catalog, models.ReportRequest{CompanyName: r.PathValue("name")})
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"company": company,
		"summary": companies.Summary(company),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "artifacts not loaded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// StatusFor maps an error to its HTTP status. Stage failures are classified by
// the code of the stage that broke.
func StatusFor(err error) int {
	switch apperrors.StageCode(err) {
	case apperrors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.ErrCodeCompanyNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeCatalogUnavailable, apperrors.ErrCodeArtifactNotLoaded:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeAPIError, apperrors.ErrCodeEmptyResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Code           string `json:"code"`
	StageErrorCode string `json:"stageErrorCode,omitempty"`
	Message        string `json:"message"`
	Details        string `json:"details,omitempty"`
	Stage          string `json:"stage,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	stdErr := apperrors.Normalize(err)
	body := errorBody{
		Code:    string(stdErr.Code),
		Message: stdErr.Message,
		Details: stdErr.Details,
		Stage:   string(stdErr.Stage),
	}
	if stage := apperrors.StageCode(err); stage != stdErr.Code {
		body.StageErrorCode = string(stage)
	}
	writeJSON(w, status, map[string]errorBody{"error": body})
}
