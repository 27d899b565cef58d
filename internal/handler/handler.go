package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"normcalc/internal/calc"
	"normcalc/internal/codec"
	"normcalc/internal/engine"
	"normcalc/internal/formula"
	"normcalc/internal/loader"
	"normcalc/internal/service"

	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CalculationHandler handles calculation API requests
type CalculationHandler struct {
	svc    *service.CalculationService
	logger *zap.Logger
}

// NewCalculationHandler creates a new calculation handler
func NewCalculationHandler(svc *service.CalculationService, logger *zap.Logger) *CalculationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalculationHandler{svc: svc, logger: logger}
}

// Register mounts the API routes on mux
func (h *CalculationHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/calculations/{id}/run", h.RunCalculation)
	mux.HandleFunc("GET /api/calculations/{id}/bom.xlsx", h.DownloadBOM)
	mux.HandleFunc("GET /api/norms/{context}", h.GetNorms)
	mux.HandleFunc("POST /api/formula/evaluate", h.EvaluateFormula)
	mux.HandleFunc("POST /api/catalog/import", h.ImportCatalog)
	mux.HandleFunc("POST /api/projects/import", h.ImportProject)
}

// ErrorResponse is the body of every error reply. Entity names the entity
// a fatal calculation error refers to.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Entity  string `json:"entity,omitempty"`
}

// RunCalculation runs a calculation pass and returns its result
func (h *CalculationHandler) RunCalculation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	result, err := h.svc.Run(r.Context(), id)
	if err != nil {
		h.fail(w, "Calculation failed", err)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// DownloadBOM runs a calculation and returns the bill of materials workbook
func (h *CalculationHandler) DownloadBOM(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var buf bytes.Buffer
	if err := h.svc.WriteBOM(r.Context(), id, &buf); err != nil {
		h.fail(w, "Failed to build bill of materials", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+sanitizeFilename(id)+`-bom.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write workbook", zap.Error(err))
	}
}

// NormsResponse lists the norms of one context type
type NormsResponse struct {
	Context string `json:"context"`
	Norms   any    `json:"norms"`
}

// GetNorms returns the norms registered under a context type
func (h *CalculationHandler) GetNorms(w http.ResponseWriter, r *http.Request) {
	contextType := r.PathValue("context")
	writeJSON(w, NormsResponse{
		Context: contextType,
		Norms:   h.svc.Norms(contextType),
	}, http.StatusOK)
}

// EvaluateRequest is the body of a formula preview
type EvaluateRequest struct {
	Formula   string             `json:"formula"`
	Variables map[string]float64 `json:"variables"`
}

// EvaluateFormula compiles and evaluates a formula for norm authors
func (h *CalculationHandler) EvaluateFormula(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Formula) == "" {
		writeError(w, "Formula is required", "", http.StatusBadRequest)
		return
	}

	vars := make(formula.Vars, len(req.Variables))
	for name, v := range req.Variables {
		vars[name] = v
	}

	preview, err := h.svc.EvaluateFormula(req.Formula, vars)
	if err != nil {
		h.fail(w, "Formula rejected", err)
		return
	}

	writeJSON(w, preview, http.StatusOK)
}

// CatalogResponse summarizes the snapshot installed by an import
type CatalogResponse struct {
	Norms     int    `json:"norms"`
	Materials int    `json:"materials"`
	Digest    string `json:"digest"`
}

// ImportCatalog replaces the norm catalog. The format comes from the
// format query parameter or the Content-Type, defaulting to YAML.
func (h *CalculationHandler) ImportCatalog(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "yaml"
		if strings.Contains(r.Header.Get("Content-Type"), "json") {
			format = "json"
		}
	}

	snapshot, err := h.svc.ImportCatalog(r.Context(), r.Body, format)
	if err != nil {
		h.fail(w, "Failed to import catalog", err)
		return
	}

	writeJSON(w, CatalogResponse{
		Norms:     snapshot.NormCount(),
		Materials: len(snapshot.Materials()),
		Digest:    snapshot.Digest(),
	}, http.StatusOK)
}

// ProjectResponse summarizes an imported project
type ProjectResponse struct {
	CalculationID string `json:"calculation_id"`
	Nodes         int    `json:"nodes"`
	Devices       int    `json:"devices"`
	Links         int    `json:"links"`
	Routes        int    `json:"routes"`
}

// ImportProject stores a project YAML document
func (h *CalculationHandler) ImportProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.svc.ImportProject(r.Context(), r.Body)
	if err != nil {
		h.fail(w, "Failed to import project", err)
		return
	}

	writeJSON(w, ProjectResponse{
		CalculationID: project.Calculation.ID,
		Nodes:         len(project.Nodes),
		Devices:       len(project.Devices),
		Links:         len(project.Links),
		Routes:        len(project.Routes),
	}, http.StatusCreated)
}

// fail maps err to a status code and writes the error reply
func (h *CalculationHandler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.Error(err))
	}

	resp := ErrorResponse{Error: message, Details: err.Error()}
	if ref, ok := calc.EntityOf(err); ok {
		resp.Entity = string(ref.Kind) + "/" + ref.ID
	}
	writeJSON(w, resp, status)
}

func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, engine.ErrCalculationNotFound):
		return http.StatusNotFound
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, codec.ErrInvalidCatalog),
		errors.Is(err, loader.ErrInvalidProject),
		errors.Is(err, service.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, formula.ErrSyntax), errors.Is(err, formula.ErrEvaluation):
		return http.StatusUnprocessableEntity
	}
	if _, ok := calc.EntityOf(err); ok {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

// Helper functions

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message, details string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: message, Details: details}, statusCode)
}
