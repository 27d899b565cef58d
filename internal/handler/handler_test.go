package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"normcalc/internal/calc"
	"normcalc/internal/codec"
	"normcalc/internal/engine"
	"normcalc/internal/norms"
	"normcalc/internal/repository/memory"
	"normcalc/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const projectYAML = `
calculation: {id: calc-1, name: Warehouse}
devices:
  - {id: d1, type: camera}
links:
  - {id: l1, type: UTP, length: 12, to: {device: d1}}
routes:
  - {id: r1, type: corrugated_pipe, length: 10, orientation: horizontal, links: [l1]}
`

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	repo := memory.New()
	store := norms.NewStore(nil)
	eng := engine.New(repo, store, engine.Config{Workers: 2, Settings: calc.DefaultSettings()})
	svc := service.NewCalculationService(repo, store, eng, service.NewEventBus())

	_, err := svc.Seed(context.Background())
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewCalculationHandler(svc, nil).Register(mux)
	return mux
}

func do(t *testing.T, h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestImportAndRun(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/projects/import", "application/x-yaml", projectYAML)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	project := decode[ProjectResponse](t, rec)
	assert.Equal(t, ProjectResponse{CalculationID: "calc-1", Devices: 1, Links: 1, Routes: 1}, project)

	rec = do(t, h, http.MethodPost, "/api/calculations/calc-1/run", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[engine.Result](t, rec)
	assert.Equal(t, "calc-1", result.CalculationID)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 12.0, result.Quantities["CABLE_UTP_CAT5E"])
	assert.Equal(t, 10.0, result.Quantities["PIPE_CORRUGATED_20"])
	assert.Equal(t, 25.0, result.Quantities["CLIP_PIPE_20"])
	assert.Equal(t, 1, result.Entities.Routes)
}

func TestRunErrors(t *testing.T) {
	h := newTestServer(t)

	t.Run("unknown calculation", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/calculations/nope/run", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("fatal route error names the entity", func(t *testing.T) {
		bad := strings.Replace(projectYAML, "type: corrugated_pipe", "type: teleport", 1)
		rec := do(t, h, http.MethodPost, "/api/projects/import", "", bad)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = do(t, h, http.MethodPost, "/api/calculations/calc-1/run", "", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decode[ErrorResponse](t, rec)
		assert.Equal(t, "route/r1", resp.Entity)
	})
}

func TestDownloadBOM(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/projects/import", "", projectYAML).Code)

	rec := do(t, h, http.MethodGet, "/api/calculations/calc-1/bom.xlsx", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "calc-1-bom.xlsx")

	wb, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer wb.Close()
	assert.Contains(t, wb.GetSheetList(), "BOM")

	rec = do(t, h, http.MethodGet, "/api/calculations/nope/bom.xlsx", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestGetNorms(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/norms/ENDPOINT_CAMERA_FIXING", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Context string `json:"context"`
		Norms   []struct {
			Formula string `json:"formula"`
		} `json:"norms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ENDPOINT_CAMERA_FIXING", resp.Context)
	assert.Len(t, resp.Norms, 2)

	rec = do(t, h, http.MethodGet, "/api/norms/NOTHING_HERE", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"context":"NOTHING_HERE","norms":[]}`, rec.Body.String())
}

func TestEvaluateFormula(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"ok", `{"formula":"ceil(length / step)","variables":{"length":10,"step":0.5}}`, http.StatusOK},
		{"syntax error", `{"formula":"length *"}`, http.StatusUnprocessableEntity},
		{"unknown variable", `{"formula":"length"}`, http.StatusUnprocessableEntity},
		{"empty formula", `{"formula":"  "}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/formula/evaluate", "application/json", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, h, http.MethodPost, "/api/formula/evaluate", "application/json", tests[0].body)
	preview := decode[service.FormulaPreview](t, rec)
	assert.Equal(t, 20.0, preview.Value)
}

func TestImportCatalog(t *testing.T) {
	h := newTestServer(t)

	catalogJSON := `{"materials":[{"code":"CABLE_UTP_CAT6","name":"UTP Cat.6","unit":"m"}],
		"norms":[{"context":"LINK_UTP_LENGTH","material":"CABLE_UTP_CAT6","formula":"length"}]}`

	rec := do(t, h, http.MethodPost, "/api/catalog/import", "application/json", catalogJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[CatalogResponse](t, rec)
	assert.Equal(t, 1, resp.Norms)
	// materials are upserted over the seeded catalog, norms are replaced
	assert.Equal(t, len(codec.DefaultCatalog().Materials), resp.Materials)
	assert.NotEmpty(t, resp.Digest)

	rec = do(t, h, http.MethodPost, "/api/catalog/import?format=yaml", "", "norms: [{context: X, material: MISSING, formula: '1'}]")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/catalog/import?format=csv", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportProjectInvalid(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/projects/import", "", "calculation: {id: c}\nlinks: [{id: l1, to: {device: ghost}}]\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "ghost")
}
