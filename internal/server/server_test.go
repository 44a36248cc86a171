package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sajal1123/curio/internal/config"
	"github.com/sajal1123/curio/pkg/layer"
	"github.com/sajal1123/curio/pkg/resolve"
	"github.com/sajal1123/curio/pkg/scene"
	"github.com/sajal1123/curio/pkg/scene2d"
	"github.com/sajal1123/curio/pkg/validation"
)

const downtown = "../../examples/downtown"

func newTestServer(t *testing.T, dir string) *Server {
	t.Helper()
	s, err := New(context.Background(), dir, config.Default(), nil)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestLayers(t *testing.T) {
	h := newTestServer(t, downtown).Handler()
	rec := do(t, h, http.MethodGet, "/api/layers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var out []layer.Summary
	decode(t, rec, &out)
	require.Len(t, out, 3)
	assert.Equal(t, "sensors", out[0].ID)
	assert.Equal(t, layer.TypeBuildings, out[2].Type)
}

func TestKnots(t *testing.T) {
	h := newTestServer(t, downtown).Handler()
	rec := do(t, h, http.MethodGet, "/api/knots", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []knotInfo
	decode(t, rec, &out)
	require.Len(t, out, 4)
	assert.Equal(t, knotInfo{ID: "noise_buildings", Layer: "buildings", Links: 2}, out[1])
	assert.True(t, out[3].External)
}

func TestKnotResolvedAndCached(t *testing.T) {
	s := newTestServer(t, downtown)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/knots/noise_sensors", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res resolve.Result
	decode(t, rec, &res)
	assert.Equal(t, "sensors", res.Layer)
	assert.Equal(t, []float64{55, 70, 65}, res.Matrix[0])

	_, cached := s.results.Get("noise_sensors")
	assert.True(t, cached)

	require.NoError(t, s.Reload(context.Background()))
	assert.Equal(t, 0, s.results.Len(), "reload purges the cache")
}

func TestReloadDuringResolveDropsStaleResult(t *testing.T) {
	s := newTestServer(t, downtown)
	before := s.state()

	// a resolve that started before the reload finishes after it
	require.NoError(t, s.Reload(context.Background()))
	res, err := s.resolveByID(before, "noise_sensors")
	require.NoError(t, err)
	assert.Equal(t, "sensors", res.Layer)
	assert.Equal(t, 0, s.results.Len(), "a result of the replaced project is not cached")

	after := s.state()
	assert.Equal(t, before.gen+1, after.gen)
	fresh, err := s.resolveByID(after, "noise_sensors")
	require.NoError(t, err)
	assert.NotSame(t, res, fresh)

	c, ok := s.results.Get("noise_sensors")
	require.True(t, ok)
	assert.Equal(t, after.gen, c.gen)
	assert.Same(t, fresh, c.res)

	again, err := s.resolveByID(before, "noise_sensors")
	require.NoError(t, err)
	assert.NotSame(t, fresh, again, "an older snapshot never reads the newer generation's entry")
}

func TestKnotNotFound(t *testing.T) {
	h := newTestServer(t, downtown).Handler()
	rec := do(t, h, http.MethodGet, "/api/knots/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveChain(t *testing.T) {
	h := newTestServer(t, downtown).Handler()
	body := `{"integration_scheme": [
		{"out": {"name": "sensors", "level": "OBJECTS"}, "in": {"name": "noise", "level": "OBJECTS"}, "operation": "NONE", "abstract": true},
		{"spatial_relation": "NEAREST", "out": {"name": "buildings", "level": "OBJECTS"}, "in": {"name": "sensors", "level": "OBJECTS"}, "operation": "MAX", "maxDistance": 50}
	]}`

	rec := do(t, h, http.MethodPost, "/api/resolve", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out resolveResponse
	decode(t, rec, &out)
	require.Len(t, out.Values, 2)
	assert.Equal(t, 70.0, out.Values[0][6])
}

func TestResolveErrors(t *testing.T) {
	h := newTestServer(t, downtown).Handler()

	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"bad json", `{`, http.StatusBadRequest, ""},
		{"empty chain", `{"integration_scheme": []}`, http.StatusUnprocessableEntity, "chain"},
		{"missing layer", `{"integration_scheme": [{"out": {"name": "harbour", "level": "OBJECTS"}, "operation": "NONE", "abstract": true}]}`, http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/resolve", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var out errorBody
			decode(t, rec, &out)
			assert.NotEmpty(t, out.Error)
			assert.Equal(t, tt.kind, string(out.Kind))
		})
	}
}

func TestResolveErrorCarriesStep(t *testing.T) {
	h := newTestServer(t, downtown).Handler()
	body := `{"integration_scheme": [
		{"out": {"name": "sensors", "level": "OBJECTS"}, "in": {"name": "noise", "level": "OBJECTS"}, "operation": "NONE", "abstract": true},
		{"spatial_relation": "NEAREST", "out": {"name": "buildings", "level": "OBJECTS"}, "in": {"name": "sensors", "level": "OBJECTS"}, "operation": "NONE"}
	]}`

	rec := do(t, h, http.MethodPost, "/api/resolve", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var out errorBody
	decode(t, rec, &out)
	require.NotNil(t, out.Step)
	assert.Equal(t, 1, *out.Step)
	assert.Equal(t, "operator", string(out.Kind))
}

func TestScene(t *testing.T) {
	h := newTestServer(t, downtown).Handler()

	rec := do(t, h, http.MethodGet, "/api/scene?bbox=-1,-1,3,3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sc scene.Scene
	decode(t, rec, &sc)
	assert.Len(t, sc.Layers, 3)
	assert.Len(t, sc.Knots, 4)
	assert.NotNil(t, sc.Metadata.Filter)
	assert.Equal(t, []string{"noise_buildings", "noise_parks"}, sc.Groups.KnotGroups["noise"])

	rec = do(t, h, http.MethodGet, "/api/scene?bbox=1,2", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlan(t *testing.T) {
	h := newTestServer(t, downtown).Handler()

	rec := do(t, h, http.MethodGet, "/api/plan?t=1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var plan scene2d.Scene2D
	decode(t, rec, &plan)
	assert.Equal(t, 1, plan.Metadata.Timestep)
	require.Len(t, plan.Layers, 3)
	assert.Equal(t, 72.0, plan.Layers[2].Features[1].Values["noise_buildings"])

	rec = do(t, h, http.MethodGet, "/api/plan?t=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/plan?t=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidation(t *testing.T) {
	h := newTestServer(t, downtown).Handler()
	rec := do(t, h, http.MethodGet, "/api/validation", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var r validation.Report
	decode(t, rec, &r)
	assert.True(t, r.Valid, "%v", r.Errors)
}

func TestReloadKeepsProjectOnFailure(t *testing.T) {
	dir := t.TempDir()
	grammar := "layers: [pts]\nknots: []\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grammar.yaml"), []byte(grammar), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "layers"), 0o755))
	pts := `{"type": "POINTS_LAYER", "data": [{"geometry": {"coordinates": [0, 0, 0]}}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "layers", "pts.json"), []byte(pts), 0o644))

	s := newTestServer(t, dir)
	h := s.Handler()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "layers", "pts.json"), []byte("{"), 0o644))
	rec := do(t, h, http.MethodPost, "/api/reload", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/layers", "")
	var out []layer.Summary
	decode(t, rec, &out)
	assert.Len(t, out, 1, "the previous project stays loaded")
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, downtown).Handler()
	req := httptest.NewRequest(http.MethodGet, "/api/knots", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagated(t *testing.T) {
	h := newTestServer(t, downtown).Handler()
	req := httptest.NewRequest(http.MethodGet, "/", bytes.NewReader(nil))
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, http.StatusOK, rec.Code)
}
