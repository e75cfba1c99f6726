package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"podsync/internal/agent"
	"podsync/internal/app"
	"podsync/internal/discovery"
	"podsync/internal/store"
	"podsync/internal/store/model"
	"podsync/internal/vmhost"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	err    error
	actors []string
}

func (f *fakeSyncer) Sync(_ context.Context, target *model.Host, actor string) (*model.Host, error) {
	f.actors = append(f.actors, actor)
	if f.err != nil {
		return nil, f.err
	}
	return target, nil
}

func newRegion(t *testing.T, syncer *fakeSyncer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := store.InitDB(store.Config{Name: filepath.Join(t.TempDir(), "router.db")}, nil)
	require.NoError(t, err)
	s := store.NewStore(db, nil)
	t.Cleanup(func() { _ = s.Close() })
	svc, err := app.NewService(app.Config{}, s, syncer, nil, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Init(context.Background()))
	return NewEngine(NewHostHandler(svc, nil), prometheus.NewRegistry())
}

func do(engine http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestCreateHostDiscoveryExhausted(t *testing.T) {
	syncer := &fakeSyncer{err: vmhost.NewErrDiscoveryExhausted(errors.New("Failed to connect to the LXD REST API."))}
	engine := newRegion(t, syncer)

	w := do(engine, http.MethodPost, "/api/v1/hosts", map[string]any{"pod_type": "lxd", "power_address": "10.0.0.1"}, "X-Actor", "alice")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Failed to connect to the LXD REST API.", errorOf(t, w))
	assert.Equal(t, []string{"alice"}, syncer.actors)
}

func TestCreateHostAndFetch(t *testing.T) {
	syncer := &fakeSyncer{}
	engine := newRegion(t, syncer)

	w := do(engine, http.MethodPost, "/api/v1/hosts", map[string]any{"name": "h1", "pod_type": "lxd", "power_address": "10.0.0.1"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"api"}, syncer.actors)

	var created model.Host
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = do(engine, http.MethodGet, "/api/v1/hosts/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(engine, http.MethodGet, "/api/v1/hosts/"+created.ID.String()+"/resources", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "storage_pools")

	w = do(engine, http.MethodPost, "/api/v1/hosts/"+created.ID.String()+"/refresh", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateHostInvalid(t *testing.T) {
	engine := newRegion(t, &fakeSyncer{})
	w := do(engine, http.MethodPost, "/api/v1/hosts", map[string]any{"pod_type": "lxd"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidTopologyMapsTo422(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(vmhost.NewErrInvalidTopology("lab", "h1")))
	assert.Equal(t, http.StatusConflict, statusOf(store.ErrDuplicateKey))
	assert.Equal(t, http.StatusConflict, statusOf(vmhost.NewErrDuplicateMember("lab", "node2", uuid.New())))
	assert.Equal(t, http.StatusInternalServerError, statusOf(errors.New("boom")))
}

func TestNotFound(t *testing.T) {
	engine := newRegion(t, &fakeSyncer{})
	assert.Equal(t, http.StatusNotFound, do(engine, http.MethodGet, "/api/v1/hosts/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusNotFound, do(engine, http.MethodPost, "/api/v1/hosts/"+uuid.NewString()+"/refresh", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(engine, http.MethodGet, "/api/v1/clusters/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(engine, http.MethodGet, "/api/v1/hosts/not-a-uuid", nil).Code)
}

func TestAgents(t *testing.T) {
	engine := newRegion(t, &fakeSyncer{})
	w := do(engine, http.MethodPost, "/api/v1/agents", map[string]any{"id": "rack1", "url": "http://rack1:5248", "subnets": []string{"10.0.0.0/24"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(engine, http.MethodGet, "/api/v1/agents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var agents []model.Agent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agents))
	require.Len(t, agents, 1)
	assert.Equal(t, []string{"10.0.0.0/24"}, agents[0].Subnets)
}

func TestMetricsEndpoint(t *testing.T) {
	engine := newRegion(t, &fakeSyncer{})
	assert.Equal(t, http.StatusOK, do(engine, http.MethodGet, "/metrics", nil).Code)
}

type fakeDrivers struct {
	result *discovery.Result
	err    error
}

func (f *fakeDrivers) Types() []string { return []string{"lxd"} }

func (f *fakeDrivers) Discover(context.Context, discovery.Target) (*discovery.Result, error) {
	return f.result, f.err
}

func TestAgentAPIRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := NewAgentEngine(NewAgentHandler(&fakeDrivers{}, "secret", "", nil))

	assert.Equal(t, http.StatusUnauthorized, do(engine, http.MethodPost, "/api/v1/discover", discovery.Target{}).Code)
	assert.Equal(t, http.StatusOK, do(engine, http.MethodGet, "/healthz", nil).Code)
}

func TestAgentAPIRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	drivers := &fakeDrivers{result: &discovery.Result{Pod: &discovery.Pod{Name: "node1", Cores: 8}}}
	srv := httptest.NewServer(NewAgentEngine(NewAgentHandler(drivers, "secret", "", nil)))
	defer srv.Close()

	conn := agent.NewConnector(agent.Config{Tokens: agent.NewTokens("", map[string]string{"rack1": "secret"})})
	sess := conn.NewSession()
	defer sess.Close()

	a := model.Agent{ID: "rack1", URL: srv.URL}
	res, err := sess.Discover(context.Background(), a, discovery.Target{PodType: "lxd", PowerAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "node1", res.Pod.Name)
	require.NoError(t, sess.Ping(context.Background(), a))

	drivers.result, drivers.err = nil, errors.New("Certificate is not trusted and no password was given.")
	_, err = sess.Discover(context.Background(), a, discovery.Target{PodType: "lxd"})
	assert.EqualError(t, err, "Certificate is not trusted and no password was given.")
}
