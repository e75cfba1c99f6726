package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"podsync/internal/discovery"
	"podsync/internal/store/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionDiscover(t *testing.T) {
	var gotAuth string
	var gotTarget discovery.Target
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DiscoverAPI, r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotTarget))
		_ = json.NewEncoder(w).Encode(discovery.Result{Pod: &discovery.Pod{Name: "pod1", Cores: 4}})
	}))
	defer srv.Close()

	conn := NewConnector(Config{Tokens: NewTokens("t0k", nil)})
	caller, err := conn.Connect(context.Background())
	require.NoError(t, err)
	defer caller.Close()

	res, err := caller.Discover(context.Background(), model.Agent{ID: "a", URL: srv.URL + "/"}, discovery.Target{Name: "p", PodType: "lxd", PowerAddress: "10.0.0.1"})
	require.NoError(t, err)
	require.NotNil(t, res.Pod)
	assert.Equal(t, "pod1", res.Pod.Name)
	assert.Equal(t, "Bearer t0k", gotAuth)
	assert.Equal(t, "lxd", gotTarget.PodType)
}

func TestSessionDiscoverAgentErrorVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed talking to pod: certificate rejected"})
	}))
	defer srv.Close()

	s := NewConnector(Config{RetryAttempts: 3}).NewSession()
	defer s.Close()

	_, err := s.Discover(context.Background(), model.Agent{ID: "a", URL: srv.URL}, discovery.Target{})
	assert.EqualError(t, err, "Failed talking to pod: certificate rejected")
}

func TestSessionPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == HealthAPI {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewConnector(Config{}).NewSession()
	defer s.Close()
	assert.NoError(t, s.Ping(context.Background(), model.Agent{ID: "a", URL: srv.URL}))
}

func TestSessionUsesPerAgentToken(t *testing.T) {
	seen := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), HealthAPI)
		seen[id] = r.Header.Get("X-Agent-Token")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tokens := NewTokens("shared", map[string]string{"rack2": "r2-secret", "rack3": " "})
	s := NewConnector(Config{Tokens: tokens, AuthHeaderName: "X-Agent-Token"}).NewSession()
	defer s.Close()

	for _, id := range []string{"rack1", "rack2", "rack3"} {
		require.NoError(t, s.Ping(context.Background(), model.Agent{ID: id, URL: srv.URL + "/" + id}))
	}
	assert.Equal(t, "Bearer shared", seen["rack1"])
	assert.Equal(t, "Bearer r2-secret", seen["rack2"])
	assert.Equal(t, "Bearer shared", seen["rack3"])
}

func TestTokensWithoutSharedToken(t *testing.T) {
	tokens := NewTokens("", map[string]string{"rack1": "one"})
	assert.Equal(t, "one", tokens.For(model.Agent{ID: "rack1"}))
	assert.Empty(t, tokens.For(model.Agent{ID: "rack2"}))

	var none *Tokens
	assert.Empty(t, none.For(model.Agent{ID: "rack1"}))
}

func TestSessionDiscoverRetryDiscardsPartialResponse(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// cluster 类型不对，解码失败但 pod 已经被填充
			_, _ = w.Write([]byte(`{"pod":{"name":"stale","cores":4},"cluster":"node1"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(discovery.Result{Cluster: &discovery.Cluster{Name: "lxd", Pods: []discovery.Pod{{Name: "node1"}}}})
	}))
	defer srv.Close()

	s := NewConnector(Config{RetryAttempts: 2}).NewSession()
	defer s.Close()

	res, err := s.Discover(context.Background(), model.Agent{ID: "a", URL: srv.URL}, discovery.Target{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Nil(t, res.Pod)
	require.NotNil(t, res.Cluster)
	assert.Equal(t, "lxd", res.Cluster.Name)
}
