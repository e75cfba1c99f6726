package discovery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"podsync/internal/store/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	discover func(ctx context.Context, agent model.Agent, target Target) (*Result, error)
	closed   atomic.Bool
}

func (c *fakeCaller) Discover(ctx context.Context, agent model.Agent, target Target) (*Result, error) {
	return c.discover(ctx, agent, target)
}

func (c *fakeCaller) Close() error {
	c.closed.Store(true)
	return nil
}

type fakeConnector struct {
	caller *fakeCaller
	err    error
}

func (c *fakeConnector) Connect(context.Context) (Caller, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.caller, nil
}

func agents(ids ...string) []model.Agent {
	res := make([]model.Agent, 0, len(ids))
	for _, id := range ids {
		res = append(res, model.Agent{ID: id})
	}
	return res
}

func TestDiscoverPartialFailure(t *testing.T) {
	caller := &fakeCaller{discover: func(_ context.Context, a model.Agent, _ Target) (*Result, error) {
		if a.ID == "b" {
			return nil, errors.New("connection refused")
		}
		return &Result{Pod: &Pod{Name: "pod-" + a.ID}}, nil
	}}
	d := NewDiscoverer(&fakeConnector{caller: caller}, 0, nil)

	outcome, err := d.Discover(context.Background(), Target{Name: "p"}, agents("a", "b", "c"))
	require.NoError(t, err)
	assert.Len(t, outcome.Successes, 2)
	assert.Len(t, outcome.Failures, 1)
	assert.Equal(t, map[string]bool{"a": true, "b": false, "c": true}, outcome.Routes())
	assert.Equal(t, "pod-a", outcome.Primary().Pod.Name)
	assert.EqualError(t, outcome.FirstError(), "connection refused")
	assert.True(t, caller.closed.Load())

	var agentErr *AgentError
	require.ErrorAs(t, outcome.Failures["b"], &agentErr)
	assert.Equal(t, "b", agentErr.AgentID)
}

func TestDiscoverFirstErrorFollowsAgentOrder(t *testing.T) {
	caller := &fakeCaller{discover: func(_ context.Context, a model.Agent, _ Target) (*Result, error) {
		if a.ID == "z" {
			time.Sleep(5 * time.Millisecond)
		}
		return nil, errors.New("failed on " + a.ID)
	}}
	d := NewDiscoverer(&fakeConnector{caller: caller}, 0, nil)

	outcome, err := d.Discover(context.Background(), Target{}, agents("z", "a"))
	require.NoError(t, err)
	assert.Empty(t, outcome.Successes)
	assert.Nil(t, outcome.Primary())
	assert.EqualError(t, outcome.FirstError(), "failed on z")
}

func TestDiscoverEmptyResultIsFailure(t *testing.T) {
	caller := &fakeCaller{discover: func(context.Context, model.Agent, Target) (*Result, error) {
		return &Result{}, nil
	}}
	d := NewDiscoverer(&fakeConnector{caller: caller}, 0, nil)

	outcome, err := d.Discover(context.Background(), Target{}, agents("a"))
	require.NoError(t, err)
	assert.ErrorIs(t, outcome.Failures["a"], ErrEmptyResult)
}

func TestDiscoverRunsConcurrently(t *testing.T) {
	const n = 5
	var started sync.WaitGroup
	started.Add(n)
	release := make(chan struct{})
	go func() {
		started.Wait()
		close(release)
	}()

	caller := &fakeCaller{discover: func(_ context.Context, a model.Agent, _ Target) (*Result, error) {
		started.Done()
		select {
		case <-release:
			return &Result{Pod: &Pod{Name: a.ID}}, nil
		case <-time.After(5 * time.Second):
			return nil, errors.New("calls were not in flight together")
		}
	}}
	d := NewDiscoverer(&fakeConnector{caller: caller}, 0, nil)

	outcome, err := d.Discover(context.Background(), Target{}, agents("a", "b", "c", "d", "e"))
	require.NoError(t, err)
	assert.Len(t, outcome.Successes, n)
	assert.Empty(t, outcome.Failures)
}

func TestDiscoverWorkerLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	caller := &fakeCaller{discover: func(_ context.Context, a model.Agent, _ Target) (*Result, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return &Result{Pod: &Pod{Name: a.ID}}, nil
	}}
	d := NewDiscoverer(&fakeConnector{caller: caller}, 2, nil)

	outcome, err := d.Discover(context.Background(), Target{}, agents("a", "b", "c", "d"))
	require.NoError(t, err)
	assert.Len(t, outcome.Successes, 4)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestDiscoverConnectError(t *testing.T) {
	d := NewDiscoverer(&fakeConnector{err: errors.New("no transport")}, 0, nil)
	_, err := d.Discover(context.Background(), Target{}, agents("a"))
	assert.ErrorContains(t, err, "no transport")
}

func TestAddressHelpers(t *testing.T) {
	assert.Equal(t, "10.0.0.1", AddressHost("https://10.0.0.1:8443"))
	assert.Equal(t, "10.0.0.1", AddressHost("10.0.0.1:8443"))
	assert.Equal(t, "host.example", AddressHost("qemu+ssh://ubuntu@Host.Example/system"))
	assert.True(t, SameAddress("10.0.0.1", "https://10.0.0.1:8443"))
	assert.False(t, SameAddress("", ""))
	assert.Equal(t, "10.0.0.1", IPFromAddress("qemu+ssh://root@10.0.0.1/system"))
	assert.Equal(t, "", IPFromAddress("lxd.example:8443"))
}
