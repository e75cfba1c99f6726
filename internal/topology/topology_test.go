package topology

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"podsync/internal/domain"
	"podsync/internal/store"
	"podsync/internal/store/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGraph struct {
	nodes  []domain.NodeRow
	rels   []domain.RelRow
	fixed  []string
	pruned []string
	err    error
}

func (g *fakeGraph) UpsertNodes(_ context.Context, rows []domain.NodeRow) error {
	g.nodes = append(g.nodes, rows...)
	return g.err
}

func (g *fakeGraph) UpsertRels(_ context.Context, rows []domain.RelRow) error {
	g.rels = append(g.rels, rows...)
	return nil
}

func (g *fakeGraph) FixEdges(_ context.Context, runID string) error {
	g.fixed = append(g.fixed, runID)
	return nil
}

func (g *fakeGraph) Prune(_ context.Context, scope, _ string) error {
	g.pruned = append(g.pruned, scope)
	return nil
}

func relTypes(rels []domain.RelRow) map[string]int {
	res := map[string]int{}
	for _, r := range rels {
		res[r.Type]++
	}
	return res
}

func TestBuildRowsStandaloneHost(t *testing.T) {
	hostID := uuid.New()
	host := model.Host{
		ID:    hostID,
		Name:  "kvm01",
		Cores: 8,
		StoragePools: []model.StoragePool{
			{ID: uuid.New(), Name: "default", Storage: 100},
		},
		VirtualMachines: []model.VirtualMachine{{
			ID:          uuid.New(),
			Name:        "vm1",
			PinnedCores: []int{1, 2},
			Disks: []model.VirtualMachineDisk{
				{Size: 10, BackingPool: "default"},
				{Size: 5, BackingPool: "default"},
			},
		}},
		RackRelationships: []model.RackRelationship{
			{AgentID: "a1", Routable: true},
			{AgentID: "gone", Routable: true},
		},
	}

	nodes, rels := BuildRows(Snapshot{
		RunID:  "r1",
		Scope:  domain.HostScope(hostID),
		Hosts:  []model.Host{host},
		Agents: []model.Agent{{ID: "a1", URL: "http://a1"}},
	})

	require.Len(t, nodes, 4)
	assert.Equal(t, "AGENT_a1", nodes[0].SyncKey)
	assert.Equal(t, "agents", nodes[0].Scope)
	assert.Equal(t, domain.MakeKey(domain.PrefixHost, hostID), nodes[1].SyncKey)
	assert.Equal(t, domain.HostScope(hostID), nodes[1].Scope)
	assert.NotEmpty(t, nodes[1].Properties["fingerprint"])

	vm := nodes[3]
	assert.Equal(t, []string{domain.LabelVirtualMachine, domain.LabelCompute}, vm.Labels)
	assert.Equal(t, []string{"default"}, vm.Properties["backing_pools"])
	assert.Equal(t, []int64{1, 2}, vm.Properties["pinned_cores"])
	assert.Equal(t, int64(15), vm.Properties["disk_size"])

	// 未登记的 agent 不生成 ROUTABLE
	assert.Equal(t, map[string]int{domain.RelHasPool: 1, domain.RelHostsVM: 1, domain.RelRoutable: 1}, relTypes(rels))
	for _, r := range rels {
		assert.Equal(t, "r1", r.RunID)
		if r.Type == domain.RelRoutable {
			assert.Equal(t, true, r.Properties["routable"])
		}
	}
}

func TestFingerprintStable(t *testing.T) {
	host := model.Host{ID: uuid.New(), Name: "h", Cores: 4}
	a, _ := BuildRows(Snapshot{RunID: "r1", Hosts: []model.Host{host}})
	b, _ := BuildRows(Snapshot{RunID: "r2", Hosts: []model.Host{host}})
	assert.Equal(t, a[0].Properties["fingerprint"], b[0].Properties["fingerprint"])

	host.Cores = 8
	c, _ := BuildRows(Snapshot{RunID: "r3", Hosts: []model.Host{host}})
	assert.NotEqual(t, a[0].Properties["fingerprint"], c[0].Properties["fingerprint"])
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	db, err := store.InitDB(store.Config{Name: filepath.Join(t.TempDir(), "topo.db")}, nil)
	require.NoError(t, err)
	s := store.NewStore(db, nil)
	require.NoError(t, s.InitialMigration(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestProjectorPublishesWholeCluster(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	cluster := &model.VMCluster{Name: "lab", Project: "default"}
	require.NoError(t, s.Cluster().Create(ctx, cluster))
	var hosts []*model.Host
	for _, name := range []string{"node1", "node2"} {
		h := &model.Host{Name: name, PodType: "lxd", ClusterID: &cluster.ID}
		require.NoError(t, s.Host().Create(ctx, h))
		hosts = append(hosts, h)
	}

	timeNow = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC) }
	t.Cleanup(func() { timeNow = time.Now })

	g := &fakeGraph{}
	require.NoError(t, NewProjector(s, g, nil).Publish(ctx, hosts[0]))

	assert.Equal(t, []string{domain.ClusterScope(cluster.ID)}, g.pruned)
	assert.Equal(t, []string{"20240102T030405.000000006Z"}, g.fixed)
	assert.Equal(t, 2, relTypes(g.rels)[domain.RelMemberOf])
	// 集群节点 + 两个成员
	assert.Len(t, g.nodes, 3)
}

func TestProjectorStandaloneHost(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	h := &model.Host{Name: "solo", PodType: "virsh"}
	require.NoError(t, s.Host().Create(ctx, h))

	g := &fakeGraph{}
	require.NoError(t, NewProjector(s, g, nil).Publish(ctx, h))
	assert.Equal(t, []string{domain.HostScope(h.ID)}, g.pruned)
	assert.Empty(t, relTypes(g.rels)[domain.RelMemberOf])
}

func TestProjectorStopsOnGraphError(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	h := &model.Host{Name: "solo", PodType: "virsh"}
	require.NoError(t, s.Host().Create(ctx, h))

	g := &fakeGraph{err: errors.New("neo4j down")}
	err := NewProjector(s, g, nil).Publish(ctx, h)
	assert.EqualError(t, err, "neo4j down")
	assert.Empty(t, g.pruned)
}
