package loader_test

import (
	"context"
	"os"
	"testing"

	"podsync/internal/domain"
	"podsync/internal/loader"
	"podsync/internal/store/model"
	"podsync/internal/topology"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// 需要本地 neo4j，通过 PODSYNC_NEO4J_URI 指定，例如 bolt://localhost:7687。
func TestProjectAndPruneNeo4j(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	uri := os.Getenv("PODSYNC_NEO4J_URI")
	if uri == "" {
		t.Skip("PODSYNC_NEO4J_URI not set")
	}
	ctx := context.Background()

	client, err := loader.NewClient(ctx, loader.Config{
		URI:      uri,
		Username: envOr("PODSYNC_NEO4J_USER", "neo4j"),
		Password: envOr("PODSYNC_NEO4J_PASSWORD", "StrongPassw0rd"),
		Database: "neo4j",
	})
	if err != nil {
		t.Skipf("neo4j not available: %v", err)
	}
	defer client.Close(ctx)

	require.NoError(t, client.RunWrite(ctx, "MATCH (n:Synced) DETACH DELETE n", nil))

	g := loader.NewGraph(client, 200)
	require.NoError(t, g.EnsureSchema(ctx))

	host := model.Host{
		ID:      uuid.New(),
		Name:    "lxd-1",
		PodType: "lxd",
		StoragePools: []model.StoragePool{
			{ID: uuid.New(), Name: "default", PoolType: "zfs", Storage: 100},
		},
		VirtualMachines: []model.VirtualMachine{
			{ID: uuid.New(), Name: "vm1", Disks: []model.VirtualMachineDisk{{Size: 10, BackingPool: "default"}}},
		},
	}
	scope := domain.HostScope(host.ID)

	project := func(runID string, h model.Host) {
		nodes, rels := topology.BuildRows(topology.Snapshot{RunID: runID, Scope: scope, Hosts: []model.Host{h}})
		require.NoError(t, g.UpsertNodes(ctx, nodes))
		require.NoError(t, g.UpsertRels(ctx, rels))
		require.NoError(t, g.FixEdges(ctx, runID))
		require.NoError(t, g.Prune(ctx, scope, runID))
	}
	count := func(query string) int64 {
		t.Helper()
		records, err := client.RunRead(ctx, query, map[string]any{"scope": scope})
		require.NoError(t, err)
		require.Len(t, records, 1)
		return records[0]["c"].(int64)
	}

	project("20260101T000000.000000000Z", host)
	hosts, err := g.CountHosts(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, hosts)
	require.EqualValues(t, 1, count("MATCH (:VirtualMachine {scope: $scope}) RETURN count(*) AS c"))
	require.EqualValues(t, 1, count("MATCH (:VirtualMachine {scope: $scope})-[:BACKED_BY]->(:StoragePool) RETURN count(*) AS c"))

	// 第二轮没有 VM，旧 run 写入的节点应被清理
	host.VirtualMachines = nil
	project("20260101T000100.000000000Z", host)
	require.EqualValues(t, 0, count("MATCH (:VirtualMachine {scope: $scope}) RETURN count(*) AS c"))
	require.EqualValues(t, 1, count("MATCH (:StoragePool {scope: $scope}) RETURN count(*) AS c"))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
