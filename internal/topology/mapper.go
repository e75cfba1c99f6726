package topology

import (
	"podsync/internal/domain"
	"podsync/internal/store/model"
	"podsync/pkg/util"
)

// Snapshot 是一次投影的输入：一个集群的全部成员，或者一台独立宿主机。
type Snapshot struct {
	RunID   string
	Scope   string
	Cluster *model.VMCluster
	Hosts   []model.Host
	Agents  []model.Agent
}

const agentScope = "agents"

// BuildRows 根据快照生成建图所需的节点和关系。
func BuildRows(s Snapshot) ([]domain.NodeRow, []domain.RelRow) {
	now := timeNow().UTC()
	var (
		nodes []domain.NodeRow
		rels  []domain.RelRow
	)
	node := func(key, scope string, props map[string]any, labels ...string) {
		props["fingerprint"] = util.HashMap(props)
		nodes = append(nodes, domain.NodeRow{
			SyncKey:    key,
			Labels:     labels,
			Properties: props,
			Scope:      scope,
			RunID:      s.RunID,
			UpdatedAt:  now,
		})
	}
	rel := func(start, end, relType string, props map[string]any) {
		rels = append(rels, domain.RelRow{
			StartKey:   start,
			EndKey:     end,
			Type:       relType,
			Properties: props,
			Scope:      s.Scope,
			RunID:      s.RunID,
		})
	}

	agentKeys := make(map[string]string, len(s.Agents))
	for _, a := range s.Agents {
		key := domain.MakeKey(domain.PrefixAgent, a.ID)
		agentKeys[a.ID] = key
		node(key, agentScope, map[string]any{
			"id":      a.ID,
			"name":    a.Name,
			"url":     a.URL,
			"subnets": nonNil(a.Subnets),
		}, domain.LabelAgent)
	}

	var clusterKey string
	if s.Cluster != nil {
		clusterKey = domain.MakeKey(domain.PrefixCluster, s.Cluster.ID)
		node(clusterKey, s.Scope, map[string]any{
			"id":      s.Cluster.ID.String(),
			"name":    s.Cluster.Name,
			"project": s.Cluster.Project,
			"zone":    s.Cluster.Zone,
			"pool":    s.Cluster.Pool,
		}, domain.LabelVMCluster)
	}

	for _, h := range s.Hosts {
		hostKey := domain.MakeKey(domain.PrefixHost, h.ID)
		node(hostKey, s.Scope, hostProperties(&h), domain.LabelVMHost, domain.LabelCompute)
		if clusterKey != "" {
			rel(hostKey, clusterKey, domain.RelMemberOf, map[string]any{"source": "sync"})
		}

		for _, p := range h.StoragePools {
			poolKey := domain.MakeKey(domain.PrefixPool, p.ID)
			node(poolKey, s.Scope, map[string]any{
				"id":        p.ID.String(),
				"name":      p.Name,
				"pool_type": p.PoolType,
				"path":      p.Path,
				"storage":   p.Storage,
				"host_key":  hostKey,
			}, domain.LabelStoragePool)
			rel(hostKey, poolKey, domain.RelHasPool, map[string]any{"source": "sync"})
		}

		for _, vm := range h.VirtualMachines {
			vmKey := domain.MakeKey(domain.PrefixVirtual, vm.ID)
			node(vmKey, s.Scope, vmProperties(&vm, hostKey), domain.LabelVirtualMachine, domain.LabelCompute)
			rel(hostKey, vmKey, domain.RelHostsVM, map[string]any{"source": "sync"})
		}

		for _, rr := range h.RackRelationships {
			agentKey, ok := agentKeys[rr.AgentID]
			if !ok {
				continue
			}
			rel(hostKey, agentKey, domain.RelRoutable, map[string]any{"routable": rr.Routable})
		}
	}
	return nodes, rels
}

func hostProperties(h *model.Host) map[string]any {
	props := map[string]any{
		"id":               h.ID.String(),
		"name":             h.Name,
		"pod_type":         h.PodType,
		"power_address":    h.PowerAddress,
		"ip_address":       h.IPAddress,
		"architectures":    nonNil(h.Architectures),
		"cores":            int64(h.Cores),
		"memory":           h.Memory,
		"hugepages_memory": h.HugepagesMemory,
		"cpu_speed":        int64(h.CPUSpeed),
		"local_storage":    h.LocalStorage,
		"zone":             h.Zone,
		"pool":             h.Pool,
		"project":          h.Project,
		"last_synced_by":   h.LastSyncedBy,
	}
	if h.ClusterID != nil {
		props["cluster_id"] = h.ClusterID.String()
	}
	if h.LastSyncedAt != nil {
		props["last_synced_at"] = h.LastSyncedAt.UTC()
	}
	return props
}

func vmProperties(vm *model.VirtualMachine, hostKey string) map[string]any {
	pinned := make([]int64, 0, len(vm.PinnedCores))
	for _, c := range vm.PinnedCores {
		pinned = append(pinned, int64(c))
	}
	pools := make([]string, 0, len(vm.Disks))
	seen := make(map[string]bool, len(vm.Disks))
	var disk int64
	for _, d := range vm.Disks {
		disk += d.Size
		if d.BackingPool != "" && !seen[d.BackingPool] {
			seen[d.BackingPool] = true
			pools = append(pools, d.BackingPool)
		}
	}
	return map[string]any{
		"id":               vm.ID.String(),
		"name":             vm.Name,
		"memory":           vm.Memory,
		"pinned_cores":     pinned,
		"unpinned_cores":   int64(vm.UnpinnedCores),
		"hugepages_backed": vm.HugepagesBacked,
		"disk_size":        disk,
		"backing_pools":    pools,
		"host_key":         hostKey,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
