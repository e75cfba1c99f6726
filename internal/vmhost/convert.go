package vmhost

import (
	"sort"
	"time"

	"podsync/internal/discovery"
	"podsync/internal/store/model"
)

// applyPod 把发现结果中的宿主机级字段写回 host。
func applyPod(host *model.Host, pod *discovery.Pod, actor string, now time.Time) {
	host.Architectures = append([]string(nil), pod.Architectures...)
	host.Cores = pod.Cores
	host.Memory = pod.Memory
	host.HugepagesMemory = pod.HugepagesMemory
	host.CPUSpeed = pod.CPUSpeed
	host.LocalStorage = pod.LocalStorage
	if ip := discovery.IPFromAddress(host.PowerAddress); ip != "" {
		host.IPAddress = ip
	}
	host.LastSyncedBy = actor
	host.LastSyncedAt = &now
}

func toStoragePools(pools []discovery.StoragePool) []model.StoragePool {
	res := make([]model.StoragePool, 0, len(pools))
	for _, p := range pools {
		res = append(res, model.StoragePool{
			Name:     p.Name,
			PoolType: p.Type,
			Path:     p.Path,
			Storage:  p.Storage,
		})
	}
	return res
}

func toVirtualMachines(machines []discovery.Machine) []model.VirtualMachine {
	res := make([]model.VirtualMachine, 0, len(machines))
	for _, m := range machines {
		vm := model.VirtualMachine{
			Name:            m.Name,
			Memory:          m.Memory,
			PinnedCores:     append([]int(nil), m.PinnedCores...),
			HugepagesBacked: m.HugepagesBacked,
		}
		if len(m.PinnedCores) == 0 {
			vm.UnpinnedCores = m.Cores
		}
		for _, d := range m.Disks {
			vm.Disks = append(vm.Disks, model.VirtualMachineDisk{Size: d.Size, BackingPool: d.Pool})
		}
		res = append(res, vm)
	}
	return res
}

// toRackRelationships 按 agent id 排序生成关系，保证写入顺序稳定。
func toRackRelationships(routes map[string]bool) []model.RackRelationship {
	ids := make([]string, 0, len(routes))
	for id := range routes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	res := make([]model.RackRelationship, 0, len(ids))
	for _, id := range ids {
		res = append(res, model.RackRelationship{AgentID: id, Routable: routes[id]})
	}
	return res
}
