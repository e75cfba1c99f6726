package resources

import (
	"podsync/internal/store/model"

	"go.uber.org/zap"
)

// Aggregator 计算资源汇总，共享池容量不一致时输出告警日志。
type Aggregator struct {
	logger *zap.Logger
}

func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{logger: logger}
}

// Aggregate 不记录日志的便捷版本。
func Aggregate(hosts []model.Host) Summary {
	return NewAggregator(nil).Aggregate(hosts)
}

type poolAccumulator struct {
	reporters map[int]struct{}
	total     int64
	allocated int64
	seen      bool
	// 共享池在不同宿主机上上报的容量不同
	conflict bool
}

// Aggregate 对 hosts 做纯计算汇总，不修改入参。
func (a *Aggregator) Aggregate(hosts []model.Host) Summary {
	summary := Summary{StoragePools: make(map[string]PoolUsage)}
	pools := make(map[string]*poolAccumulator)
	order := make([]string, 0)

	pool := func(name string) *poolAccumulator {
		acc, ok := pools[name]
		if !ok {
			acc = &poolAccumulator{reporters: make(map[int]struct{})}
			pools[name] = acc
			order = append(order, name)
		}
		return acc
	}

	for i := range hosts {
		host := &hosts[i]
		summary.Cores.Overcommitted += int64(host.Cores)
		summary.Memory.General.Overcommitted += host.Memory
		summary.Memory.Hugepages.Overcommitted += host.HugepagesMemory

		for _, p := range host.StoragePools {
			acc := pool(p.Name)
			if acc.seen && acc.total != p.Storage {
				acc.conflict = true
			}
			// 同名池以最后一次上报为准
			acc.total = p.Storage
			acc.seen = true
			acc.reporters[i] = struct{}{}
		}

		for _, vm := range host.VirtualMachines {
			summary.Cores.Allocated += int64(len(vm.PinnedCores))
			if vm.HugepagesBacked {
				summary.Memory.Hugepages.Allocated += vm.Memory
			} else {
				summary.Memory.General.Allocated += vm.Memory
			}
			for _, disk := range vm.Disks {
				summary.Storage.Allocated += disk.Size
				if disk.BackingPool != "" {
					pool(disk.BackingPool).allocated += disk.Size
				}
			}
		}
	}

	var totalStorage int64
	for _, name := range order {
		acc := pools[name]
		shared := len(acc.reporters) >= 2
		if shared && acc.conflict {
			a.logger.Warn("shared storage pool reports different totals",
				zap.String("pool", name), zap.Int64("total", acc.total), zap.Int("hosts", len(acc.reporters)))
		}
		summary.StoragePools[name] = PoolUsage{Shared: shared, Allocated: acc.allocated, Total: acc.total}
		totalStorage += acc.total
	}

	summary.Cores.Free = summary.Cores.Overcommitted - summary.Cores.Allocated
	summary.Memory.General.Free = summary.Memory.General.Overcommitted - summary.Memory.General.Allocated
	summary.Memory.Hugepages.Free = summary.Memory.Hugepages.Overcommitted - summary.Memory.Hugepages.Allocated
	summary.Storage.Free = totalStorage - summary.Storage.Allocated
	return summary
}
