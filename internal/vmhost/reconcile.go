package vmhost

import (
	"context"
	"errors"
	"fmt"
	"time"

	"podsync/internal/discovery"
	"podsync/internal/store"
	"podsync/internal/store/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConsoleLoggingTag 打在同步时新建的集群成员上。
const ConsoleLoggingTag = "pod-console-logging"

// Reconciler 把发现结果合并进持久化状态，调用方负责提供事务。
type Reconciler struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewReconciler(s store.Store, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: s, logger: logger, now: time.Now}
}

// Reconcile 在 ctx 携带的事务内执行，返回重新加载后的目标宿主机。
func (r *Reconciler) Reconcile(ctx context.Context, result *discovery.Result, outcome *discovery.Outcome, targetID uuid.UUID, actor string) (*model.Host, error) {
	if result.Empty() {
		return nil, discovery.ErrEmptyResult
	}
	target, err := r.store.Host().Get(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrHostNotFound(targetID)
		}
		return nil, err
	}
	routes := outcome.Routes()

	if result.Cluster != nil {
		if err := r.syncCluster(ctx, result.Cluster, routes, target, actor); err != nil {
			return nil, err
		}
	} else {
		if err := r.syncHost(ctx, target, result.Pod, routes, actor); err != nil {
			return nil, err
		}
	}
	return r.store.Host().Get(ctx, targetID)
}

func (r *Reconciler) syncHost(ctx context.Context, host *model.Host, pod *discovery.Pod, routes map[string]bool, actor string) error {
	applyPod(host, pod, actor, r.now())
	if err := r.store.Host().Update(ctx, host); err != nil {
		return fmt.Errorf("更新宿主机 %s 失败: %w", host.Name, err)
	}
	if err := r.store.Host().ReplaceStoragePools(ctx, host.ID, toStoragePools(pod.StoragePools)); err != nil {
		return err
	}
	if err := r.store.Host().ReplaceVirtualMachines(ctx, host.ID, toVirtualMachines(pod.Machines)); err != nil {
		return err
	}
	return r.store.Host().ReplaceRackRelationships(ctx, host.ID, toRackRelationships(routes))
}

func (r *Reconciler) syncCluster(ctx context.Context, dc *discovery.Cluster, routes map[string]bool, target *model.Host, actor string) error {
	targetIdx := matchTarget(dc, target)
	if targetIdx < 0 {
		return NewErrInvalidTopology(dc.Name, target.Name)
	}

	cluster, err := r.store.Cluster().Find(ctx, dc.Name, dc.Project)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		cluster = &model.VMCluster{
			Name:      dc.Name,
			Project:   dc.Project,
			Zone:      target.Zone,
			Pool:      target.Pool,
			CreatedBy: actor,
		}
		// 并发创建同名集群时这里返回 ErrDuplicateKey，由上层重试
		if err := r.store.Cluster().Create(ctx, cluster); err != nil {
			return err
		}
		r.logger.Info("创建虚拟化集群", zap.String("cluster", cluster.Name), zap.String("project", cluster.Project))
	case err != nil:
		return err
	}

	var tag *model.Tag
	for i := range dc.Pods {
		pod := &dc.Pods[i]
		address := dc.Address(i)

		var host *model.Host
		created := false
		if i == targetIdx {
			// 同一个 pod 已经作为集群成员登记过时，不能再让目标宿主机占用这个位置
			existing, err := r.findMember(ctx, cluster.ID, pod.Name, address, target.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return NewErrDuplicateMember(cluster.Name, pod.Name, existing.ID)
			}
			host = target
		} else {
			host, err = r.findMember(ctx, cluster.ID, pod.Name, address, target.ID)
			if err != nil {
				return err
			}
			if host == nil {
				host = newMember(target, pod, address)
				assignCluster(host, cluster)
				if err := r.store.Host().Create(ctx, host); err != nil {
					return fmt.Errorf("创建集群成员 %s 失败: %w", pod.Name, err)
				}
				created = true
			}
		}

		host.Name = pod.Name
		assignCluster(host, cluster)
		if err := r.syncHost(ctx, host, pod, routes, actor); err != nil {
			return err
		}

		if created {
			if tag == nil {
				if tag, err = r.store.Tag().Ensure(ctx, ConsoleLoggingTag); err != nil {
					return err
				}
			}
			if err := r.store.Tag().Apply(ctx, host.ID, tag); err != nil {
				return err
			}
			r.logger.Info("新增集群成员", zap.String("cluster", cluster.Name), zap.String("host", host.Name), zap.String("address", address))
		}
	}
	return nil
}

// findMember 在集群内先按名称再按地址匹配成员，不会返回目标宿主机本身。
func (r *Reconciler) findMember(ctx context.Context, clusterID uuid.UUID, name, address string, exclude uuid.UUID) (*model.Host, error) {
	byName, err := r.store.Host().List(ctx, store.NewHostQueryFilter().ByClusterID(clusterID).ByName(name))
	if err != nil {
		return nil, err
	}
	for i := range byName {
		if byName[i].ID != exclude {
			return &byName[i], nil
		}
	}
	if address == "" {
		return nil, nil
	}
	members, err := r.store.Host().List(ctx, store.NewHostQueryFilter().ByClusterID(clusterID))
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].ID != exclude && discovery.SameAddress(members[i].PowerAddress, address) {
			return &members[i], nil
		}
	}
	return nil, nil
}

// matchTarget 依次按地址、名称、应答成员定位目标宿主机在集群中的下标。
func matchTarget(dc *discovery.Cluster, target *model.Host) int {
	for i := range dc.Pods {
		if discovery.SameAddress(dc.Address(i), target.PowerAddress) {
			return i
		}
	}
	for i := range dc.Pods {
		if dc.Pods[i].Name == target.Name {
			return i
		}
	}
	if dc.Current != "" {
		for i := range dc.Pods {
			if dc.Pods[i].Name == dc.Current {
				return i
			}
		}
	}
	return -1
}

func newMember(target *model.Host, pod *discovery.Pod, address string) *model.Host {
	params := make(map[string]string, len(target.PowerParameters))
	for k, v := range target.PowerParameters {
		params[k] = v
	}
	if address == "" {
		address = target.PowerAddress
	}
	return &model.Host{
		Name:            pod.Name,
		PodType:         target.PodType,
		PowerAddress:    address,
		PowerParameters: params,
	}
}

func assignCluster(host *model.Host, cluster *model.VMCluster) {
	id := cluster.ID
	host.ClusterID = &id
	host.Cluster = cluster
	host.Zone = cluster.Zone
	host.Pool = cluster.Pool
	host.Project = cluster.Project
}
