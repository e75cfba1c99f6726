package virsh

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"podsync/internal/discovery"
	"podsync/internal/driver"

	"go.uber.org/zap"
)

const PodType = "virsh"

type nodeInfo struct {
	Model  string
	Memory int64
	Cores  int
	MHz    int
}

type poolInfo struct {
	Name     string
	Capacity int64
	XML      string
}

type domainInfo struct {
	Name    string
	Running bool
	XML     string
}

// hypervisor 是 Driver 用到的 libvirt 能力。
type hypervisor interface {
	Hostname() (string, error)
	NodeInfo() (*nodeInfo, error)
	Pools() ([]poolInfo, error)
	Domains() ([]domainInfo, error)
	VolumeSize(pool, volume string) (int64, error)
	Close() error
}

type dialFunc func(ctx context.Context, uri string) (hypervisor, error)

// Driver 通过 libvirt 连接发现单台 KVM 宿主机，virsh 宿主机不会组成集群。
type Driver struct {
	dial   dialFunc
	logger *zap.Logger
}

func New(logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{dial: dialLibvirt, logger: logger}
}

var _ driver.Driver = (*Driver)(nil)

func (d *Driver) Type() string {
	return PodType
}

func (d *Driver) Discover(ctx context.Context, target discovery.Target) (*discovery.Result, error) {
	uri := strings.TrimSpace(target.PowerAddress)
	if uri == "" {
		return nil, fmt.Errorf("virsh 宿主机缺少 power address")
	}
	hv, err := d.dial(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", uri, err)
	}
	defer func() {
		if cerr := hv.Close(); cerr != nil {
			d.logger.Warn("close libvirt connection failed", zap.String("uri", uri), zap.Error(cerr))
		}
	}()

	name, err := hv.Hostname()
	if err != nil {
		return nil, err
	}
	node, err := hv.NodeInfo()
	if err != nil {
		return nil, err
	}
	pod := &discovery.Pod{
		Name:     name,
		Cores:    node.Cores,
		CPUSpeed: node.MHz,
		Memory:   node.Memory,
	}
	if arch := driver.DebianArchitecture(node.Model); arch != "" {
		pod.Architectures = []string{arch}
	}

	pools, err := hv.Pools()
	if err != nil {
		return nil, err
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].Name < pools[j].Name })
	for _, p := range pools {
		px, err := parsePoolXML(p.XML)
		if err != nil {
			return nil, fmt.Errorf("storage pool %s: %w", p.Name, err)
		}
		pod.StoragePools = append(pod.StoragePools, discovery.StoragePool{
			ID:      p.Name,
			Name:    p.Name,
			Type:    px.Type,
			Path:    px.Target.Path,
			Storage: p.Capacity,
		})
		pod.LocalStorage += p.Capacity
	}
	if len(pod.StoragePools) == 0 {
		return nil, fmt.Errorf("no active storage pools on %s", name)
	}

	domains, err := hv.Domains()
	if err != nil {
		return nil, err
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i].Name < domains[j].Name })
	for _, dom := range domains {
		m, err := d.machine(hv, dom, pod.StoragePools)
		if err != nil {
			return nil, err
		}
		pod.Machines = append(pod.Machines, m)
	}
	return &discovery.Result{Pod: pod}, nil
}

func (d *Driver) machine(hv hypervisor, dom domainInfo, pools []discovery.StoragePool) (discovery.Machine, error) {
	spec, err := parseDomainXML(dom.XML)
	if err != nil {
		return discovery.Machine{}, err
	}
	m := discovery.Machine{
		Name:            dom.Name,
		Memory:          spec.Memory,
		Cores:           spec.Cores,
		PinnedCores:     spec.Pinned,
		HugepagesBacked: spec.Hugepages,
		PowerState:      "off",
	}
	if dom.Running {
		m.PowerState = "on"
	}
	for _, ref := range spec.Disks {
		pool, volume := ref.Pool, ref.Volume
		if pool == "" {
			pool, volume = poolForFile(pools, ref.File)
			if pool == "" {
				d.logger.Debug("disk outside any storage pool", zap.String("domain", dom.Name), zap.String("file", ref.File))
				continue
			}
		}
		size, err := hv.VolumeSize(pool, volume)
		if err != nil {
			return m, fmt.Errorf("domain %s volume %s/%s: %w", dom.Name, pool, volume, err)
		}
		m.Disks = append(m.Disks, discovery.MachineDisk{Size: size, Pool: pool})
	}
	return m, nil
}

// poolForFile 按目录路径把文件型磁盘归属到 pool。
func poolForFile(pools []discovery.StoragePool, file string) (string, string) {
	dir := filepath.Dir(file)
	for _, p := range pools {
		if p.Path != "" && filepath.Clean(p.Path) == dir {
			return p.Name, filepath.Base(file)
		}
	}
	return "", ""
}
