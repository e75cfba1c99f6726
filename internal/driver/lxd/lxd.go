package lxd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"podsync/internal/discovery"
	"podsync/internal/driver"

	"go.uber.org/zap"
)

const (
	PodType = "lxd"

	defaultProject  = "default"
	defaultMemory   = int64(1 << 30)
	defaultDiskSize = int64(10 * 1000 * 1000 * 1000)
)

// 实例状态码到电源状态的映射。
var powerStates = map[int]string{101: "on", 102: "off", 103: "on", 110: "off"}

type Config struct {
	CertFile string
	KeyFile  string
	Timeout  time.Duration
}

// Driver 通过 LXD REST API 发现宿主机资源，集群化的 LXD 返回整个集群。
type Driver struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Driver)

// WithHTTPClient 替换默认的 HTTPS 客户端。
func WithHTTPClient(c *http.Client) Option {
	return func(d *Driver) { d.httpClient = c }
}

func New(cfg Config, logger *zap.Logger, opts ...Option) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	d := &Driver{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	if d.httpClient == nil {
		tlsCfg := &tls.Config{InsecureSkipVerify: true} // LXD 使用自签名证书
		if cfg.CertFile != "" && cfg.KeyFile != "" {
			cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("加载 LXD 客户端证书失败: %w", err)
			}
			tlsCfg.Certificates = []tls.Certificate{cert}
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsCfg
		d.httpClient = &http.Client{Timeout: cfg.Timeout, Transport: transport}
	}
	return d, nil
}

var _ driver.Driver = (*Driver)(nil)

func (d *Driver) Type() string {
	return PodType
}

func (d *Driver) Discover(ctx context.Context, target discovery.Target) (*discovery.Result, error) {
	endpoint, err := EndpointURL(target.PowerAddress)
	if err != nil {
		return nil, err
	}
	c := &client{endpoint: endpoint, httpClient: d.httpClient}

	info, err := d.connect(ctx, c, target)
	if err != nil {
		return nil, err
	}
	if !info.hasExtension("virtual-machines") {
		return nil, errors.New("Please upgrade your LXD host to 3.19+ for virtual machine support.")
	}

	if !info.Environment.ServerClustered {
		pod, err := d.discoverPod(ctx, c, "", info.Environment.ServerName, info.Environment.KernelArchitecture)
		if err != nil {
			return nil, err
		}
		pod.Version = info.Environment.ServerVersion
		return &discovery.Result{Pod: pod}, nil
	}
	cluster, err := d.discoverCluster(ctx, c, info, target)
	if err != nil {
		return nil, err
	}
	return &discovery.Result{Cluster: cluster}, nil
}

// connect 读取服务端信息，证书未被信任时尝试用密码信任。
func (d *Driver) connect(ctx context.Context, c *client, target discovery.Target) (*serverInfo, error) {
	var info serverInfo
	if err := c.get(ctx, "/1.0", nil, &info); err != nil {
		return nil, err
	}
	if info.Auth == "trusted" {
		return &info, nil
	}
	password := target.PowerParameters["password"]
	if password == "" {
		return nil, errors.New("Certificate is not trusted and no password was given.")
	}
	body := map[string]string{"type": "client", "password": password}
	if err := c.do(ctx, http.MethodPost, "/1.0/certificates", nil, body, nil); err != nil {
		return nil, fmt.Errorf("trust LXD certificate: %w", err)
	}
	d.logger.Info("client certificate trusted by LXD", zap.String("endpoint", c.endpoint))
	if err := c.get(ctx, "/1.0", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (d *Driver) discoverCluster(ctx context.Context, c *client, info *serverInfo, target discovery.Target) (*discovery.Cluster, error) {
	var members []clusterMember
	if err := c.get(ctx, "/1.0/cluster/members", url.Values{"recursion": {"1"}}, &members); err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, errors.New("LXD reports clustering enabled but has no members")
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ServerName < members[j].ServerName })

	name := target.PowerParameters["cluster_name"]
	if name == "" {
		name = members[0].ServerName
	}
	project := target.Project
	if project == "" {
		project = projectOf(target)
	}
	cluster := &discovery.Cluster{Name: name, Project: project, Current: info.Environment.ServerName}
	for _, m := range members {
		arch := m.Architecture
		if arch == "" {
			arch = info.Environment.KernelArchitecture
		}
		pod, err := d.discoverPod(ctx, c, m.ServerName, m.ServerName, arch)
		if err != nil {
			return nil, fmt.Errorf("discover cluster member %s: %w", m.ServerName, err)
		}
		pod.Clustered = true
		pod.Version = info.Environment.ServerVersion
		cluster.Pods = append(cluster.Pods, *pod)
		cluster.PodAddresses = append(cluster.PodAddresses, m.URL)
	}
	return cluster, nil
}

// discoverPod member 为空表示单机 LXD，否则通过 target 参数访问指定集群成员。
func (d *Driver) discoverPod(ctx context.Context, c *client, member, name, kernelArch string) (*discovery.Pod, error) {
	query := url.Values{}
	if member != "" {
		query.Set("target", member)
	}

	var res hostResources
	if err := c.get(ctx, "/1.0/resources", query, &res); err != nil {
		return nil, err
	}
	pod := &discovery.Pod{
		Name:            name,
		Cores:           res.CPU.Total,
		CPUSpeed:        cpuSpeed(&res),
		Memory:          res.Memory.Total,
		HugepagesMemory: res.Memory.HugepagesTotal,
	}
	if arch := driver.DebianArchitecture(kernelArch); arch != "" {
		pod.Architectures = []string{arch}
	}

	var pools []storagePool
	if err := c.get(ctx, "/1.0/storage-pools", url.Values{"recursion": {"1"}}, &pools); err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		return nil, errors.New("No storage pools exists.  Please create a storage pool in LXD.")
	}
	for _, p := range pools {
		var pr storagePoolResources
		if err := c.get(ctx, "/1.0/storage-pools/"+url.PathEscape(p.Name)+"/resources", query, &pr); err != nil {
			return nil, fmt.Errorf("storage pool %s: %w", p.Name, err)
		}
		pod.StoragePools = append(pod.StoragePools, discovery.StoragePool{
			ID:      p.Name,
			Name:    p.Name,
			Type:    p.Driver,
			Path:    p.Config["source"],
			Storage: pr.Space.Total,
		})
		pod.LocalStorage += pr.Space.Total
	}

	var instances []instance
	if err := c.get(ctx, "/1.0/instances", url.Values{"recursion": {"1"}, "all-projects": {"true"}}, &instances); err != nil {
		return nil, err
	}
	for _, inst := range instances {
		if inst.Type != "virtual-machine" {
			continue
		}
		if member != "" && inst.Location != "" && inst.Location != member {
			continue
		}
		m, err := d.machine(inst)
		if err != nil {
			return nil, err
		}
		pod.Machines = append(pod.Machines, m)
	}
	return pod, nil
}

func (d *Driver) machine(inst instance) (discovery.Machine, error) {
	m := discovery.Machine{Name: inst.Name, Memory: defaultMemory}
	if state, ok := powerStates[inst.StatusCode]; ok {
		m.PowerState = state
	} else {
		d.logger.Warn("unknown LXD power status code", zap.String("instance", inst.Name), zap.Int("status_code", inst.StatusCode))
		m.PowerState = "unknown"
	}
	if v, ok := inst.ExpandedConfig["limits.memory"]; ok {
		mem, err := ParseByteSize(v)
		if err != nil {
			return m, fmt.Errorf("instance %s: %w", inst.Name, err)
		}
		m.Memory = mem
	}
	m.HugepagesBacked = parseBool(inst.ExpandedConfig["limits.memory.hugepages"])

	cores, pinned, err := ParseCPULimits(inst.ExpandedConfig["limits.cpu"])
	if err != nil {
		return m, fmt.Errorf("instance %s: %w", inst.Name, err)
	}
	m.Cores = cores
	m.PinnedCores = pinned

	names := make([]string, 0, len(inst.ExpandedDevices))
	for name := range inst.ExpandedDevices {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		dev := inst.ExpandedDevices[name]
		if dev["type"] != "disk" || dev["pool"] == "" {
			continue
		}
		size := defaultDiskSize
		if v := dev["size"]; v != "" {
			if size, err = ParseByteSize(v); err != nil {
				return m, fmt.Errorf("instance %s disk %s: %w", inst.Name, name, err)
			}
		}
		m.Disks = append(m.Disks, discovery.MachineDisk{Size: size, Pool: dev["pool"]})
	}
	return m, nil
}

func cpuSpeed(res *hostResources) int {
	speed := 0
	for _, s := range res.CPU.Sockets {
		v := s.FrequencyTurbo
		if v == 0 {
			v = s.Frequency
		}
		if v > speed {
			speed = v
		}
	}
	return speed
}

func projectOf(target discovery.Target) string {
	if p := strings.TrimSpace(target.PowerParameters["project"]); p != "" {
		return p
	}
	return defaultProject
}
