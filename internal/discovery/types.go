package discovery

import (
	"github.com/google/uuid"
)

// Target 描述一次发现请求要访问的 pod。
type Target struct {
	HostID          uuid.UUID         `json:"host_id"`
	Name            string            `json:"name"`
	PodType         string            `json:"pod_type"`
	PowerAddress    string            `json:"power_address"`
	PowerParameters map[string]string `json:"power_parameters,omitempty"`
	Project         string            `json:"project,omitempty"`
}

type StoragePool struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Path    string `json:"path,omitempty"`
	Storage int64  `json:"storage"`
}

type MachineDisk struct {
	Size int64  `json:"size"`
	Pool string `json:"pool,omitempty"`
}

// Machine 是 pod 上已存在的虚拟机。
type Machine struct {
	Name            string        `json:"name"`
	Memory          int64         `json:"memory"`
	Cores           int           `json:"cores"`
	PinnedCores     []int         `json:"pinned_cores,omitempty"`
	HugepagesBacked bool          `json:"hugepages_backed"`
	PowerState      string        `json:"power_state,omitempty"`
	Disks           []MachineDisk `json:"disks,omitempty"`
}

// Pod 是单个 pod 的发现结果。
type Pod struct {
	Name            string        `json:"name"`
	Architectures   []string      `json:"architectures"`
	Cores           int           `json:"cores"`
	CPUSpeed        int           `json:"cpu_speed"`
	Memory          int64         `json:"memory"`
	HugepagesMemory int64         `json:"hugepages_memory"`
	LocalStorage    int64         `json:"local_storage"`
	Version         string        `json:"version,omitempty"`
	Clustered       bool          `json:"clustered"`
	StoragePools    []StoragePool `json:"storage_pools"`
	Machines        []Machine     `json:"machines"`
}

// Cluster 是集群化 pod 的发现结果，PodAddresses 与 Pods 按下标一一对应。
type Cluster struct {
	Name         string   `json:"name"`
	Project      string   `json:"project"`
	Pods         []Pod    `json:"pods"`
	PodAddresses []string `json:"pod_addresses"`
	// Current 是应答本次发现的成员名称
	Current string `json:"current,omitempty"`
}

// Address 返回第 i 个成员的访问地址，缺失时返回空串。
func (c *Cluster) Address(i int) string {
	if i < 0 || i >= len(c.PodAddresses) {
		return ""
	}
	return c.PodAddresses[i]
}

// Result 要么是单个 Pod，要么是 Cluster。
type Result struct {
	Pod     *Pod     `json:"pod,omitempty"`
	Cluster *Cluster `json:"cluster,omitempty"`
}

func (r *Result) Empty() bool {
	return r == nil || (r.Pod == nil && r.Cluster == nil)
}
