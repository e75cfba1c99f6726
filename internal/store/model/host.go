package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Host 是一台虚拟化宿主机（VM host），可独立存在，也可隶属于一个 VMCluster。
type Host struct {
	ID              uuid.UUID         `gorm:"primaryKey;" json:"id"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Name            string            `gorm:"not null;index" json:"name"`
	PodType         string            `gorm:"not null" json:"pod_type"`
	PowerAddress    string            `gorm:"index" json:"power_address"`
	PowerParameters map[string]string `gorm:"serializer:json" json:"-"`
	IPAddress       string            `json:"ip_address,omitempty"`
	Architectures   []string          `gorm:"serializer:json" json:"architectures"`
	Cores           int               `json:"cores"`
	Memory          int64             `json:"memory"`
	HugepagesMemory int64             `json:"hugepages_memory"`
	CPUSpeed        int               `json:"cpu_speed"`
	LocalStorage    int64             `json:"local_storage"`
	Zone            string            `json:"zone"`
	Pool            string            `json:"pool"`
	Project         string            `json:"project,omitempty"`
	ClusterID       *uuid.UUID        `gorm:"index" json:"cluster_id,omitempty"`
	LastSyncedBy    string            `json:"last_synced_by,omitempty"`
	LastSyncedAt    *time.Time        `json:"last_synced_at,omitempty"`

	Cluster           *VMCluster         `gorm:"foreignKey:ClusterID" json:"cluster,omitempty"`
	Tags              []Tag              `gorm:"many2many:host_tags;" json:"tags,omitempty"`
	StoragePools      []StoragePool      `json:"storage_pools,omitempty"`
	VirtualMachines   []VirtualMachine   `json:"virtual_machines,omitempty"`
	RackRelationships []RackRelationship `json:"rack_relationships,omitempty"`
}

func (h *Host) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// HasTag 判断宿主机是否已带有指定标签。
func (h *Host) HasTag(name string) bool {
	for _, t := range h.Tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// StoragePool 是宿主机上报的存储池，同名池出现在多台宿主机上即视为共享。
type StoragePool struct {
	ID       uuid.UUID `gorm:"primaryKey;" json:"id"`
	HostID   uuid.UUID `gorm:"not null;uniqueIndex:idx_storage_pool_host_name" json:"host_id"`
	Name     string    `gorm:"not null;uniqueIndex:idx_storage_pool_host_name" json:"name"`
	PoolType string    `json:"pool_type"`
	Path     string    `json:"path,omitempty"`
	Storage  int64     `json:"storage"`
}

func (p *StoragePool) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// VirtualMachine 是运行在宿主机上的虚拟机。
type VirtualMachine struct {
	ID              uuid.UUID            `gorm:"primaryKey;" json:"id"`
	HostID          uuid.UUID            `gorm:"not null;index" json:"host_id"`
	Name            string               `gorm:"not null" json:"name"`
	Memory          int64                `json:"memory"`
	PinnedCores     []int                `gorm:"serializer:json" json:"pinned_cores"`
	UnpinnedCores   int                  `json:"unpinned_cores"`
	HugepagesBacked bool                 `json:"hugepages_backed"`
	Disks           []VirtualMachineDisk `json:"disks,omitempty"`
}

func (v *VirtualMachine) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VirtualMachineDisk 通过池名引用承载它的存储池。
type VirtualMachineDisk struct {
	ID               uuid.UUID `gorm:"primaryKey;" json:"id"`
	VirtualMachineID uuid.UUID `gorm:"not null;index" json:"virtual_machine_id"`
	Size             int64     `json:"size"`
	BackingPool      string    `json:"backing_pool,omitempty"`
}

func (d *VirtualMachineDisk) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
