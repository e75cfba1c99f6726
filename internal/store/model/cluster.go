package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VMCluster 以 (name, project) 唯一标识，成员宿主机通过 Host.ClusterID 反查。
type VMCluster struct {
	ID        uuid.UUID `gorm:"primaryKey;" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"not null;uniqueIndex:idx_vm_cluster_name_project" json:"name"`
	Project   string    `gorm:"not null;uniqueIndex:idx_vm_cluster_name_project" json:"project"`
	Zone      string    `json:"zone"`
	Pool      string    `json:"pool"`
	CreatedBy string    `json:"created_by,omitempty"`
}

func (c *VMCluster) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// RackRelationship 记录某个 agent 在最近一次同步中能否访问宿主机。
type RackRelationship struct {
	HostID    uuid.UUID `gorm:"primaryKey" json:"host_id"`
	AgentID   string    `gorm:"primaryKey" json:"agent_id"`
	Routable  bool      `json:"routable"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Agent 是可代为执行发现的机架控制器。
type Agent struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
	URL       string    `gorm:"not null" json:"url"`
	Subnets   []string  `gorm:"serializer:json" json:"subnets,omitempty"`
}

type Tag struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"not null;uniqueIndex" json:"name"`
}

// HostTag 对应 Host.Tags 的多对多关联表。
type HostTag struct {
	HostID uuid.UUID `gorm:"primaryKey"`
	TagID  uint      `gorm:"primaryKey"`
}

func (HostTag) TableName() string {
	return "host_tags"
}
