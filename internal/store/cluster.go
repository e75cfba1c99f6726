package store

import (
	"context"

	"podsync/internal/store/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Cluster interface {
	Get(ctx context.Context, id uuid.UUID) (*model.VMCluster, error)
	Find(ctx context.Context, name, project string) (*model.VMCluster, error)
	List(ctx context.Context) ([]model.VMCluster, error)
	Create(ctx context.Context, cluster *model.VMCluster) error
}

type clusterStore struct {
	db *gorm.DB
}

func NewClusterStore(db *gorm.DB) Cluster {
	return &clusterStore{db: db}
}

func (s *clusterStore) Get(ctx context.Context, id uuid.UUID) (*model.VMCluster, error) {
	var cluster model.VMCluster
	if err := getDB(ctx, s.db).First(&cluster, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &cluster, nil
}

// Find 按 (name, project) 查找集群，不存在时返回 ErrRecordNotFound。
func (s *clusterStore) Find(ctx context.Context, name, project string) (*model.VMCluster, error) {
	var cluster model.VMCluster
	err := getDB(ctx, s.db).Where("name = ? AND project = ?", name, project).First(&cluster).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cluster, nil
}

func (s *clusterStore) List(ctx context.Context) ([]model.VMCluster, error) {
	var clusters []model.VMCluster
	if err := getDB(ctx, s.db).Order("name").Find(&clusters).Error; err != nil {
		return nil, err
	}
	return clusters, nil
}

// Create 在 (name, project) 冲突时返回 ErrDuplicateKey。
func (s *clusterStore) Create(ctx context.Context, cluster *model.VMCluster) error {
	return translate(getDB(ctx, s.db).Create(cluster).Error)
}
