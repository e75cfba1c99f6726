package store

import (
	"context"

	"podsync/internal/store/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store 聚合各个实体的存取接口，事务通过 NewTransactionContext 挂在 context 上。
type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Host() Host
	Cluster() Cluster
	Agent() Agent
	Tag() Tag
	InitialMigration(ctx context.Context) error
	Close() error
}

type DataStore struct {
	db      *gorm.DB
	logger  *zap.Logger
	host    Host
	cluster Cluster
	agent   Agent
	tag     Tag
}

func NewStore(db *gorm.DB, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataStore{
		db:      db,
		logger:  logger,
		host:    NewHostStore(db),
		cluster: NewClusterStore(db),
		agent:   NewAgentStore(db),
		tag:     NewTagStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db, s.logger)
}

func (s *DataStore) Host() Host {
	return s.host
}

func (s *DataStore) Cluster() Cluster {
	return s.cluster
}

func (s *DataStore) Agent() Agent {
	return s.agent
}

func (s *DataStore) Tag() Tag {
	return s.tag
}

// InitialMigration 创建或升级表结构。
func (s *DataStore) InitialMigration(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&model.VMCluster{},
		&model.Host{},
		&model.Tag{},
		&model.StoragePool{},
		&model.VirtualMachine{},
		&model.VirtualMachineDisk{},
		&model.RackRelationship{},
		&model.Agent{},
	)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := FromContext(ctx); tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}
