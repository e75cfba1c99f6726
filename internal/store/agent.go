package store

import (
	"context"

	"podsync/internal/store/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Agent interface {
	Get(ctx context.Context, id string) (*model.Agent, error)
	List(ctx context.Context) ([]model.Agent, error)
	Upsert(ctx context.Context, agent *model.Agent) error
	Delete(ctx context.Context, id string) error
}

type agentStore struct {
	db *gorm.DB
}

func NewAgentStore(db *gorm.DB) Agent {
	return &agentStore{db: db}
}

func (s *agentStore) Get(ctx context.Context, id string) (*model.Agent, error) {
	var agent model.Agent
	if err := getDB(ctx, s.db).First(&agent, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &agent, nil
}

// List 按 id 排序返回所有 agent，保证扇出顺序稳定。
func (s *agentStore) List(ctx context.Context) ([]model.Agent, error) {
	var agents []model.Agent
	if err := getDB(ctx, s.db).Order("id").Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

func (s *agentStore) Upsert(ctx context.Context, agent *model.Agent) error {
	return getDB(ctx, s.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "url", "subnets", "updated_at"}),
	}).Create(agent).Error
}

func (s *agentStore) Delete(ctx context.Context, id string) error {
	result := getDB(ctx, s.db).Delete(&model.Agent{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
