package store

import (
	"context"
	"errors"

	"podsync/internal/store/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Tag interface {
	Ensure(ctx context.Context, name string) (*model.Tag, error)
	Apply(ctx context.Context, hostID uuid.UUID, tag *model.Tag) error
}

type tagStore struct {
	db *gorm.DB
}

func NewTagStore(db *gorm.DB) Tag {
	return &tagStore{db: db}
}

// Ensure 返回指定名称的标签，不存在时创建。
func (s *tagStore) Ensure(ctx context.Context, name string) (*model.Tag, error) {
	db := getDB(ctx, s.db)
	var tag model.Tag
	err := db.Where("name = ?", name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	tag = model.Tag{Name: name}
	if err := db.Create(&tag).Error; err != nil {
		return nil, translate(err)
	}
	return &tag, nil
}

// Apply 给宿主机打标签，重复打标签不报错。
func (s *tagStore) Apply(ctx context.Context, hostID uuid.UUID, tag *model.Tag) error {
	return getDB(ctx, s.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.HostTag{HostID: hostID, TagID: tag.ID}).Error
}
