package app

import (
	"context"
	"fmt"

	"podsync/internal/store"

	"go.uber.org/zap"
)

// InitFlow 负责首跑初始化：建表 -> 建图 schema。
type InitFlow struct {
	Store  store.Store
	Graph  GraphAdmin
	Logger *zap.Logger
}

// Run 执行初始化流程，可重复执行。
func (f *InitFlow) Run(ctx context.Context) error {
	if f.Store == nil {
		return fmt.Errorf("初始化依赖未注入完整")
	}
	if f.Logger == nil {
		f.Logger = zap.NewNop()
	}
	if err := f.Store.InitialMigration(ctx); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	if f.Graph != nil {
		if err := f.Graph.EnsureSchema(ctx); err != nil {
			return err
		}
	} else {
		f.Logger.Info("neo4j 未配置，跳过图 schema 初始化")
	}
	f.Logger.Info("初始化完成")
	return nil
}
