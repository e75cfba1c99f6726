package ioc

import (
	"podsync/internal/app"
	"podsync/internal/store"

	"go.uber.org/zap"
)

// InitStore 打开数据库并构建 Store，连接由 app.Service.Close 关闭。
func InitStore(cfg app.Config, logger *zap.Logger) (store.Store, error) {
	db, err := store.InitDB(store.Config{
		Type:     cfg.Database.Type,
		Hostname: cfg.Database.Hostname,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
	}, logger)
	if err != nil {
		return nil, err
	}
	return store.NewStore(db, logger), nil
}
