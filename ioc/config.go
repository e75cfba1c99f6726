package ioc

import "podsync/internal/app"

// DefaultConfigPath 是未指定 -config 时读取的配置文件。
const DefaultConfigPath = "configs/config.yaml"

// ConfigPath 区分注入图中的配置文件路径。
type ConfigPath string

// InitConfig 读取应用配置。
func InitConfig(path ConfigPath) (app.Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	return app.LoadConfig(string(path))
}
