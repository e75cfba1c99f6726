package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Listen string `yaml:"listen"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Database struct {
	Type     string `yaml:"type"`
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type Neo4j struct {
	URI                  string `yaml:"uri"`
	Username             string `yaml:"username"`
	Password             string `yaml:"password"`
	Database             string `yaml:"database"`
	MaxConnectionPool    int    `yaml:"max_connections"`
	ConnectTimeoutSecond int    `yaml:"connect_timeout_second"`
}

type Sync struct {
	BatchSize          int               `yaml:"batch_size"`
	ParallelWorkers    int               `yaml:"parallel_workers"`
	JobCron            string            `yaml:"job_cron"`
	ProbeCron          string            `yaml:"probe_cron"`
	InitialResync      bool              `yaml:"initial_resync"`
	AgentTimeoutSecond int               `yaml:"agent_timeout_second"`
	AgentToken         string            `yaml:"agent_token"`
	AgentTokens        map[string]string `yaml:"agent_tokens"`
	AuthHeader         string            `yaml:"auth_header"`
	Retry              Retry             `yaml:"retry"`
}

type Retry struct {
	Attempts       int `yaml:"attempts"`
	BackoffSeconds int `yaml:"backoff_seconds"`
}

type LXD struct {
	CertFile      string `yaml:"cert_file"`
	KeyFile       string `yaml:"key_file"`
	TimeoutSecond int    `yaml:"timeout_second"`
}

// Agent 是机架 agent 进程自身的配置，region 不读取。
type Agent struct {
	Listen string `yaml:"listen"`
	Token  string `yaml:"token"`
	LXD    LXD    `yaml:"lxd"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Log      Log      `yaml:"log"`
	Database Database `yaml:"database"`
	Neo4j    Neo4j    `yaml:"neo4j"`
	Sync     Sync     `yaml:"sync"`
	Agent    Agent    `yaml:"agent"`
}

// LoadConfig 从文件加载配置并补齐默认值。
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.HTTP.Listen) == "" {
		c.HTTP.Listen = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type == "sqlite" && c.Database.Name == "" {
		c.Database.Name = "podsync.db"
	}
	if c.Sync.BatchSize <= 0 {
		c.Sync.BatchSize = 200
	}
	if c.Sync.JobCron == "" {
		c.Sync.JobCron = "@every 30m"
	}
	if c.Sync.ProbeCron == "" {
		c.Sync.ProbeCron = "@every 1m"
	}
	if c.Sync.AgentTimeoutSecond <= 0 {
		c.Sync.AgentTimeoutSecond = 120
	}
	if c.Sync.AuthHeader == "" {
		c.Sync.AuthHeader = "Authorization"
	}
	if c.Sync.Retry.Attempts <= 0 {
		c.Sync.Retry.Attempts = 1
	}
	if c.Agent.Listen == "" {
		c.Agent.Listen = ":5248"
	}
	if c.Agent.LXD.TimeoutSecond <= 0 {
		c.Agent.LXD.TimeoutSecond = 30
	}
}

// Validate 检查互相依赖的配置项。
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "pgsql":
	default:
		return fmt.Errorf("不支持的数据库类型: %s", c.Database.Type)
	}
	if c.Sync.ParallelWorkers < 0 {
		return fmt.Errorf("sync.parallel_workers 不能为负数")
	}
	if (c.Agent.LXD.CertFile == "") != (c.Agent.LXD.KeyFile == "") {
		return fmt.Errorf("agent.lxd.cert_file 与 key_file 必须同时配置")
	}
	return nil
}

func (s Sync) AgentTimeout() time.Duration {
	return time.Duration(s.AgentTimeoutSecond) * time.Second
}

func (r Retry) Backoff() time.Duration {
	return time.Duration(r.BackoffSeconds) * time.Second
}

// GraphEnabled 未配置 neo4j 时不做图投影。
func (c *Config) GraphEnabled() bool {
	return strings.TrimSpace(c.Neo4j.URI) != ""
}
