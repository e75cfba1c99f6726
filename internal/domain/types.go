package domain

import "time"

// NodeRow 是批量 upsert 的统一 DTO。
type NodeRow struct {
	SyncKey    string         `json:"sync_key"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
	Scope      string         `json:"scope"`
	RunID      string         `json:"run_id"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// RelRow 代表一条关系需要的信息。
type RelRow struct {
	StartKey   string         `json:"start_key"`
	EndKey     string         `json:"end_key"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Scope      string         `json:"scope"`
	RunID      string         `json:"run_id"`
}
