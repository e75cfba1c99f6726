package loader

import (
	"context"
	"fmt"
	"sort"

	"podsync/internal/cypher"
	"podsync/internal/domain"
	"podsync/pkg/util"
)

// NodeUpserter 负责批量写入节点。
type NodeUpserter struct {
	client    Writer
	batchSize int
}

// NewNodeUpserter 创建节点 upsert 器。
func NewNodeUpserter(client Writer, batchSize int) *NodeUpserter {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &NodeUpserter{client: client, batchSize: batchSize}
}

// UpsertNodes 按标签组合分组，每组一条模板语句分批写入。
func (u *NodeUpserter) UpsertNodes(ctx context.Context, rows []domain.NodeRow) error {
	if len(rows) == 0 {
		return nil
	}
	grouped := make(map[string][]domain.NodeRow)
	labelCache := make(map[string]string)
	for _, row := range rows {
		labels := append([]string{domain.LabelSynced}, row.Labels...)
		key := domain.JoinLabels(labels)
		grouped[key] = append(grouped[key], row)
		if _, ok := labelCache[key]; !ok {
			labelCache[key] = domain.LabelPattern(labels)
		}
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		query := cypher.MustTemplate("upsert_nodes.cql", map[string]string{"LabelPattern": labelCache[key]})
		for _, chunk := range util.Batch(grouped[key], u.batchSize) {
			params := map[string]any{"rows": toNodeParameters(chunk)}
			if err := u.client.RunWrite(ctx, query, params); err != nil {
				return fmt.Errorf("写入节点失败 labels=%s: %w", key, err)
			}
		}
	}
	return nil
}

func toNodeParameters(rows []domain.NodeRow) []map[string]any {
	res := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		res = append(res, map[string]any{
			"sync_key":   row.SyncKey,
			"properties": row.Properties,
			"scope":      row.Scope,
			"run_id":     row.RunID,
			"updated_at": row.UpdatedAt,
		})
	}
	return res
}
