package loader

import (
	"context"
	"fmt"

	"podsync/internal/cypher"
)

// EdgeFixer 根据节点属性补边，目前只有虚拟机到存储池的 BACKED_BY。
type EdgeFixer struct {
	client Writer
}

func NewEdgeFixer(client Writer) *EdgeFixer {
	return &EdgeFixer{client: client}
}

func (f *EdgeFixer) Run(ctx context.Context, runID string) error {
	for _, query := range cypher.Statements("fix_edges.cql") {
		if err := f.client.RunWrite(ctx, query, map[string]any{"run_id": runID}); err != nil {
			return fmt.Errorf("补边失败: %w", err)
		}
	}
	return nil
}
