package loader

import "context"

// Cleaner 删除某个投影范围内本轮未再出现的节点和关系。
type Cleaner struct {
	client Writer
}

func NewCleaner(client Writer) *Cleaner {
	return &Cleaner{client: client}
}

// Prune 先删关系再删节点，关系以起点节点的 scope 为准。
func (c *Cleaner) Prune(ctx context.Context, scope, runID string) error {
	params := map[string]any{"scope": scope, "run_id": runID}
	relQuery := `MATCH (n:Synced {scope: $scope})-[r]->() WHERE r.last_seen_run_id <> $run_id DELETE r`
	if err := c.client.RunWrite(ctx, relQuery, params); err != nil {
		return err
	}
	nodeQuery := `MATCH (n:Synced {scope: $scope}) WHERE n.last_seen_run_id <> $run_id DETACH DELETE n`
	return c.client.RunWrite(ctx, nodeQuery, params)
}
