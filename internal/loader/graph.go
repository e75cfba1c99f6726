package loader

import (
	"context"
	"fmt"

	"podsync/internal/cypher"
	"podsync/internal/domain"
)

// Writer 是写入 neo4j 的最小接口，Client 实现它，测试可替换。
type Writer interface {
	RunWrite(ctx context.Context, query string, params map[string]any) error
	RunRaw(ctx context.Context, query string, params map[string]any) error
}

// Reader 定义只读查询接口。
type Reader interface {
	RunRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

type Session interface {
	Writer
	Reader
}

// Graph 组合各个写入器，对外提供一次投影需要的全部操作。
type Graph struct {
	session Session
	nodes   *NodeUpserter
	rels    *RelUpserter
	fixer   *EdgeFixer
	cleaner *Cleaner
	schema  *SchemaManager
}

func NewGraph(session Session, batchSize int) *Graph {
	return &Graph{
		session: session,
		nodes:   NewNodeUpserter(session, batchSize),
		rels:    NewRelUpserter(session, batchSize),
		fixer:   NewEdgeFixer(session),
		cleaner: NewCleaner(session),
		schema:  NewSchemaManager(session),
	}
}

func (g *Graph) UpsertNodes(ctx context.Context, rows []domain.NodeRow) error {
	return g.nodes.UpsertNodes(ctx, rows)
}

func (g *Graph) UpsertRels(ctx context.Context, rows []domain.RelRow) error {
	return g.rels.UpsertRels(ctx, rows)
}

func (g *Graph) FixEdges(ctx context.Context, runID string) error {
	return g.fixer.Run(ctx, runID)
}

func (g *Graph) Prune(ctx context.Context, scope, runID string) error {
	return g.cleaner.Prune(ctx, scope, runID)
}

func (g *Graph) EnsureSchema(ctx context.Context) error {
	return g.schema.Ensure(ctx)
}

// CountHosts 返回图中 VMHost 节点数量，用于和关系库做一致性校验。
func (g *Graph) CountHosts(ctx context.Context) (int64, error) {
	records, err := g.session.RunRead(ctx, cypher.MustAsset("count_hosts.cql"), nil)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	n, ok := records[0]["hosts"].(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected hosts count type %T", records[0]["hosts"])
	}
	return n, nil
}
