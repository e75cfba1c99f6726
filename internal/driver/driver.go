package driver

import (
	"context"
	"fmt"
	"sort"

	"podsync/internal/discovery"
)

// Driver 是某一种 pod 类型的发现能力，由 agent 侧执行。
type Driver interface {
	Type() string
	Discover(ctx context.Context, target discovery.Target) (*discovery.Result, error)
}

// Registry 按宿主机的 pod 类型选择 Driver。
type Registry struct {
	drivers map[string]Driver
}

func NewRegistry(drivers ...Driver) *Registry {
	r := &Registry{drivers: make(map[string]Driver, len(drivers))}
	for _, d := range drivers {
		r.drivers[d.Type()] = d
	}
	return r
}

// Types 返回已注册的 pod 类型。
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.drivers))
	for t := range r.drivers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func (r *Registry) Discover(ctx context.Context, target discovery.Target) (*discovery.Result, error) {
	d, ok := r.drivers[target.PodType]
	if !ok {
		return nil, fmt.Errorf("unsupported pod type %q", target.PodType)
	}
	return d.Discover(ctx, target)
}
