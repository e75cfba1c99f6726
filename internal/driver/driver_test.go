package driver

import (
	"context"
	"testing"

	"podsync/internal/discovery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticDriver struct {
	kind string
}

func (d staticDriver) Type() string { return d.kind }

func (d staticDriver) Discover(_ context.Context, target discovery.Target) (*discovery.Result, error) {
	return &discovery.Result{Pod: &discovery.Pod{Name: d.kind + ":" + target.Name}}, nil
}

func TestRegistryDispatchesByPodType(t *testing.T) {
	r := NewRegistry(staticDriver{kind: "lxd"}, staticDriver{kind: "virsh"})
	assert.Equal(t, []string{"lxd", "virsh"}, r.Types())

	res, err := r.Discover(context.Background(), discovery.Target{Name: "h", PodType: "virsh"})
	require.NoError(t, err)
	assert.Equal(t, "virsh:h", res.Pod.Name)

	_, err = r.Discover(context.Background(), discovery.Target{PodType: "rsd"})
	assert.EqualError(t, err, `unsupported pod type "rsd"`)
}

func TestDebianArchitecture(t *testing.T) {
	assert.Equal(t, "amd64/generic", DebianArchitecture("x86_64"))
	assert.Equal(t, "ppc64el/generic", DebianArchitecture("ppc64le"))
	assert.Equal(t, "riscv64/generic", DebianArchitecture("riscv64"))
	assert.Equal(t, "", DebianArchitecture(""))
}
