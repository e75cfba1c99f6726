package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeKey(t *testing.T) {
	assert.Equal(t, "HOST_abc", MakeKey(PrefixHost, "abc"))
	assert.Equal(t, "POOL_7", MakeKey(PrefixPool, 7))
}

func TestScopes(t *testing.T) {
	assert.Equal(t, "cluster:c1", ClusterScope("c1"))
	assert.Equal(t, "host:h1", HostScope("h1"))
}

func TestLabelPattern(t *testing.T) {
	assert.Equal(t, "", LabelPattern(nil))
	assert.Equal(t, ":Compute:VMHost", LabelPattern([]string{LabelVMHost, LabelCompute}))
	assert.Equal(t, "Compute:VirtualMachine", JoinLabels([]string{LabelVirtualMachine, LabelCompute}))
}
