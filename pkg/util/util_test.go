package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatch(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Batch([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1, 2, 3}}, Batch([]int{1, 2, 3}, 0))
	assert.Nil(t, Batch([]int{}, 0))
}

func TestHashMap(t *testing.T) {
	a := HashMap(map[string]any{"name": "h1", "cores": 8, "pools": []string{"a", "b"}})
	b := HashMap(map[string]any{"pools": []string{"a", "b"}, "cores": 8, "name": "h1"})
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, HashMap(map[string]any{"name": "h1", "cores": 8, "pools": []string{"ab"}}))
	// 键值边界不能混淆
	assert.NotEqual(t, HashMap(map[string]any{"ab": "c"}), HashMap(map[string]any{"a": "bc"}))
}
