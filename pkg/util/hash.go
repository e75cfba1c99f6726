package util

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// HashMap 返回 map 的稳定 hash，用于判断节点内容是否变化。
func HashMap(m map[string]any) string {
	h := sha256.New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write(encodeValue(m[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func encodeValue(v any) []byte {
	if b, err := json.Marshal(v); err == nil {
		return b
	}
	return []byte(fmt.Sprintf("%v", v))
}
