package domain

import (
	"fmt"
	"sort"
	"strings"
)

const (
	LabelVMCluster      = "VMCluster"
	LabelVMHost         = "VMHost"
	LabelVirtualMachine = "VirtualMachine"
	LabelStoragePool    = "StoragePool"
	LabelAgent          = "Agent"
	LabelCompute        = "Compute"
	// LabelSynced 打在所有同步写入的节点上，sync_key 唯一约束建在它上面
	LabelSynced         = "Synced"

	RelMemberOf = "MEMBER_OF"
	RelHostsVM  = "HOSTS_VM"
	RelHasPool  = "HAS_POOL"
	RelRoutable = "ROUTABLE"
	RelBackedBy = "BACKED_BY"
)

const (
	PrefixCluster = "CL"
	PrefixHost    = "HOST"
	PrefixVirtual = "VM"
	PrefixPool    = "POOL"
	PrefixAgent   = "AGENT"
)

// MakeKey 统一生成 sync_key，带上前缀以避免不同实体冲突。
func MakeKey(prefix string, rawID any) string {
	return fmt.Sprintf("%s_%v", prefix, rawID)
}

// ClusterScope 与 HostScope 用于划定一次投影可清理的范围。
func ClusterScope(id any) string {
	return fmt.Sprintf("cluster:%v", id)
}

func HostScope(id any) string {
	return fmt.Sprintf("host:%v", id)
}

// LabelPattern 根据标签集合拼成 Cypher 模板所需的字符串，如 ":A:B"。
func LabelPattern(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	return ":" + strings.Join(sorted, ":")
}

// JoinLabels 简单拼接标签用于 map key（内部使用）。
func JoinLabels(labels []string) string {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	return strings.Join(sorted, ":")
}
