package resources

// Usage 描述一种资源的分配情况，Free 可能为负数（超配）。
type Usage struct {
	Allocated     int64 `json:"allocated"`
	Free          int64 `json:"free"`
	Overcommitted int64 `json:"overcommitted"`
}

type MemoryUsage struct {
	General   Usage `json:"general"`
	Hugepages Usage `json:"hugepages"`
}

type StorageUsage struct {
	Allocated int64 `json:"allocated"`
	Free      int64 `json:"free"`
}

// PoolUsage 是按池名聚合后的存储池使用情况。
type PoolUsage struct {
	Shared    bool  `json:"shared"`
	Allocated int64 `json:"allocated"`
	Total     int64 `json:"total"`
}

// Summary 是一组宿主机的资源汇总。
type Summary struct {
	Cores        Usage                `json:"cores"`
	Memory       MemoryUsage          `json:"memory"`
	Storage      StorageUsage         `json:"storage"`
	StoragePools map[string]PoolUsage `json:"storage_pools"`
}
