package util

// Batch 按 batchSize 切分 items，loader 用它限制单条 UNWIND 语句携带的行数。
// batchSize <= 0 时全部放进同一批，每一批都是独立的副本。
func Batch[T any](items []T, batchSize int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = len(items)
	}
	batches := make([][]T, 0, (len(items)+batchSize-1)/batchSize)
	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))
		batches = append(batches, append([]T(nil), items[start:end]...))
	}
	return batches
}
