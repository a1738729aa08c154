package util

import "runtime"

// HeapSnapshot is a coarse view of the Go heap for log lines.
type HeapSnapshot struct {
	AllocMB uint64
	NumGC   uint32
}

func ReadHeap() HeapSnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return HeapSnapshot{AllocMB: m.Alloc >> 20, NumGC: m.NumGC}
}
