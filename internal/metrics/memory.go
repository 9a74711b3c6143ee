package metrics

import "runtime"

// MemorySnapshot holds a point-in-time memory reading.
type MemorySnapshot struct {
	HeapAlloc   uint64 // bytes in use by application
	TotalAlloc  uint64 // cumulative bytes allocated
	Mallocs     uint64 // cumulative heap objects allocated
	NumGC       uint32 // number of completed GC cycles
	HeapObjects uint64 // number of live heap objects
}

// MemoryUsage is the difference between two snapshots taken around a batch.
type MemoryUsage struct {
	Allocated uint64 // bytes allocated in between
	Objects   uint64 // heap objects allocated in between
	GCCycles  uint32 // GC cycles completed in between
}

// ReadMemory reads current memory statistics.
func ReadMemory() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		HeapAlloc:   m.HeapAlloc,
		TotalAlloc:  m.TotalAlloc,
		Mallocs:     m.Mallocs,
		NumGC:       m.NumGC,
		HeapObjects: m.HeapObjects,
	}
}

// Since returns the usage accumulated between before and s. The cumulative
// counters never decrease, so the result is well defined when before was
// taken first.
func (s MemorySnapshot) Since(before MemorySnapshot) MemoryUsage {
	return MemoryUsage{
		Allocated: s.TotalAlloc - before.TotalAlloc,
		Objects:   s.Mallocs - before.Mallocs,
		GCCycles:  s.NumGC - before.NumGC,
	}
}
