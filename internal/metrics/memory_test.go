package metrics

import "testing"

var sink []byte

func TestReadMemory(t *testing.T) {
	t.Parallel()

	snap := ReadMemory()
	if snap.HeapAlloc == 0 {
		t.Error("HeapAlloc should be > 0")
	}
	if snap.TotalAlloc < snap.HeapAlloc {
		t.Errorf("TotalAlloc %d should be >= HeapAlloc %d", snap.TotalAlloc, snap.HeapAlloc)
	}
}

func TestMemorySnapshot_Since(t *testing.T) {
	t.Parallel()

	before := ReadMemory()
	sink = make([]byte, 1024*1024) // 1 MB
	usage := ReadMemory().Since(before)

	if usage.Allocated < 1024*1024 {
		t.Errorf("Allocated = %d, want at least 1 MiB", usage.Allocated)
	}
	if usage.Objects == 0 {
		t.Error("Objects should count the allocation")
	}
}
