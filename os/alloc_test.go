package os

import "testing"

func testHeap(t *testing.T, size int) (*Alloc, HeapHandle) {
	t.Helper()
	a := InitAlloc(make([]byte, size), 4)
	h := a.CreateHeap(0, size)
	if h < 0 {
		t.Fatal("creating heap failed")
	}
	return a, h
}

func TestCreateHeap(t *testing.T) {
	a := InitAlloc(make([]byte, 4096), 2)

	h1 := a.CreateHeap(0, 2048)
	h2 := a.CreateHeap(2048, 4096)
	if h1 < 0 || h2 < 0 || h1 == h2 {
		t.Fatal("expected two distinct heaps:", h1, h2)
	}
	if a.CreateHeap(0, 4096) != -1 {
		t.Error("expected no heap slot left")
	}
	if a.CheckHeap(h1) != 2048-headerSize {
		t.Error("fresh heap not a single free cell")
	}

	if a.CreateHeap(0, minObjSize-1) != -1 {
		t.Error("created heap smaller than a single cell")
	}
	if a.CreateHeap(2048, 8192) != -1 {
		t.Error("created heap beyond the arena")
	}
}

func TestAllocFree(t *testing.T) {
	a, h := testHeap(t, 4096)

	p := a.AllocFromHeap(h, 100)
	if p == nil || len(p) != 100 {
		t.Fatal("allocation failed")
	}
	// 100 byte payload plus header, rounded up to a 160 byte cell.
	if got := a.ReferentSize(p); got != 128 {
		t.Error("unexpected referent size:", got)
	}
	if free := a.CheckHeap(h); free != 4096-160-headerSize {
		t.Error("unexpected free space:", free)
	}

	a.FreeToHeap(h, p)
	if free := a.CheckHeap(h); free != 4096-headerSize {
		t.Error("free did not return the whole cell:", free)
	}
}

func TestCoalesce(t *testing.T) {
	a, h := testHeap(t, 4096)

	p1 := a.AllocFromHeap(h, 100)
	p2 := a.AllocFromHeap(h, 100)
	p3 := a.AllocFromHeap(h, 100)
	if p1 == nil || p2 == nil || p3 == nil {
		t.Fatal("allocations failed")
	}

	// Free the middle cell first so both joins happen on reinsert.
	a.FreeToHeap(h, p2)
	a.FreeToHeap(h, p1)
	a.FreeToHeap(h, p3)

	if free := a.CheckHeap(h); free != 4096-headerSize {
		t.Fatal("free space not coalesced:", free)
	}
	if a.AllocFromHeap(h, 4096-headerSize) == nil {
		t.Error("coalesced heap cannot serve a full sized allocation")
	}
}

func TestWholeCellHandout(t *testing.T) {
	a, h := testHeap(t, 4096)

	// Needs a 4032 byte cell, leaving 64 bytes: exactly big enough to
	// split off.
	p := a.AllocFromHeap(h, 4000)
	if p == nil {
		t.Fatal("allocation failed")
	}
	if a.AllocFromHeap(h, minObjSize-headerSize) == nil {
		t.Error("split remainder not allocatable")
	}

	a, h = testHeap(t, 4096)
	// Needs a 4064 byte cell, leaving 32 bytes: too small to split, the
	// whole heap is handed out.
	p = a.AllocFromHeap(h, 4030)
	if p == nil {
		t.Fatal("allocation failed")
	}
	if got := a.ReferentSize(p); got != 4096-headerSize {
		t.Error("padding not charged to the allocation:", got)
	}
	if a.CheckHeap(h) != 0 {
		t.Error("expected no free space left")
	}
}

func TestExhaustion(t *testing.T) {
	a, h := testHeap(t, 1024)

	if a.AllocFromHeap(h, 1024) != nil {
		t.Error("allocation larger than the heap succeeded")
	}

	var allocs [][]byte
	for {
		p := a.AllocFromHeap(h, minObjSize)
		if p == nil {
			break
		}
		allocs = append(allocs, p)
	}
	// 96 byte cells: 1024/96 rounds down to 10.
	if len(allocs) != 10 {
		t.Error("unexpected number of allocations:", len(allocs))
	}
	for _, p := range allocs {
		a.FreeToHeap(h, p)
	}
	if free := a.CheckHeap(h); free != 1024-headerSize {
		t.Error("heap not whole after freeing everything:", free)
	}
}

func TestCurrentHeap(t *testing.T) {
	a, h := testHeap(t, 1024)

	if a.Alloc(64) != nil {
		t.Error("allocation without a current heap succeeded")
	}
	if prev := a.SetCurrentHeap(h); prev != -1 {
		t.Error("expected no previous current heap:", prev)
	}
	p := a.Alloc(64)
	if p == nil {
		t.Fatal("allocation from current heap failed")
	}
	a.Free(p)
	if free := a.CheckHeap(h); free != 1024-headerSize {
		t.Error("free to current heap failed:", free)
	}
}

func TestAddToHeap(t *testing.T) {
	a := InitAlloc(make([]byte, 4096), 1)
	h := a.CreateHeap(0, 2048)

	a.AddToHeap(h, 2048, 4096)
	if free := a.CheckHeap(h); free != 4096-headerSize {
		t.Fatal("donated range not joined with the heap:", free)
	}
	if a.AllocFromHeap(h, 4096-headerSize) == nil {
		t.Error("grown heap cannot serve a full sized allocation")
	}
}

func TestDestroyHeap(t *testing.T) {
	a := InitAlloc(make([]byte, 1024), 1)
	h := a.CreateHeap(0, 1024)

	a.DestroyHeap(h)
	if a.AllocFromHeap(h, 64) != nil {
		t.Error("allocation from destroyed heap succeeded")
	}
	if a.CheckHeap(h) != -1 {
		t.Error("destroyed heap passes validation")
	}
	if a.CreateHeap(0, 1024) != h {
		t.Error("heap slot not reusable after destroy")
	}
}

func TestVisitAllocated(t *testing.T) {
	a, h := testHeap(t, 4096)
	p1 := a.AllocFromHeap(h, 100)
	p2 := a.AllocFromHeap(h, 200)
	if p1 == nil || p2 == nil {
		t.Fatal("allocations failed")
	}

	total := 0
	a.VisitAllocated(func(heap HeapHandle, p []byte) {
		if heap != h {
			t.Error("allocation visited on wrong heap:", heap)
		}
		total += len(p)
	})
	if total != a.ReferentSize(p1)+a.ReferentSize(p2) {
		t.Error("visited sizes do not add up:", total)
	}
}

// TestReferentSize checks that an allocation's size is found from the
// allocation alone, whichever heap it lives on.
func TestReferentSize(t *testing.T) {
	a := InitAlloc(make([]byte, 4096), 2)
	h1 := a.CreateHeap(0, 2048)
	h2 := a.CreateHeap(2048, 4096)
	if h1 < 0 || h2 < 0 {
		t.Fatal("creating heaps failed")
	}

	p1 := a.AllocFromHeap(h1, 100)
	p2 := a.AllocFromHeap(h2, 200)
	if p1 == nil || p2 == nil {
		t.Fatal("allocations failed")
	}
	if got := a.ReferentSize(p1); got != 128 {
		t.Error("unexpected referent size on first heap:", got)
	}
	if got := a.ReferentSize(p2); got != 224 {
		t.Error("unexpected referent size on second heap:", got)
	}

	a.FreeToHeap(h2, p2)
	if got := a.ReferentSize(p2); got != 0 {
		t.Error("freed allocation reports a referent size:", got)
	}
}

func TestCheckHeapDetectsCorruption(t *testing.T) {
	a, h := testHeap(t, 1024)
	if a.AllocFromHeap(h, 64) == nil {
		t.Fatal("allocation failed")
	}

	a.heaps[h].free.size -= 1 // break the cell alignment
	if a.CheckHeap(h) != -1 {
		t.Error("corrupted free cell passes validation")
	}
	a.heaps[h].free.size += 1
	if a.CheckHeap(h) == -1 {
		t.Fatal("restored heap fails validation")
	}

	a.heaps[h].allocated.size += alignment // claims more than the heap owns
	if a.CheckHeap(h) != -1 {
		t.Error("corrupted allocated cell passes validation")
	}
}
