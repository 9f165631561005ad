package queue

import (
	"reflect"
	"sort"
	"testing"

	"jukebox/src/infra/store"
	"jukebox/src/music"
)

func testCatalog() *music.Catalog {
	return music.NewCatalog([]music.Track{
		{Path: "/m/0.mp3", Title: "Zero", Artist: "A", Genre: "rock"},
		{Path: "/m/1.mp3", Title: "One", Artist: "B", Genre: "pop"},
		{Path: "/m/2.mp3", Title: "Two", Artist: "C", Genre: "rock jazz"},
		{Path: "/m/3.mp3", Title: "Three", Artist: "D", Genre: "rock norandom"},
	})
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(store.New(t.TempDir(), false))
}

func TestRotationIsFilteredPermutation(t *testing.T) {
	service := newTestService(t)
	service.Restore(testCatalog(), []string{"rock"}, true)

	got := service.Rotation()
	sort.Ints(got)
	// Tracks 0 and 2 carry the rock token; 1 is pop, 3 is tagged norandom.
	if !reflect.DeepEqual(got, []int{0, 2}) {
		t.Errorf("expected rotation {0,2}, got %v", got)
	}
}

func TestRotationEmptyFilterIncludesAllRandomizable(t *testing.T) {
	service := newTestService(t)
	service.Restore(testCatalog(), nil, true)

	got := service.Rotation()
	sort.Ints(got)
	if !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("expected rotation {0,1,2}, got %v", got)
	}
}

func TestNoRandomTagExcludedRegardlessOfFilter(t *testing.T) {
	service := newTestService(t)
	// "rock" is among track 3's tokens, but norandom wins.
	service.Restore(testCatalog(), []string{"rock", "norandom"}, true)

	for _, idx := range service.Rotation() {
		if idx == 3 {
			t.Error("norandom-tagged track must never enter the rotation")
		}
	}
}

func TestPaidQueueFIFO(t *testing.T) {
	service := newTestService(t)
	service.Restore(testCatalog(), nil, true)

	if err := service.EnqueuePaid(2); err != nil {
		t.Fatal(err)
	}
	if err := service.EnqueuePaid(0); err != nil {
		t.Fatal(err)
	}

	first, ok := service.NextPaid()
	if !ok || first.Index != 2 {
		t.Fatalf("expected front index 2, got %+v ok=%v", first, ok)
	}
	service.OnPaidPlayed(first.Index)

	second, ok := service.NextPaid()
	if !ok || second.Index != 0 {
		t.Fatalf("expected front index 0, got %+v ok=%v", second, ok)
	}
	service.OnPaidPlayed(second.Index)

	if _, ok := service.NextPaid(); ok {
		t.Error("expected empty paid queue")
	}
}

func TestNextPaidDoesNotConsume(t *testing.T) {
	service := newTestService(t)
	service.Restore(testCatalog(), nil, true)
	if err := service.EnqueuePaid(1); err != nil {
		t.Fatal(err)
	}

	// A failed play calls NextPaid again without OnPaidPlayed; the purchase
	// must still be there.
	for i := 0; i < 3; i++ {
		track, ok := service.NextPaid()
		if !ok || track.Index != 1 {
			t.Fatalf("attempt %d: expected index 1, got %+v ok=%v", i, track, ok)
		}
	}
	if service.PaidLen() != 1 {
		t.Errorf("expected 1 pending paid entry, got %d", service.PaidLen())
	}
}

func TestEnqueuePaidOutOfRange(t *testing.T) {
	service := newTestService(t)
	service.Restore(testCatalog(), nil, true)
	if err := service.EnqueuePaid(99); err == nil {
		t.Error("expected error for out-of-range index")
	}
}

func TestOnRandomPlayedRotates(t *testing.T) {
	service := newTestService(t)
	service.Restore(testCatalog(), nil, true)

	before := service.Rotation()
	front, ok := service.PeekRandom()
	if !ok {
		t.Fatal("expected a random candidate")
	}
	if front.Index != before[0] {
		t.Fatalf("peek disagrees with rotation front: %d vs %d", front.Index, before[0])
	}

	service.OnRandomPlayed(front.Index)

	after := service.Rotation()
	if len(after) != len(before) {
		t.Fatalf("rotation length changed: %d -> %d", len(before), len(after))
	}
	if after[len(after)-1] != front.Index {
		t.Errorf("expected played index %d at tail, got %v", front.Index, after)
	}
}

func TestPeekRandomDoesNotConsume(t *testing.T) {
	service := newTestService(t)
	service.Restore(testCatalog(), nil, true)

	first, _ := service.PeekRandom()
	second, _ := service.PeekRandom()
	if first.Index != second.Index {
		t.Errorf("peek must not consume: %d vs %d", first.Index, second.Index)
	}
}

func TestCorruptPersistedEntriesEvicted(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir, false)

	// Persist queues carrying indices from a bigger, older catalog.
	if err := st.WriteIntSlice(store.PaidQueueFile, []int{7, 1, 99}); err != nil {
		t.Fatal(err)
	}
	if err := st.WriteIntSlice(store.RotationFile, []int{50, 2, 0}); err != nil {
		t.Fatal(err)
	}

	service := NewService(st)
	service.Restore(testCatalog(), nil, false)

	track, ok := service.NextPaid()
	if !ok || track.Index != 1 {
		t.Errorf("expected surviving paid entry 1, got %+v ok=%v", track, ok)
	}
	got := service.Rotation()
	if !reflect.DeepEqual(got, []int{2, 0}) {
		t.Errorf("expected surviving rotation [2 0], got %v", got)
	}
}

func TestRestoreAfterRebuildDiscardsQueues(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir, false)
	if err := st.WriteIntSlice(store.PaidQueueFile, []int{1, 2}); err != nil {
		t.Fatal(err)
	}

	service := NewService(st)
	service.Restore(testCatalog(), nil, true)

	if service.PaidLen() != 0 {
		t.Errorf("expected paid queue discarded after rebuild, got %d entries", service.PaidLen())
	}
	if service.RotationLen() == 0 {
		t.Error("expected fresh rotation after rebuild")
	}
}

func TestUpcomingListsPaidFirst(t *testing.T) {
	service := newTestService(t)
	service.Restore(testCatalog(), nil, true)
	if err := service.EnqueuePaid(3); err != nil {
		t.Fatal(err)
	}

	names := service.Upcoming(2)
	if len(names) != 2 {
		t.Fatalf("expected 2 upcoming names, got %v", names)
	}
	if names[0] != "D - Three" {
		t.Errorf("expected paid selection first, got %q", names[0])
	}
}

func TestQueuePersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir, false)

	service := NewService(st)
	service.Restore(testCatalog(), nil, true)
	if err := service.EnqueuePaid(2); err != nil {
		t.Fatal(err)
	}
	rotationBefore := service.Rotation()

	// A process restart with an unchanged catalog restores both queues.
	revived := NewService(st)
	revived.Restore(testCatalog(), nil, false)

	if revived.PaidLen() != 1 {
		t.Errorf("expected 1 paid entry after restart, got %d", revived.PaidLen())
	}
	if !reflect.DeepEqual(revived.Rotation(), rotationBefore) {
		t.Errorf("expected rotation preserved across restart: %v vs %v", revived.Rotation(), rotationBefore)
	}
}
