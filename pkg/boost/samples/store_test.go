package samples

import (
	"errors"
	"testing"
	"time"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func snap(name string, at time.Time, rss uint64, cpu float64) types.ProcessSnapshot {
	return types.ProcessSnapshot{
		ProcessDescriptor: types.ProcessDescriptor{PID: 10, Name: name},
		MemoryBytes:       rss,
		CPUPercent:        cpu,
		Running:           true,
		SampledAt:         at,
	}
}

func TestStoreRecordList(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	// Recorded out of order; List returns time order.
	for _, offset := range []int{2, 0, 1} {
		at := base.Add(time.Duration(offset) * time.Second)
		if err := store.Record(snap("Roblox.exe", at, uint64(offset+1)<<20, float64(offset))); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := store.Record(snap("Roblox.exe.old", base, 1, 1)); err != nil {
		t.Fatal(err)
	}

	got, err := store.List("Roblox.exe", time.Time{}, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List len = %d, want 3", len(got))
	}
	for i, s := range got {
		if !s.SampledAt.Equal(base.Add(time.Duration(i) * time.Second)) {
			t.Errorf("sample %d at %v, out of order", i, s.SampledAt)
		}
		if s.Name != "Roblox.exe" || !s.Running {
			t.Errorf("sample %d = %+v", i, s)
		}
	}

	since, err := store.List("Roblox.exe", base.Add(time.Second), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(since) != 2 {
		t.Errorf("List(since) len = %d, want 2", len(since))
	}

	last, err := store.List("Roblox.exe", time.Time{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(last) != 1 || last[0].MemoryBytes != 3<<20 {
		t.Errorf("List(limit 1) = %+v, want newest sample", last)
	}
}

func TestStoreListUnknownTarget(t *testing.T) {
	store := openTestStore(t)

	got, err := store.List("nothing", time.Time{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List = %v, want empty slice", got)
	}
}

func TestStoreTargets(t *testing.T) {
	store := openTestStore(t)
	now := time.Now()

	for _, name := range []string{"b", "a", "b"} {
		if err := store.Record(snap(name, now, 1, 0)); err != nil {
			t.Fatal(err)
		}
		now = now.Add(time.Millisecond)
	}

	names, err := store.Targets()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Targets = %v, want [a b]", names)
	}
}

func TestStorePrune(t *testing.T) {
	store := openTestStore(t)
	now := time.Now()

	old := now.Add(-48 * time.Hour)
	if err := store.Record(snap("x", old, 1, 0)); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(snap("x", now, 2, 0)); err != nil {
		t.Fatal(err)
	}

	removed, err := store.Prune(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Prune removed %d, want 1", removed)
	}

	got, _ := store.List("x", time.Time{}, 0)
	if len(got) != 1 || got[0].MemoryBytes != 2 {
		t.Errorf("remaining = %+v", got)
	}
}

func TestKeyRoundTrip(t *testing.T) {
	at := time.Unix(1760000000, 123)
	name, got, ok := ParseKey(MakeKey("com.roblox.client", at))
	if !ok || name != "com.roblox.client" || !got.Equal(at) {
		t.Errorf("ParseKey = %q %v %v", name, got, ok)
	}

	if _, _, ok := ParseKey([]byte("no-separator")); ok {
		t.Error("ParseKey accepted a key without separator")
	}
}

func TestSummarize(t *testing.T) {
	base := time.Now()
	snaps := []types.ProcessSnapshot{
		snap("x", base, 100, 10),
		snap("x", base.Add(time.Second), 300, 30),
		{ProcessDescriptor: types.ProcessDescriptor{Name: "x"}, SampledAt: base.Add(2 * time.Second)},
	}

	sum, err := Summarize(snaps)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Count != 3 || sum.Downtime != 1 {
		t.Errorf("Count/Downtime = %d/%d, want 3/1", sum.Count, sum.Downtime)
	}
	if sum.PeakRSS != 300 || sum.AvgRSS != 200 {
		t.Errorf("RSS peak/avg = %d/%d, want 300/200", sum.PeakRSS, sum.AvgRSS)
	}
	if sum.PeakCPU != 30 || sum.AvgCPU != 20 {
		t.Errorf("CPU peak/avg = %v/%v, want 30/20", sum.PeakCPU, sum.AvgCPU)
	}
	if sum.Timespan != 2*time.Second {
		t.Errorf("Timespan = %v", sum.Timespan)
	}

	if _, err := Summarize(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Summarize(nil) error = %v, want ErrEmpty", err)
	}
}
