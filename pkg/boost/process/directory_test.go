package process

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

func TestTableDirectoryListCandidates(t *testing.T) {
	enum := &fakeEnumerator{entries: []Entry{
		{PID: 10, PPID: 1, Name: "explorer.exe"},
		{PID: 20, PPID: 10, Name: "Roblox.exe"},
		{PID: 30, PPID: 10, Name: "roblox.exe"},
		{PID: 40, PPID: 10, Name: "Roblox.exe"},
	}}
	dir := NewTableDirectory(enum)

	tests := []struct {
		name string
		want []int32
	}{
		{name: "Roblox.exe", want: []int32{20, 40}},
		{name: "roblox.exe", want: []int32{30}},
		{name: "ROBLOX.EXE", want: []int32{}},
		{name: "Roblox", want: []int32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dir.ListCandidates(context.Background(), tt.name)
			require.NoError(t, err)
			require.NotNil(t, got)
			pids := make([]int32, len(got))
			for i, d := range got {
				pids[i] = d.PID
				assert.Equal(t, tt.name, d.Name)
				assert.Equal(t, int32(10), d.ParentPID)
				assert.Empty(t, d.Package)
			}
			assert.Equal(t, tt.want, pids)
		})
	}
}

func TestTableDirectoryEnumerationFailure(t *testing.T) {
	dir := NewTableDirectory(&fakeEnumerator{err: errEnum})

	got, err := dir.ListCandidates(context.Background(), "Roblox.exe")
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.ErrorIs(t, err, types.ErrDiscovery)
	assert.ErrorIs(t, err, errEnum)
}

func TestTableDirectoryFreshSnapshotPerCall(t *testing.T) {
	enum := &fakeEnumerator{}
	dir := NewTableDirectory(enum)

	_, _ = dir.ListCandidates(context.Background(), "a")
	_, _ = dir.ListCandidates(context.Background(), "a")
	assert.Equal(t, 2, enum.calls)
}

func TestPackageDirectoryListCandidates(t *testing.T) {
	enum := &fakeEnumerator{entries: []Entry{
		{PID: 100, Name: "com.roblox.client"},
		{PID: 101, Name: "com.roblox.clie", Cmdline: []string{"com.roblox.client"}},
		{PID: 102, Name: "com.roblox.client:remote", Cmdline: []string{"com.roblox.client:remote"}},
		{PID: 103, Name: "com.roblox.RobloxStudio"},
		{PID: 104, Name: "surfaceflinger"},
	}}
	dir := NewPackageDirectory(enum)

	got, err := dir.ListCandidates(context.Background(), "com.roblox.client")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int32(100), got[0].PID)
	assert.Equal(t, int32(101), got[1].PID)
	for _, d := range got {
		assert.Equal(t, "com.roblox.client", d.Package)
	}

	got, err = dir.ListCandidates(context.Background(), "com.roblox")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPackageDirectoryEnumerationFailure(t *testing.T) {
	dir := NewPackageDirectory(&fakeEnumerator{err: errEnum})

	got, err := dir.ListCandidates(context.Background(), "com.roblox.client")
	assert.Empty(t, got)

	var de *types.DiscoveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "com.roblox.client", de.Target)
}

func TestFindFirstCandidateOrderWins(t *testing.T) {
	// Roblox.exe is enumerated before RobloxPlayerBeta.exe, but the
	// candidate list ranks the player first.
	enum := &fakeEnumerator{entries: []Entry{
		{PID: 5, Name: "Roblox.exe"},
		{PID: 9, Name: "RobloxPlayerBeta.exe"},
		{PID: 7, Name: "RobloxPlayerBeta.exe"},
	}}
	dir := NewTableDirectory(enum)

	got, err := FindFirst(context.Background(), dir, []string{"RobloxPlayerBeta.exe", "Roblox.exe", "RobloxStudioBeta.exe"})
	require.NoError(t, err)
	assert.Equal(t, int32(9), got.PID)
	assert.Equal(t, "RobloxPlayerBeta.exe", got.Name)
}

func TestFindFirstFallsThrough(t *testing.T) {
	dir := NewTableDirectory(&fakeEnumerator{entries: []Entry{{PID: 3, Name: "RobloxStudioBeta.exe"}}})

	got, err := FindFirst(context.Background(), dir, []string{"RobloxPlayerBeta.exe", "Roblox.exe", "RobloxStudioBeta.exe"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), got.PID)
}

func TestFindFirstNoMatch(t *testing.T) {
	dir := NewTableDirectory(&fakeEnumerator{})

	_, err := FindFirst(context.Background(), dir, []string{"A.exe", "B.exe"})
	var de *types.DiscoveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "A.exe, B.exe", de.Target)
	assert.NoError(t, de.Err)
}

func TestFindFirstEnumerationFailure(t *testing.T) {
	dir := NewTableDirectory(&fakeEnumerator{err: errEnum})

	_, err := FindFirst(context.Background(), dir, []string{"A.exe"})
	assert.ErrorIs(t, err, types.ErrDiscovery)
	assert.ErrorIs(t, err, errEnum)
}

func TestSystemEnumeratorFindsSelf(t *testing.T) {
	entries, err := SystemEnumerator{WithCmdline: true}.Processes(context.Background())
	if err != nil {
		t.Skipf("process table unavailable: %v", err)
	}
	assert.NotEmpty(t, entries)
}

func TestAcquireFirstSkipsUnopenableMatches(t *testing.T) {
	enum := &fakeEnumerator{entries: []Entry{
		{PID: 9, Name: "RobloxPlayerBeta.exe"},
		{PID: 7, Name: "RobloxPlayerBeta.exe"},
		{PID: 5, Name: "Roblox.exe"},
	}}
	candidates := []string{"RobloxPlayerBeta.exe", "Roblox.exe"}

	tests := []struct {
		name    string
		deny    []int32
		wantPID int32
	}{
		{name: "first match opens", wantPID: 9},
		{name: "next pid of the same name", deny: []int32{9}, wantPID: 7},
		{name: "next candidate name", deny: []int32{9, 7}, wantPID: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opener := &fakeOpener{deny: map[int32]error{}}
			for _, pid := range tt.deny {
				opener.deny[pid] = errDenied
			}
			h := NewHandle(opener)

			got, err := AcquireFirst(context.Background(), h, NewTableDirectory(enum), candidates)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPID, got.PID)

			bound, ok := h.Descriptor()
			require.True(t, ok)
			assert.Equal(t, tt.wantPID, bound.PID)
			assert.Equal(t, 1, opener.live())
		})
	}
}

func TestAcquireFirstNothingOpens(t *testing.T) {
	enum := &fakeEnumerator{entries: []Entry{{PID: 9, Name: "Roblox.exe"}}}
	opener := &fakeOpener{}
	h := NewHandle(opener)
	ctx := context.Background()

	require.NoError(t, h.Acquire(ctx, types.ProcessDescriptor{PID: 1, Name: "old"}))
	opener.deny = map[int32]error{9: errDenied}

	_, err := AcquireFirst(ctx, h, NewTableDirectory(enum), []string{"Roblox.exe"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrDiscovery, "a match existed")
	assert.ErrorIs(t, err, types.ErrNativeAPI)
	assert.False(t, h.Bound())
	assert.Zero(t, opener.live(), "the previous binding is released")
}

func TestAcquireFirstNoMatch(t *testing.T) {
	opener := &fakeOpener{}
	h := NewHandle(opener)
	ctx := context.Background()
	require.NoError(t, h.Acquire(ctx, types.ProcessDescriptor{PID: 1, Name: "old"}))

	_, err := AcquireFirst(ctx, h, NewTableDirectory(&fakeEnumerator{}), []string{"Roblox.exe"})

	var discErr *types.DiscoveryError
	require.ErrorAs(t, err, &discErr)
	assert.Equal(t, "Roblox.exe", discErr.Target)
	assert.False(t, h.Bound())
	assert.Zero(t, opener.live())
}
