package logging

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(b *LogBuffer, n int) {
	for i := range n {
		b.Add(LogEntry{Level: LevelInfo, Component: "test", Message: fmt.Sprint(i)})
	}
}

func messages(entries []LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

func TestLogBufferEntries(t *testing.T) {
	tests := []struct {
		name  string
		size  int
		added int
		want  []string
	}{
		{name: "empty", size: 3, added: 0, want: []string{}},
		{name: "partial", size: 3, added: 2, want: []string{"0", "1"}},
		{name: "exactly full", size: 3, added: 3, want: []string{"0", "1", "2"}},
		{name: "overflow", size: 3, added: 5, want: []string{"2", "3", "4"}},
		{name: "wrapped twice", size: 2, added: 7, want: []string{"5", "6"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewLogBuffer(tt.size)
			fill(b, tt.added)
			assert.Equal(t, tt.want, messages(b.Entries()))
			assert.Equal(t, len(tt.want), b.Len())
		})
	}
}

func TestLogBufferLast(t *testing.T) {
	b := NewLogBuffer(4)
	fill(b, 6)

	assert.Equal(t, []string{"4", "5"}, messages(b.Last(2)))
	assert.Equal(t, []string{"2", "3", "4", "5"}, messages(b.Last(10)))
	assert.Empty(t, b.Last(0))
}

func TestLogBufferClear(t *testing.T) {
	b := NewLogBuffer(2)
	fill(b, 3)
	b.Clear()

	assert.Equal(t, 0, b.Len())
	fill(b, 1)
	assert.Equal(t, []string{"0"}, messages(b.Entries()))
}

func TestLogBufferDefaultSize(t *testing.T) {
	b := NewLogBuffer(0)
	fill(b, DefaultBufferSize+1)
	require.Equal(t, DefaultBufferSize, b.Len())
}

func TestLogBufferConcurrent(t *testing.T) {
	b := NewLogBuffer(50)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fill(b, 100)
			_ = b.Last(10)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, b.Len())
}
