package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCPUMask(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{input: "0xF", want: 0xF},
		{input: "0X3", want: 0x3},
		{input: "5", want: 5},
		{input: "0-3", want: 0xF},
		{input: "0-1,4", want: 0x13},
		{input: " 2 , 6-7 ", want: 0xC4},
		{input: "63", want: 63},
		{input: "0,63", want: 1 | 1<<63},
		{input: "", wantErr: true},
		{input: "0", wantErr: true},
		{input: "0x0", wantErr: true},
		{input: "3-1", wantErr: true},
		{input: "0-64", wantErr: true},
		{input: "a-b", wantErr: true},
		{input: "0xZZ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCPUMask(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMask)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatCPUMask(t *testing.T) {
	tests := []struct {
		mask uint64
		want string
	}{
		{0, ""},
		{0x1, "0"},
		{0xF, "0-3"},
		{0x13, "0-1,4"},
		{0xC4, "2,6-7"},
		{^uint64(0), "0-63"},
		{1 << 63, "63"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCPUMask(tt.mask))
		})
	}
}

func TestNativeTunerRejectsEmptyMask(t *testing.T) {
	err := NativeTuner{}.SetAffinity(&fakeRef{pid: 1, alive: true}, 0)
	assert.ErrorIs(t, err, ErrInvalidMask)
}
