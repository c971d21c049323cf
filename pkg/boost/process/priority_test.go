package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriorityClass(t *testing.T) {
	tests := []struct {
		input   string
		want    PriorityClass
		wantErr bool
	}{
		{"normal", PriorityNormal, false},
		{"Above_Normal", PriorityAboveNormal, false},
		{"above-normal", PriorityAboveNormal, false},
		{"above normal", PriorityAboveNormal, false},
		{"HIGH", PriorityHigh, false},
		{"realtime", PriorityRealtime, false},
		{"idle", PriorityNormal, true},
		{"", PriorityNormal, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePriorityClass(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPriority)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriorityClassCapped(t *testing.T) {
	got, changed := PriorityRealtime.Capped()
	assert.Equal(t, PriorityHigh, got)
	assert.True(t, changed)

	for _, c := range []PriorityClass{PriorityNormal, PriorityAboveNormal, PriorityHigh} {
		got, changed := c.Capped()
		assert.Equal(t, c, got)
		assert.False(t, changed)
	}
}

func TestPriorityClassNames(t *testing.T) {
	assert.Equal(t, "above_normal", PriorityAboveNormal.String())
	assert.Equal(t, "HIGH_PRIORITY_CLASS", PriorityHigh.NativeName())
	assert.Equal(t, "PriorityClass(9)", PriorityClass(9).String())

	// Round trip through the config representation.
	for _, c := range []PriorityClass{PriorityNormal, PriorityAboveNormal, PriorityHigh, PriorityRealtime} {
		parsed, err := ParsePriorityClass(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestNiceValue(t *testing.T) {
	assert.Equal(t, 0, niceValue(PriorityNormal))
	assert.Equal(t, -5, niceValue(PriorityAboveNormal))
	assert.Equal(t, -10, niceValue(PriorityHigh))
}
