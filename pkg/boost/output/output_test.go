package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

func sampleResult() *Result {
	return &Result{
		Title:    "Auto-optimize",
		Platform: types.PlatformDesktop,
		Target:   &types.ProcessDescriptor{PID: 4242, Name: "RobloxPlayerBeta.exe"},
		Outcomes: []Item{
			{Name: "priority", Outcome: types.Succeeded("Process priority optimized", "Set to HIGH_PRIORITY_CLASS")},
			{Name: "settings", Outcome: types.Aggregate([]types.StepResult{
				{Name: "Game Mode", Success: true},
				{Name: "Power settings", Success: false, Detail: "failed: PowerThrottlingOff"},
			}, "System settings optimized", "Some optimizations failed")},
		},
	}
}

func format(t *testing.T, name string, r *Result) string {
	t.Helper()
	f, err := Get(name)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, r))
	return buf.String()
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"csv", "json", "plain", "pretty", "yaml"}, Available())

	_, err := Get("xml")
	assert.ErrorContains(t, err, "unknown formatter")

	r := NewRegistry()
	r.Register("x", func() Formatter { return &PlainFormatter{} })
	assert.Equal(t, []string{"x"}, r.Available())
}

func TestResultSuccess(t *testing.T) {
	assert.False(t, sampleResult().Success())
	assert.True(t, (&Result{}).Success())
}

func TestPrettyFormatter(t *testing.T) {
	out := format(t, "pretty", sampleResult())

	assert.Contains(t, out, "Auto-optimize")
	assert.Contains(t, out, "RobloxPlayerBeta.exe (PID: 4242)")
	assert.Contains(t, out, "Process priority optimized")
	assert.Contains(t, out, "Set to HIGH_PRIORITY_CLASS")
	assert.Contains(t, out, "Power settings")
	assert.Contains(t, out, "failed: PowerThrottlingOff")
	assert.Contains(t, out, "1 of 2 succeeded")
}

func TestPrettyFormatterSnapshotAndFields(t *testing.T) {
	r := &Result{
		Snapshot: &types.ProcessSnapshot{MemoryBytes: 3 << 30, CPUPercent: 12.34, Running: true, SampledAt: time.Now()},
		Fields:   []Field{{Label: "CPU cores", Value: "8"}, {Label: "Total RAM", Value: "16 GiB"}},
	}
	out := format(t, "pretty", r)

	assert.Contains(t, out, "3.0 GiB")
	assert.Contains(t, out, "12.3%")
	assert.Contains(t, out, "CPU cores:")
	assert.Contains(t, out, "16 GiB")
	assert.NotContains(t, out, "succeeded", "no footer without outcomes")
}

func TestPrettyFormatterDeadProcess(t *testing.T) {
	out := format(t, "pretty", &Result{Snapshot: &types.ProcessSnapshot{}})
	assert.Contains(t, out, "no longer running")
}

func TestPrettyFormatterEmptyTable(t *testing.T) {
	out := format(t, "pretty", &Result{Table: &Table{Columns: []string{"ID"}}})
	assert.Contains(t, out, "Nothing to show")
}

func TestPlainFormatter(t *testing.T) {
	r := sampleResult()
	r.Table = &Table{Columns: []string{"ID", "OPERATION"}, Rows: [][]string{{"a1", "optimize"}, {"b22", "tune"}}}
	r.Warnings = []string{"not elevated"}

	out := format(t, "plain", r)

	assert.Contains(t, out, "Target: RobloxPlayerBeta.exe (PID: 4242)\n")
	assert.Contains(t, out, "✓ Process priority optimized\n    Set to HIGH_PRIORITY_CLASS\n")
	assert.Contains(t, out, "✗ Some optimizations failed\n    ✓ Game Mode\n    ✗ Power settings (failed: PowerThrottlingOff)\n")
	assert.Contains(t, out, "ID   OPERATION\n")
	assert.Contains(t, out, "b22  tune\n")
	assert.True(t, strings.HasSuffix(out, "warning: not elevated\n"))
	assert.NotContains(t, out, "\x1b[", "plain output has no escape codes")
}

func TestJSONFormatter(t *testing.T) {
	out := format(t, "json", sampleResult())

	var decoded struct {
		Title    string `json:"title"`
		Target   types.ProcessDescriptor
		Outcomes []struct {
			Name    string `json:"name"`
			Outcome struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			} `json:"outcome"`
		} `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "Auto-optimize", decoded.Title)
	assert.Equal(t, int32(4242), decoded.Target.PID)
	require.Len(t, decoded.Outcomes, 2)
	assert.False(t, decoded.Outcomes[1].Outcome.Success)
}

func TestStructuredFormattersUseData(t *testing.T) {
	r := &Result{Title: "ignored", Data: map[string]int{"removed": 3}}

	assert.JSONEq(t, `{"removed": 3}`, format(t, "json", r))

	var decoded map[string]int
	require.NoError(t, yaml.Unmarshal([]byte(format(t, "yaml", r)), &decoded))
	assert.Equal(t, 3, decoded["removed"])
}

func TestYAMLFormatter(t *testing.T) {
	out := format(t, "yaml", sampleResult())

	assert.Contains(t, out, "title: Auto-optimize")
	assert.Contains(t, out, "name: RobloxPlayerBeta.exe")
	assert.Contains(t, out, "message: Some optimizations failed")
}

func TestCSVFormatter(t *testing.T) {
	r := &Result{Table: &Table{Columns: []string{"KEY", "VALUE"}, Rows: [][]string{{"a,b", "1"}}}}
	assert.Equal(t, "KEY,VALUE\n\"a,b\",1\n", format(t, "csv", r))

	f, _ := Get("csv")
	var buf bytes.Buffer
	assert.ErrorIs(t, f.Format(&buf, &Result{}), ErrNoTable)
}
