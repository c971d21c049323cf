// Package samples persists process snapshots taken by the live monitor so
// resource usage can be reviewed after the session ends.
package samples

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"time"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

// KeySeparator separates the target name from the timestamp in keys.
const KeySeparator = '\x00'

// Sample is the stored form of a types.ProcessSnapshot.
type Sample struct {
	PID         int32
	Name        string
	Package     string
	MemoryBytes uint64
	CPUPercent  float64
	Running     bool
	SampledAt   int64 // UnixNano
}

// FromSnapshot converts a snapshot for storage.
func FromSnapshot(s types.ProcessSnapshot) Sample {
	return Sample{
		PID:         s.PID,
		Name:        s.Name,
		Package:     s.Package,
		MemoryBytes: s.MemoryBytes,
		CPUPercent:  s.CPUPercent,
		Running:     s.Running,
		SampledAt:   s.SampledAt.UnixNano(),
	}
}

// Snapshot converts back to a types.ProcessSnapshot.
func (s Sample) Snapshot() types.ProcessSnapshot {
	return types.ProcessSnapshot{
		ProcessDescriptor: types.ProcessDescriptor{PID: s.PID, Name: s.Name, Package: s.Package},
		MemoryBytes:       s.MemoryBytes,
		CPUPercent:        s.CPUPercent,
		Running:           s.Running,
		SampledAt:         time.Unix(0, s.SampledAt),
	}
}

// Encode serializes the sample using gob.
func (s *Sample) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes a gob-encoded sample.
func (s *Sample) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(s)
}

// MakeKey builds <name>\x00<big-endian unix nanos>, so keys of one target
// sort by time.
func MakeKey(name string, at time.Time) []byte {
	key := make([]byte, 0, len(name)+9)
	key = append(key, name...)
	key = append(key, KeySeparator)
	return binary.BigEndian.AppendUint64(key, uint64(at.UnixNano()))
}

// MakeKeyPrefix returns the prefix of every key for name.
func MakeKeyPrefix(name string) []byte {
	return append([]byte(name), KeySeparator)
}

// ParseKey splits a key into target name and timestamp.
func ParseKey(key []byte) (string, time.Time, bool) {
	idx := bytes.IndexByte(key, KeySeparator)
	if idx == -1 || len(key)-idx-1 != 8 {
		return "", time.Time{}, false
	}
	nanos := binary.BigEndian.Uint64(key[idx+1:])
	return string(key[:idx]), time.Unix(0, int64(nanos)), true
}
