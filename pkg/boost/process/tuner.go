package process

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"syscall"
)

// Tuner applies native scheduling and memory operations through a Ref.
type Tuner interface {
	SetPriority(ref Ref, class PriorityClass) error
	TrimWorkingSet(ref Ref) error
	SetAffinity(ref Ref, mask uint64) error
}

// NativeTuner performs the host platform's calls. Operations the platform
// lacks fail with a *types.NativeAPIError wrapping types.ErrUnsupported.
type NativeTuner struct{}

// SetPriority implements Tuner.
func (NativeTuner) SetPriority(ref Ref, class PriorityClass) error {
	return setPriority(ref, class)
}

// TrimWorkingSet implements Tuner.
func (NativeTuner) TrimWorkingSet(ref Ref) error {
	return trimWorkingSet(ref)
}

// SetAffinity implements Tuner.
func (NativeTuner) SetAffinity(ref Ref, mask uint64) error {
	if mask == 0 {
		return fmt.Errorf("%w: empty affinity mask", ErrInvalidMask)
	}
	return setAffinity(ref, mask)
}

// ErrInvalidMask is returned for unparsable or empty CPU masks.
var ErrInvalidMask = errors.New("invalid cpu mask")

// ParseCPUMask accepts a hex mask ("0xF"), a decimal mask ("15") or a CPU
// list ("0-3,6").
func ParseCPUMask(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidMask)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		mask, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil || mask == 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMask, s)
		}
		return mask, nil
	}
	if !strings.ContainsAny(s, ",-") {
		mask, err := strconv.ParseUint(s, 10, 64)
		if err != nil || mask == 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMask, s)
		}
		return mask, nil
	}

	var mask uint64
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(strings.TrimSpace(part), "-")
		first, err := strconv.Atoi(lo)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMask, s)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(hi); err != nil {
				return 0, fmt.Errorf("%w: %q", ErrInvalidMask, s)
			}
		}
		if first < 0 || last < first || last > 63 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMask, s)
		}
		for cpu := first; cpu <= last; cpu++ {
			mask |= 1 << cpu
		}
	}
	return mask, nil
}

// FormatCPUMask renders a mask as a CPU list, e.g. "0-3,6".
func FormatCPUMask(mask uint64) string {
	var parts []string
	for mask != 0 {
		first := bits.TrailingZeros64(mask)
		run := bits.TrailingZeros64(^(mask >> first))
		last := first + run - 1
		if run == 1 {
			parts = append(parts, strconv.Itoa(first))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", first, last))
		}
		if last >= 63 {
			break
		}
		mask &^= (uint64(1)<<run - 1) << first
	}
	return strings.Join(parts, ",")
}

// errnoOf extracts the platform error code, 0 when there is none.
func errnoOf(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 0
}
