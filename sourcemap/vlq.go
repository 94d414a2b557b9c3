package sourcemap

import (
	"errors"
	"fmt"
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Each base64 digit carries five payload bits and a continuation bit.
const (
	vlqBaseShift    = 5
	vlqBase         = 1 << vlqBaseShift
	vlqBaseMask     = vlqBase - 1
	vlqContinuation = vlqBase

	// a VLQ value must fit in a signed 32 bit integer once the sign bit is
	// dropped, so at most 7 digits are ever needed
	vlqMaxDigits = 7
	vlqMaxValue  = 1<<32 - 1
)

// Errors returned while reading a single VLQ value. They are wrapped into
// InvalidSourceMap errors by DecodeMappings.
var (
	ErrInvalidVLQ   = errors.New("invalid base64 VLQ character")
	ErrTruncatedVLQ = errors.New("truncated base64 VLQ value")
	ErrVLQOverflow  = errors.New("base64 VLQ value overflows 32 bits")
)

//nolint:gochecknoglobals
var base64Values = func() (t [256]int8) {
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(base64Chars); i++ {
		t[base64Chars[i]] = int8(i)
	}
	return t
}()

// decodeVLQ reads one VLQ value from s starting at pos. It returns the value
// and the position right after it.
func decodeVLQ(s string, pos int) (int, int, error) {
	var (
		result int64
		shift  uint
	)
	for digits := 0; ; digits++ {
		if pos >= len(s) {
			return 0, pos, ErrTruncatedVLQ
		}
		if digits == vlqMaxDigits {
			return 0, pos, ErrVLQOverflow
		}
		c := s[pos]
		digit := base64Values[c]
		if digit < 0 {
			return 0, pos, fmt.Errorf("%w %q at offset %d", ErrInvalidVLQ, c, pos)
		}
		pos++
		result += int64(digit&vlqBaseMask) << shift
		if digit&vlqContinuation == 0 {
			break
		}
		shift += vlqBaseShift
	}
	if result > vlqMaxValue {
		return 0, pos, ErrVLQOverflow
	}

	if result&1 == 1 {
		return int(-(result >> 1)), pos, nil
	}
	return int(result >> 1), pos, nil
}

// EncodeVLQ appends the base64 VLQ encoding of v to dst and returns the
// extended slice.
func EncodeVLQ(dst []byte, v int) []byte {
	var u uint64
	if v < 0 {
		u = uint64(-v)<<1 | 1
	} else {
		u = uint64(v) << 1
	}
	for {
		digit := u & vlqBaseMask
		u >>= vlqBaseShift
		if u > 0 {
			digit |= vlqContinuation
		}
		dst = append(dst, base64Chars[digit])
		if u == 0 {
			return dst
		}
	}
}
