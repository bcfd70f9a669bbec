package autoaim

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// ErrEmptyTable is returned by Lookup on a table with no entries. An empty
// table is a calibration/configuration error, not a runtime condition;
// callers should fail at startup rather than retry.
var ErrEmptyTable = errors.New("interpolation table has no entries")

// Interpolatable values can blend toward another value of the same type at a
// fraction in [0, 1].
type Interpolatable[T any] interface {
	Interpolate(end T, t float64) T
}

// A Table maps a continuous scalar key to an interpolatable record. Keys are
// kept unique (last write wins) and sorted ascending. Population is expected
// to happen once at startup from a single writer; Lookup takes no locks and
// is safe for any number of concurrent readers once writes have quiesced.
type Table[V Interpolatable[V]] struct {
	keys []float64
	vals []V
}

// NewTable returns an empty table.
func NewTable[V Interpolatable[V]]() *Table[V] {
	return &Table[V]{}
}

// Insert upserts a record at the given key. Non-finite keys are rejected.
func (tb *Table[V]) Insert(key float64, val V) error {
	if math.IsNaN(key) || math.IsInf(key, 0) {
		return errors.Errorf("interpolation key must be finite, got %v", key)
	}
	i := sort.SearchFloat64s(tb.keys, key)
	if i < len(tb.keys) && tb.keys[i] == key {
		tb.vals[i] = val
		return nil
	}
	tb.keys = append(tb.keys, 0)
	tb.vals = append(tb.vals, val)
	copy(tb.keys[i+1:], tb.keys[i:])
	copy(tb.vals[i+1:], tb.vals[i:])
	tb.keys[i] = key
	tb.vals[i] = val
	return nil
}

// Lookup returns the record at key, interpolating between the two bracketing
// entries when the key falls between stored keys and clamping to the nearest
// stored record beyond either edge of the calibrated range.
func (tb *Table[V]) Lookup(key float64) (V, error) {
	var zero V
	if len(tb.keys) == 0 {
		return zero, ErrEmptyTable
	}
	i := sort.SearchFloat64s(tb.keys, key)
	if i < len(tb.keys) && tb.keys[i] == key {
		return tb.vals[i], nil
	}
	if i == 0 {
		// below the calibrated range: clamp, never extrapolate
		return tb.vals[0], nil
	}
	if i == len(tb.keys) {
		return tb.vals[len(tb.vals)-1], nil
	}
	floorKey, ceilKey := tb.keys[i-1], tb.keys[i]
	t := inverseInterpolate(floorKey, key, ceilKey)
	return tb.vals[i-1].Interpolate(tb.vals[i], t), nil
}

// Clear removes all entries. Used only during recalibration; must not
// overlap with concurrent readers.
func (tb *Table[V]) Clear() {
	tb.keys = nil
	tb.vals = nil
}

// Len returns the number of stored entries.
func (tb *Table[V]) Len() int {
	return len(tb.keys)
}

// inverseInterpolate returns the fraction of query between floor and ceil,
// clamped to [0, 1]. A non-positive span forces 0 so duplicate or inverted
// keys cannot produce a division artifact.
func inverseInterpolate(floor, query, ceil float64) float64 {
	span := ceil - floor
	if span <= 0 {
		return 0
	}
	t := (query - floor) / span
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
