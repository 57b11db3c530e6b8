package collision

import "sort"

// Pair is an unordered id pair with A <= B.
type Pair struct {
	A, B int
}

// OverlapKeeper records which id pairs overlapped this step and last step.
// Keys are kept sorted so the diff is a linear merge. Ids must fit in 32
// bits.
type OverlapKeeper struct {
	current  []uint64
	previous []uint64
}

func NewOverlapKeeper() *OverlapKeeper {
	return &OverlapKeeper{}
}

// Key packs an unordered pair as (min<<32)|max.
func Key(i, j int) uint64 {
	if j < i {
		i, j = j, i
	}
	return uint64(uint32(i))<<32 | uint64(uint32(j))
}

func unpack(k uint64) Pair {
	return Pair{A: int(k >> 32), B: int(k & 0xFFFFFFFF)}
}

// Set marks the pair as overlapping in the current step.
func (o *OverlapKeeper) Set(i, j int) {
	k := Key(i, j)
	idx := sort.Search(len(o.current), func(n int) bool { return o.current[n] >= k })
	if idx < len(o.current) && o.current[idx] == k {
		return
	}
	o.current = append(o.current, 0)
	copy(o.current[idx+1:], o.current[idx:])
	o.current[idx] = k
}

// Tick makes the current set the previous one and starts an empty current set.
func (o *OverlapKeeper) Tick() {
	o.current, o.previous = o.previous, o.current
	o.current = o.current[:0]
}

// Diff appends the pairs new this step to additions and the pairs gone since
// last step to removals.
func (o *OverlapKeeper) Diff(additions, removals []Pair) ([]Pair, []Pair) {
	return appendMissing(additions, o.current, o.previous), appendMissing(removals, o.previous, o.current)
}

// appendMissing appends the keys of a (sorted) that are absent from b (sorted).
func appendMissing(dst []Pair, a, b []uint64) []Pair {
	j := 0
	for _, k := range a {
		for j < len(b) && b[j] < k {
			j++
		}
		if j >= len(b) || b[j] != k {
			dst = append(dst, unpack(k))
		}
	}
	return dst
}

// Current returns the pairs recorded this step in key order.
func (o *OverlapKeeper) Current() []Pair {
	out := make([]Pair, len(o.current))
	for i, k := range o.current {
		out[i] = unpack(k)
	}
	return out
}
