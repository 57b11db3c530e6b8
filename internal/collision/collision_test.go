package collision

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestMatrix_Symmetric(t *testing.T) {
	m := NewMatrix()
	m.Set(3, 1, true)
	if !m.Get(1, 3) || !m.Get(3, 1) {
		t.Error("pair not visible in both orders")
	}
	if m.Get(1, 1) || m.Get(2, 3) {
		t.Error("unset pair reported set")
	}
	m.Set(1, 3, false)
	if m.Get(3, 1) || m.Len() != 0 {
		t.Error("clearing one order did not clear the pair")
	}
	m.Set(0, 0, true)
	m.Reset()
	if m.Len() != 0 {
		t.Errorf("len after reset = %d", m.Len())
	}
}

func TestMatrix_KeysDistinct(t *testing.T) {
	seen := map[int]Pair{}
	for i := 0; i < 40; i++ {
		for j := 0; j <= i; j++ {
			k := matrixKey(i, j)
			if p, ok := seen[k]; ok {
				t.Fatalf("key %d shared by %v and (%d,%d)", k, p, i, j)
			}
			seen[k] = Pair{i, j}
		}
	}
}

func TestOverlapKeeper_Diff(t *testing.T) {
	o := NewOverlapKeeper()
	o.Set(1, 2)
	o.Tick()
	o.Set(3, 2)
	o.Set(3, 1)
	o.Set(1, 3)

	adds, rems := o.Diff(nil, nil)
	if want := []Pair{{1, 3}, {2, 3}}; !reflect.DeepEqual(adds, want) {
		t.Errorf("additions = %v, want %v", adds, want)
	}
	if want := []Pair{{1, 2}}; !reflect.DeepEqual(rems, want) {
		t.Errorf("removals = %v, want %v", rems, want)
	}
}

func TestOverlapKeeper_SetKeepsOrder(t *testing.T) {
	o := NewOverlapKeeper()
	for _, p := range [][2]int{{5, 9}, {0, 1}, {9, 5}, {2, 3}, {0, 7}} {
		o.Set(p[0], p[1])
	}
	want := []Pair{{0, 1}, {0, 7}, {2, 3}, {5, 9}}
	if got := o.Current(); !reflect.DeepEqual(got, want) {
		t.Errorf("current = %v, want %v", got, want)
	}
}

func TestOverlapKeeper_LargeIDs(t *testing.T) {
	o := NewOverlapKeeper()
	o.Set(70001, 70000)
	o.Set(1, 65536)
	o.Tick()
	o.Set(70000, 70001)
	o.Set(0, 65536)

	adds, rems := o.Diff(nil, nil)
	if want := []Pair{{0, 65536}}; !reflect.DeepEqual(adds, want) {
		t.Errorf("additions = %v, want %v", adds, want)
	}
	if want := []Pair{{1, 65536}}; !reflect.DeepEqual(rems, want) {
		t.Errorf("removals = %v, want %v", rems, want)
	}
	if got := o.Current(); !reflect.DeepEqual(got, []Pair{{0, 65536}, {70000, 70001}}) {
		t.Errorf("current = %v", got)
	}
}

func TestOverlapKeeper_DiffIsSymmetricDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	randomSet := func() map[Pair]bool {
		s := map[Pair]bool{}
		for n := rng.Intn(30); n > 0; n-- {
			a, b := rng.Intn(12), rng.Intn(12)
			if a > b {
				a, b = b, a
			}
			s[Pair{a, b}] = true
		}
		return s
	}

	for trial := 0; trial < 100; trial++ {
		prev, cur := randomSet(), randomSet()
		o := NewOverlapKeeper()
		for p := range prev {
			o.Set(p.B, p.A)
		}
		o.Tick()
		for p := range cur {
			o.Set(p.A, p.B)
		}
		adds, rems := o.Diff(nil, nil)

		gotAdds := map[Pair]bool{}
		for _, p := range adds {
			gotAdds[p] = true
		}
		gotRems := map[Pair]bool{}
		for _, p := range rems {
			gotRems[p] = true
		}
		for p := range cur {
			if gotAdds[p] == prev[p] {
				t.Fatalf("trial %d: pair %v addition=%v, in previous=%v", trial, p, gotAdds[p], prev[p])
			}
		}
		for p := range prev {
			if gotRems[p] == cur[p] {
				t.Fatalf("trial %d: pair %v removal=%v, in current=%v", trial, p, gotRems[p], cur[p])
			}
		}
		if len(adds)+len(rems) != len(gotAdds)+len(gotRems) {
			t.Fatalf("trial %d: duplicate pairs in diff", trial)
		}
	}
}

func BenchmarkOverlapKeeper(b *testing.B) {
	o := NewOverlapKeeper()
	var adds, rems []Pair
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for k := 0; k < 200; k++ {
			o.Set(k, (k*7+i)%200)
		}
		adds, rems = o.Diff(adds[:0], rems[:0])
		o.Tick()
	}
}
