package solver

import (
	"sort"

	"github.com/san-kum/rigidsim/internal/equation"
	"github.com/san-kum/rigidsim/internal/physics"
)

// Split partitions bodies into islands connected by equations and solves
// each island with Sub. Static bodies never join an island, so a shared
// ground does not merge the piles resting on it.
type Split struct {
	Queue
	Iterations int
	Tolerance  float64
	Sub        Solver

	nodes     []node
	queue     []*node
	island    bodyList
	islandEqs []equation.Equation
	seen      map[equation.Equation]bool
}

type node struct {
	body     *physics.Body
	children []*node
	eqs      []equation.Equation
	visited  bool
}

// NewSplit wraps sub, a GS solver when nil.
func NewSplit(sub Solver) *Split {
	if sub == nil {
		sub = NewGS()
	}
	return &Split{
		Iterations: 10,
		Tolerance:  1e-7,
		Sub:        sub,
		seen:       make(map[equation.Equation]bool),
	}
}

// Solve returns the number of islands solved.
func (s *Split) Solve(dt float64, w World) int {
	bodies := w.Bodies()
	if cap(s.nodes) < len(bodies) {
		s.nodes = make([]node, len(bodies))
	}
	s.nodes = s.nodes[:len(bodies)]
	index := make(map[*physics.Body]int, len(bodies))
	for i, b := range bodies {
		n := &s.nodes[i]
		n.body = b
		n.children = n.children[:0]
		n.eqs = n.eqs[:0]
		n.visited = false
		index[b] = i
	}
	for _, eq := range s.eqs {
		base := eq.Base()
		i, okI := index[base.Bi]
		j, okJ := index[base.Bj]
		if !okI || !okJ {
			continue
		}
		ni, nj := &s.nodes[i], &s.nodes[j]
		ni.children = append(ni.children, nj)
		ni.eqs = append(ni.eqs, eq)
		nj.children = append(nj.children, ni)
		nj.eqs = append(nj.eqs, eq)
	}

	if gs, ok := s.Sub.(*GS); ok {
		gs.Iterations = s.Iterations
		gs.Tolerance = s.Tolerance
	}

	islands := 0
	for root := unvisited(s.nodes); root != nil; root = unvisited(s.nodes) {
		s.collect(root)
		eqs := s.islandEqs
		sort.SliceStable(eqs, func(a, b int) bool {
			return eqs[a].Base().ID > eqs[b].Base().ID
		})
		for _, eq := range eqs {
			s.Sub.AddEquation(eq)
		}
		s.Sub.Solve(dt, s.island)
		s.Sub.RemoveAllEquations()
		islands++
	}
	return islands
}

func unvisited(nodes []node) *node {
	for i := range nodes {
		n := &nodes[i]
		if !n.visited && n.body.Type != physics.Static {
			return n
		}
	}
	return nil
}

// collect runs a BFS from root, gathering the island's bodies and its
// unique equations.
func (s *Split) collect(root *node) {
	s.island = s.island[:0]
	s.islandEqs = s.islandEqs[:0]
	if s.seen == nil {
		s.seen = make(map[equation.Equation]bool)
	}
	clear(s.seen)
	visit := func(n *node) {
		n.visited = true
		s.island = append(s.island, n.body)
		for _, eq := range n.eqs {
			if !s.seen[eq] {
				s.seen[eq] = true
				s.islandEqs = append(s.islandEqs, eq)
			}
		}
	}

	s.queue = append(s.queue[:0], root)
	visit(root)
	for len(s.queue) > 0 {
		n := s.queue[len(s.queue)-1]
		s.queue = s.queue[:len(s.queue)-1]
		for _, c := range n.children {
			if !c.visited && c.body.Type != physics.Static {
				visit(c)
				s.queue = append(s.queue, c)
			}
		}
	}
}
