package collision

// Matrix is a sparse symmetric boolean table over body indices.
type Matrix struct {
	cells map[int]bool
}

func NewMatrix() *Matrix {
	return &Matrix{cells: make(map[int]bool)}
}

func matrixKey(i, j int) int {
	if j > i {
		i, j = j, i
	}
	return i*(i+1)/2 + j
}

func (m *Matrix) Get(i, j int) bool {
	return m.cells[matrixKey(i, j)]
}

func (m *Matrix) Set(i, j int, value bool) {
	if m.cells == nil {
		m.cells = make(map[int]bool)
	}
	k := matrixKey(i, j)
	if value {
		m.cells[k] = true
	} else {
		delete(m.cells, k)
	}
}

func (m *Matrix) Reset() {
	clear(m.cells)
}

// Len is the number of set pairs.
func (m *Matrix) Len() int { return len(m.cells) }
