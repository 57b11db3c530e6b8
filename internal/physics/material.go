package physics

import "sync/atomic"

var materialIDs atomic.Int64

// Material describes surface properties. A negative Friction or Restitution
// means "unset" and defers to the contact material.
type Material struct {
	ID          int
	Name        string
	Friction    float64
	Restitution float64
}

func NewMaterial(name string) *Material {
	return &Material{
		ID:          int(materialIDs.Add(1) - 1),
		Name:        name,
		Friction:    -1,
		Restitution: -1,
	}
}

// ContactMaterial defines what happens when two materials meet.
type ContactMaterial struct {
	ID                         int
	Materials                  [2]*Material
	Friction                   float64
	Restitution                float64
	ContactEquationStiffness   float64
	ContactEquationRelaxation  float64
	FrictionEquationStiffness  float64
	FrictionEquationRelaxation float64
}

var contactMaterialIDs atomic.Int64

func NewContactMaterial(m1, m2 *Material) *ContactMaterial {
	return &ContactMaterial{
		ID:                         int(contactMaterialIDs.Add(1) - 1),
		Materials:                  [2]*Material{m1, m2},
		Friction:                   0.3,
		Restitution:                0.3,
		ContactEquationStiffness:   1e7,
		ContactEquationRelaxation:  3,
		FrictionEquationStiffness:  1e7,
		FrictionEquationRelaxation: 3,
	}
}

type materialKey struct{ lo, hi int }

func keyFor(a, b *Material) materialKey {
	i, j := a.ID, b.ID
	if i > j {
		i, j = j, i
	}
	return materialKey{i, j}
}

// ContactMaterialTable looks up contact materials by unordered material pair.
type ContactMaterialTable struct {
	byPair map[materialKey]*ContactMaterial
	all    []*ContactMaterial
}

func NewContactMaterialTable() *ContactMaterialTable {
	return &ContactMaterialTable{byPair: make(map[materialKey]*ContactMaterial)}
}

// Add registers cm, replacing any earlier entry for the same pair.
func (t *ContactMaterialTable) Add(cm *ContactMaterial) {
	if cm.Materials[0] == nil || cm.Materials[1] == nil {
		return
	}
	k := keyFor(cm.Materials[0], cm.Materials[1])
	if old, ok := t.byPair[k]; ok {
		for i, c := range t.all {
			if c == old {
				t.all = append(t.all[:i], t.all[i+1:]...)
				break
			}
		}
	}
	t.byPair[k] = cm
	t.all = append(t.all, cm)
}

// Get returns the contact material for (a, b) in either order, or nil.
func (t *ContactMaterialTable) Get(a, b *Material) *ContactMaterial {
	if a == nil || b == nil {
		return nil
	}
	return t.byPair[keyFor(a, b)]
}

func (t *ContactMaterialTable) All() []*ContactMaterial { return t.all }
