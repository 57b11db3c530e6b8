package narrowphase

import "github.com/san-kum/rigidsim/internal/physics"

// kindPair is an unordered pair of shape kinds, lower kind first.
type kindPair struct {
	lo, hi physics.ShapeKind
}

func kindsOf(a, b physics.ShapeKind) kindPair {
	if a > b {
		a, b = b, a
	}
	return kindPair{a, b}
}

// handler generates contacts for p, whose si has the lower kind. It reports
// whether the shapes touch.
type handler func(n *Narrowphase, p *pair) bool

var handlers = map[kindPair]handler{
	{physics.KindSphere, physics.KindSphere}:      sphereSphere,
	{physics.KindSphere, physics.KindPlane}:       spherePlane,
	{physics.KindSphere, physics.KindBox}:         sphereBox,
	{physics.KindSphere, physics.KindConvex}:      sphereConvex,
	{physics.KindSphere, physics.KindParticle}:    sphereParticle,
	{physics.KindSphere, physics.KindHeightfield}: sphereHeightfield,
	{physics.KindSphere, physics.KindTrimesh}:     sphereTrimesh,

	{physics.KindPlane, physics.KindBox}:      planeBox,
	{physics.KindPlane, physics.KindConvex}:   planeConvex,
	{physics.KindPlane, physics.KindParticle}: planeParticle,
	{physics.KindPlane, physics.KindTrimesh}:  planeTrimesh,

	{physics.KindBox, physics.KindBox}:         boxBox,
	{physics.KindBox, physics.KindConvex}:      boxConvex,
	{physics.KindBox, physics.KindParticle}:    boxParticle,
	{physics.KindBox, physics.KindHeightfield}: boxHeightfield,

	{physics.KindConvex, physics.KindConvex}:      convexConvex,
	{physics.KindConvex, physics.KindParticle}:    convexParticle,
	{physics.KindConvex, physics.KindHeightfield}: convexHeightfield,
}

// Supports reports whether contacts are generated between the two kinds.
func Supports(a, b physics.ShapeKind) bool {
	_, ok := handlers[kindsOf(a, b)]
	return ok
}
