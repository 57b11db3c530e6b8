// Package physics provides the rigid bodies and collision shapes of the engine.
//
// A [Body] carries mass, pose, velocities, and force accumulators, plus an
// ordered list of attached shapes, each with a local offset and orientation.
// Shapes implement the [Shape] interface:
//
//   - [Sphere], [Plane], [Particle]: analytic primitives
//   - [Box]: half extents plus a cached [ConvexPolyhedron] representation
//   - [ConvexPolyhedron]: vertex/face tables, face normals, unique edges
//   - [NewCylinder]: a cylinder approximated as a convex polyhedron
//   - [Heightfield]: a regular grid of heights, collided as convex pillars
//   - [Trimesh]: an indexed triangle mesh
//
// Convex hulls also implement the separating-axis test and face clipping
// ([ConvexPolyhedron.FindSeparatingAxis], [ConvexPolyhedron.ClipAgainstHull])
// used by the narrowphase.
//
// # Frames
//
// A shape's world pose is derived from its body:
//
//	xi := body.Position.Add(body.Quaternion.Rotate(body.ShapeOffsets[i]))
//	qi := body.Quaternion.Mul(body.ShapeOrientations[i])
//
// # Thread Safety
//
// Bodies and shapes are NOT thread-safe. A shape belongs to exactly one body,
// and a body to at most one world; only the world's stepping goroutine may
// mutate them.
package physics
