// Package dynamo provides the shared primitives of the rigid-body engine.
//
// It holds the pieces every other package leans on:
//
//   - sentinel errors and [SimulationError]
//   - small vector and quaternion helpers over mgl64 ([Unit], [Tangents], [IntegrateQuat])
//   - [ParallelFor] for chunked fan-out over independent work items
//
// All vector math is float64 and uses github.com/go-gl/mathgl/mgl64 values.
// Helpers never mutate their arguments; they return new values.
//
// # Thread Safety
//
// Everything in this package is stateless and safe for concurrent use.
// Engine objects built on top of it (worlds, bodies, solvers) are NOT
// thread-safe; run independent worlds in separate goroutines instead.
package dynamo
