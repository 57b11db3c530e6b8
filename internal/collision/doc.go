// Package collision keeps the pairwise bookkeeping that turns per-step
// contact sets into begin and end events: a triangular collision matrix
// indexed by body index and an overlap keeper of packed id pairs.
package collision
