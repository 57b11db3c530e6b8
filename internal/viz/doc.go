// Package viz draws rigid-body worlds in the terminal.
//
// Shapes are turned into a [Wireframe] of world-space edges, projected
// through an orbiting [Camera] and rasterised onto a braille [Canvas]. The
// live view ([Model], [RunLive]) and the scene picker ([RunInteractive]) are
// Bubble Tea programs.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	. n     - Single step
//	R       - Rebuild the scene
//	HJKL    - Orbit the camera
//	+ -     - Zoom
//	P       - Push the body in the middle of the view
//	[ ]     - Replay recent history
//	G       - Toggle GIF recording
//	T       - Cycle themes
//	?       - Help
package viz
