// Package analysis turns recorded frames into summaries of how bodies moved.
//
//   - [PowerSpectrum] and [DominantFrequency]: spectrum of a sampled series,
//     such as a body's height, via go-dsp
//   - [Summarize]: rest time, peak height and bounce count for one body
//   - [NewPhasePortrait]: position against velocity along one axis
//   - [Separation] and [DivergenceRate]: how fast two runs of the same scene
//     drift apart
//
// A ball dropped on a bouncy plane, for example:
//
//	z := analysis.Series(result.Frames, ball, analysis.AxisZ)
//	f := analysis.DominantFrequency(z, dt)
package analysis
