// Package control closes feedback loops around joints.
//
//   - [PID]: Proportional-Integral-Derivative controller on one scalar
//   - [Servo]: drives a hinge motor so the hinge holds a target angle
//
// # Usage
//
//	servo := control.NewServo(hinge, control.NewPID(8, 0.5, 0.2, math.Pi/4), 6)
//	off := servo.Attach(w)
//	defer off()
//	// Update runs on every preStep event
//
// PID gains and the target can be changed between steps with Set.
package control
