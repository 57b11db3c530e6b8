package scene

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/rigidsim/internal/dynamo"
)

var builtins = map[string]func() *Description{
	"box_on_plane":    boxOnPlane,
	"sphere_stack":    sphereStack,
	"box_stack":       boxStack,
	"pendulum_chain":  pendulumChain,
	"hinge_motor":     hingeMotor,
	"servo_arm":       servoArm,
	"terrain":         terrain,
	"mesh_drop":       meshDrop,
	"particles":       particles,
	"kinematic_sweep": kinematicSweep,
}

// Builtin returns a fresh copy of a registered scene.
func Builtin(name string) (*Description, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("scene %q: %w", name, dynamo.ErrUnknownScene)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ground() BodyDesc {
	return BodyDesc{Name: "ground", Shapes: []ShapeDesc{{Kind: "plane"}}}
}

func cube(half float64) ShapeDesc {
	return ShapeDesc{Kind: "box", HalfExtents: [3]float64{half, half, half}}
}

func ball(r float64) ShapeDesc {
	return ShapeDesc{Kind: "sphere", Radius: r}
}

func ptr[T any](v T) *T { return &v }

func boxOnPlane() *Description {
	return &Description{
		Name: "box_on_plane",
		Bodies: []BodyDesc{
			ground(),
			{Name: "box", Mass: 1, Position: [3]float64{0, 0, 1}, Shapes: []ShapeDesc{cube(0.5)}},
		},
	}
}

func sphereStack() *Description {
	return &Description{
		Name: "sphere_stack",
		Bodies: []BodyDesc{
			ground(),
			{
				Name: "ball", Mass: 1, Position: [3]float64{0, 0, 0.5},
				Shapes: []ShapeDesc{ball(0.5)},
				Repeat: &Repeat{Count: 5, Step: [3]float64{0, 0, 1.001}},
			},
		},
	}
}

func boxStack() *Description {
	return &Description{
		Name: "box_stack",
		Bodies: []BodyDesc{
			ground(),
			{
				Name: "box", Mass: 1, Position: [3]float64{0, 0, 0.5},
				Shapes: []ShapeDesc{cube(0.5)},
				Repeat: &Repeat{Count: 6, Step: [3]float64{0, 0, 1.001}},
			},
		},
	}
}

// pendulumChain hangs links of length 1 off a fixed anchor, laid out
// horizontally so the chain swings down. Neighbours are joined halfway
// between their centres.
func pendulumChain() *Description {
	const links = 4
	d := &Description{
		Name: "pendulum_chain",
		Bodies: []BodyDesc{
			{Name: "anchor", Position: [3]float64{0, 0, 6}, Shapes: []ShapeDesc{ball(0.1)}},
			{
				Name: "link", Mass: 1, Position: [3]float64{1, 0, 6},
				Shapes: []ShapeDesc{ball(0.2)},
				Repeat: &Repeat{Count: links, Step: [3]float64{1, 0, 0}},
			},
		},
	}
	prev := "anchor"
	for i := 0; i < links; i++ {
		name := fmt.Sprintf("link_%d", i)
		d.Constraints = append(d.Constraints, ConstraintDesc{
			Kind: "point_to_point", A: prev, B: name,
			PivotA: [3]float64{0.5, 0, 0}, PivotB: [3]float64{-0.5, 0, 0},
		})
		prev = name
	}
	return d
}

func hingeMotor() *Description {
	return &Description{
		Name: "hinge_motor",
		Bodies: []BodyDesc{
			ground(),
			{Name: "axle", Position: [3]float64{0, 0, 2}, Shapes: []ShapeDesc{cube(0.1)}},
			{
				Name: "wheel", Mass: 2, Position: [3]float64{0, 0, 2},
				Shapes: []ShapeDesc{{Kind: "cylinder", RadiusTop: 1, RadiusBottom: 1, Height: 0.2, Segments: 16}},
			},
		},
		Constraints: []ConstraintDesc{{
			Kind: "hinge", A: "axle", B: "wheel",
			AxisA: [3]float64{0, 0, 1}, AxisB: [3]float64{0, 0, 1},
			CollideConnected: ptr(false),
			Motor:            &MotorDesc{Speed: 3},
		}},
	}
}

// servoArm lifts an arm against gravity and holds it 45 degrees up.
func servoArm() *Description {
	return &Description{
		Name: "servo_arm",
		Bodies: []BodyDesc{
			ground(),
			{Name: "base", Position: [3]float64{0, 0, 1}, Shapes: []ShapeDesc{cube(0.2)}},
			{
				Name: "arm", Mass: 1, Position: [3]float64{0, 0, 1},
				Shapes: []ShapeDesc{{Kind: "box", HalfExtents: [3]float64{0.75, 0.1, 0.1}, Offset: [3]float64{1, 0, 0}}},
			},
		},
		Constraints: []ConstraintDesc{{
			Kind: "hinge", A: "base", B: "arm",
			AxisA: [3]float64{0, -1, 0}, AxisB: [3]float64{0, -1, 0},
			CollideConnected: ptr(false),
			Motor: &MotorDesc{
				MaxForce: 50,
				Servo:    &ServoDesc{Target: math.Pi / 4, Kp: 6, Ki: 0.5, Kd: 0.1, MaxSpeed: 4},
			},
		}},
	}
}

func terrain() *Description {
	const n = 16
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, n)
		for j := range data[i] {
			data[i][j] = 0.5 * math.Sin(float64(i)*0.6) * math.Cos(float64(j)*0.6)
		}
	}
	return &Description{
		Name: "terrain",
		Bodies: []BodyDesc{
			{
				Name: "terrain", Position: [3]float64{-7.5, -7.5, 0},
				Shapes: []ShapeDesc{{Kind: "heightfield", Data: data, ElementSize: 1}},
			},
			{
				Name: "ball", Mass: 1, Position: [3]float64{-3, -3, 3},
				Shapes: []ShapeDesc{ball(0.4)},
				Repeat: &Repeat{Count: 4, Step: [3]float64{2, 2, 0.5}},
			},
			{
				Name: "crate", Mass: 2, Position: [3]float64{2, -2, 3},
				Rotation: Rotation{Axis: [3]float64{1, 1, 0}, Angle: 0.4},
				Shapes:   []ShapeDesc{cube(0.4)},
			},
		},
	}
}

func meshDrop() *Description {
	return &Description{
		Name: "mesh_drop",
		Bodies: []BodyDesc{
			{
				Name: "ring", Position: [3]float64{0, 0, 0.5},
				Shapes: []ShapeDesc{{Kind: "torus", Radius: 2, Tube: 0.5, Segments: 12, TubularSegments: 16}},
			},
			ground(),
			{
				Name: "ball", Mass: 1, Position: [3]float64{2, 0, 3},
				Shapes: []ShapeDesc{ball(0.3)},
				Repeat: &Repeat{Count: 3, Step: [3]float64{-2, 0.5, 1}},
			},
			{Name: "box", Mass: 1, Position: [3]float64{0, 2, 4}, Shapes: []ShapeDesc{cube(0.3)}},
		},
	}
}

func particles() *Description {
	d := &Description{
		Name:   "particles",
		Bodies: []BodyDesc{ground()},
	}
	for i := 0; i < 5; i++ {
		d.Bodies = append(d.Bodies, BodyDesc{
			Name: fmt.Sprintf("drop%d", i), Mass: 0.1,
			Position: [3]float64{float64(i) - 2, -2, 2 + 0.3*float64(i)},
			Shapes:   []ShapeDesc{{Kind: "particle"}},
			Repeat:   &Repeat{Count: 5, Step: [3]float64{0, 1, 0}},
		})
	}
	d.Bodies = append(d.Bodies, BodyDesc{
		Name: "catcher", Position: [3]float64{0, 0, 0.25},
		Shapes: []ShapeDesc{{Kind: "box", HalfExtents: [3]float64{1, 1, 0.25}}},
	})
	return d
}

func kinematicSweep() *Description {
	return &Description{
		Name: "kinematic_sweep",
		Bodies: []BodyDesc{
			ground(),
			{
				Name: "pusher", Type: "kinematic", Position: [3]float64{-6, 0, 0.5},
				Velocity: [3]float64{2, 0, 0},
				Shapes:   []ShapeDesc{{Kind: "box", HalfExtents: [3]float64{0.25, 2, 0.5}}},
			},
			{
				Name: "box", Mass: 1, Position: [3]float64{-2, -1.5, 0.5},
				Shapes: []ShapeDesc{cube(0.4)},
				Repeat: &Repeat{Count: 4, Step: [3]float64{0, 1, 0}},
			},
		},
	}
}
