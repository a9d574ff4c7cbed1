package neural

import "math"

// Sensor indices into the input vector.
const (
	InputLocX = iota
	InputLocY
	InputEdgeDistX
	InputEdgeDistY
	InputAge
	InputOscSin
	InputOscCos
	InputBias

	NumInputs
)

// Output indices.
const (
	OutputMoveX = iota
	OutputMoveY

	NumOutputs
)

var inputNames = [NumInputs]string{
	"loc_x", "loc_y", "edge_dist_x", "edge_dist_y", "age", "osc_sin", "osc_cos", "bias",
}

var outputNames = [NumOutputs]string{"move_x", "move_y"}

// InputName returns the sensor name for index i.
func InputName(i int) string {
	if i < 0 || i >= NumInputs {
		return "?"
	}
	return inputNames[i]
}

// OutputName returns the actuator name for index i.
func OutputName(i int) string {
	if i < 0 || i >= NumOutputs {
		return "?"
	}
	return outputNames[i]
}

// State is everything a creature can perceive on a given tick.
// It carries no references to other creatures.
type State struct {
	X, Y          float32 // position in world units
	Width, Height float32 // world bounds
	Tick          int32   // world tick within the generation
	Steps         int32   // steps taken by the creature
	Iterations    int32   // ticks per generation
	OscPeriod     int32   // oscillator period in ticks (<=0 disables)
}

// Inputs fills the sensor vector for s.
// Position sensors are in [0,1], edge distances in [0,1] (1 = centre line), age in [0,1].
func (s State) Inputs() [NumInputs]float32 {
	var in [NumInputs]float32

	if s.Width > 0 {
		in[InputLocX] = s.X / s.Width
		in[InputEdgeDistX] = edgeDistance(s.X, s.Width)
	}
	if s.Height > 0 {
		in[InputLocY] = s.Y / s.Height
		in[InputEdgeDistY] = edgeDistance(s.Y, s.Height)
	}
	if s.Iterations > 0 {
		in[InputAge] = saturate01(float32(s.Steps) / float32(s.Iterations))
	}
	if s.OscPeriod > 0 {
		phase := 2 * math.Pi * float64(s.Tick%s.OscPeriod) / float64(s.OscPeriod)
		in[InputOscSin] = float32(math.Sin(phase))
		in[InputOscCos] = float32(math.Cos(phase))
	}
	in[InputBias] = 1

	return in
}

// edgeDistance is the distance to the nearest edge normalized by half the extent.
func edgeDistance(v, extent float32) float32 {
	half := extent / 2
	d := v
	if extent-v < d {
		d = extent - v
	}
	return saturate01(d / half)
}

// saturate01 clamps x to [0, 1].
func saturate01(x float32) float32 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return x
}
