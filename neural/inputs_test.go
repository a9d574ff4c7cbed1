package neural

import (
	"math"
	"testing"
)

func TestStateInputs(t *testing.T) {
	s := State{X: 25, Y: 100, Width: 100, Height: 200, Tick: 0, Steps: 250, Iterations: 1000, OscPeriod: 4}
	in := s.Inputs()

	tests := []struct {
		name  string
		index int
		want  float32
	}{
		{"loc_x", InputLocX, 0.25},
		{"loc_y", InputLocY, 0.5},
		{"edge_dist_x", InputEdgeDistX, 0.5},
		{"edge_dist_y", InputEdgeDistY, 1},
		{"age", InputAge, 0.25},
		{"osc_sin", InputOscSin, 0},
		{"osc_cos", InputOscCos, 1},
		{"bias", InputBias, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(float64(in[tt.index]-tt.want)) > 1e-5 {
				t.Errorf("input %s = %f, want %f", tt.name, in[tt.index], tt.want)
			}
		})
	}
}

func TestStateInputsOscillatorPhase(t *testing.T) {
	s := State{Width: 10, Height: 10, Tick: 1, OscPeriod: 4}
	in := s.Inputs()
	if math.Abs(float64(in[InputOscSin]-1)) > 1e-5 {
		t.Errorf("osc_sin at quarter period = %f, want 1", in[InputOscSin])
	}

	s.Tick = 5 // wraps to the same phase
	if got := s.Inputs(); got != in {
		t.Errorf("oscillator does not wrap: %v != %v", got, in)
	}
}

func TestStateInputsZeroBounds(t *testing.T) {
	in := State{}.Inputs()
	for i, v := range in {
		if i == InputBias {
			continue
		}
		if v != 0 {
			t.Errorf("input %s = %f with zero state, want 0", InputName(i), v)
		}
	}
	if in[InputBias] != 1 {
		t.Errorf("bias = %f, want 1", in[InputBias])
	}
}

func TestInputAndOutputNames(t *testing.T) {
	if InputName(NumInputs) != "?" || OutputName(-1) != "?" {
		t.Error("out of range names should be ?")
	}
	if OutputName(OutputMoveY) != "move_y" {
		t.Errorf("OutputName(OutputMoveY) = %q", OutputName(OutputMoveY))
	}
}
