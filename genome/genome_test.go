package genome

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/creatures/neural"
)

const testLength = 16

func TestNewRandomLength(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, n := range []int{0, 1, testLength, 64} {
		if g := NewRandom(rng, n); len(g) != n {
			t.Errorf("NewRandom(%d) has %d genes", n, len(g))
		}
	}
}

func TestMutatePreservesLength(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	g := NewRandom(rng, testLength)
	for _, mode := range []MutationMode{MutateReplace, MutateBitFlip} {
		for _, rate := range []float64{0, 0.01, 0.5, 1} {
			if m := Mutate(g, rate, mode, rng); len(m) != testLength {
				t.Errorf("Mutate(rate=%v, mode=%s) has %d genes", rate, mode, len(m))
			}
		}
	}
}

func TestMutateRateZeroIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for i := 0; i < 50; i++ {
		g := NewRandom(rng, testLength)
		if m := Mutate(g, 0, MutateReplace, rng); !m.Equal(g) {
			t.Fatalf("Mutate(g, 0) changed the genome:\n%s\n%s", g, m)
		}
	}
}

func TestMutateDoesNotAlias(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	g := NewRandom(rng, testLength)
	orig := g.Clone()

	m := Mutate(g, 1, MutateReplace, rng)
	if !g.Equal(orig) {
		t.Error("Mutate modified its input")
	}

	m0 := Mutate(g, 0, MutateReplace, rng)
	m0[0] = Gene{Source: 1, Sink: 2, Weight: 3}
	if !g.Equal(orig) {
		t.Error("rate 0 result aliases the input")
	}
	_ = m
}

func TestMutateRateOneRerandomizes(t *testing.T) {
	rng := rand.New(rand.NewPCG(99, 1))
	const trials = 200

	changed, total := 0, 0
	for i := 0; i < trials; i++ {
		g := NewRandom(rng, testLength)
		m := Mutate(g, 1, MutateReplace, rng)
		for j := range g {
			total++
			if m[j] != g[j] {
				changed++
			}
		}
	}

	// A redrawn 32-bit gene matches the old value with probability 2^-32.
	if float64(changed)/float64(total) < 0.999 {
		t.Errorf("rate 1 changed %d/%d genes", changed, total)
	}
}

func TestMutateBitFlipChangesEveryGeneAtRateOne(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))
	g := NewRandom(rng, testLength)
	m := Mutate(g, 1, MutateBitFlip, rng)
	for i := range g {
		if m[i] == g[i] {
			t.Errorf("gene %d unchanged by bit flip", i)
		}
	}
}

func TestMutateRateStatistics(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	const (
		rate   = 0.1
		trials = 2000
	)
	g := NewRandom(rng, testLength)

	changed := 0
	for i := 0; i < trials; i++ {
		m := Mutate(g, rate, MutateReplace, rng)
		for j := range g {
			if m[j] != g[j] {
				changed++
			}
		}
	}

	got := float64(changed) / float64(trials*testLength)
	if got < 0.08 || got > 0.12 {
		t.Errorf("observed mutation fraction %.3f, want ~%.2f", got, rate)
	}
}

func TestValidate(t *testing.T) {
	g := make(Genome, testLength)
	if err := Validate(g, testLength); err != nil {
		t.Errorf("Validate: %v", err)
	}
	err := Validate(g[:3], testLength)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Validate(short) = %v, want ErrLengthMismatch", err)
	}
}

func TestGenomeStringParse(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 0))
	g := NewRandom(rng, testLength)

	parsed, err := Parse(g.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !parsed.Equal(g) {
		t.Errorf("Parse(String()) = %s, want %s", parsed, g)
	}

	if _, err := Parse("00000000 nothex00"); err == nil {
		t.Error("Parse accepted invalid gene")
	}
}

func TestFingerprint(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 8))
	a := NewRandom(rng, testLength)
	b := a.Clone()
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal genomes have different fingerprints")
	}
	b[3] = b[3].FlipBit(0)
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("different genomes share a fingerprint")
	}
}

func TestDecodeMoveDeterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	layout := neural.DefaultLayout()
	s := neural.State{X: 40, Y: 70, Width: 128, Height: 128, Tick: 12, Steps: 12, Iterations: 1000, OscPeriod: 32}

	for i := 0; i < 100; i++ {
		g := NewRandom(rng, testLength)
		m1 := DecodeMove(g, layout, s)
		m2 := DecodeMove(g.Clone(), layout, s)
		if m1 != m2 {
			t.Fatalf("DecodeMove not deterministic: %+v != %+v", m1, m2)
		}
		if m3 := g.Brain(layout).Move(s); m3 != m1 {
			t.Fatalf("compiled brain disagrees with DecodeMove: %+v != %+v", m3, m1)
		}
		if m1.DX < -1 || m1.DX > 1 || m1.DY < -1 || m1.DY > 1 {
			t.Fatalf("move out of range: %+v", m1)
		}
	}
}

func TestDecodeMoveDirectWiring(t *testing.T) {
	// bias -> move_x with weight +1
	g := Genome{{Source: neural.InputBias, Sink: 0x80 | neural.OutputMoveX, Weight: 8192}}
	m := DecodeMove(g, neural.DefaultLayout(), neural.State{Width: 10, Height: 10})
	if m.DX <= 0.5 || m.DY != 0 {
		t.Errorf("DecodeMove = %+v, want positive DX and zero DY", m)
	}
}
