package operators

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, expected, actual float64, msg string) {
	t.Helper()
	if math.Abs(expected-actual) > 1e-9 {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

func TestBinaryPrimitives(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(a, b float64) float64
		a, b     float64
		expected float64
	}{
		{"Mul", Mul, 3, 4, 12},
		{"Mul zero", Mul, 3, 0, 0},
		{"Add", Add, 3, 4, 7},
		{"Add negative", Add, 3, -4, -1},
		{"Lt true", Lt, 1, 2, 1},
		{"Lt false", Lt, 2, 1, 0},
		{"Lt equal", Lt, 2, 2, 0},
		{"Gt true", Gt, 2, 1, 1},
		{"Gt false", Gt, 1, 2, 0},
		{"Eq true", Eq, 2, 2, 1},
		{"Eq false", Eq, 2, 3, 0},
		{"Max left", Max, 5, 2, 5},
		{"Max right", Max, 2, 5, 5},
		{"IsClose yes", IsClose, 1.0, 1.005, 1},
		{"IsClose no", IsClose, 1.0, 1.5, 0},
	}

	for _, tt := range tests {
		if got := tt.fn(tt.a, tt.b); got != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestUnaryPrimitives(t *testing.T) {
	assertClose(t, 5, ID(5), "ID")
	assertClose(t, -5, Neg(5), "Neg")
	assertClose(t, 5, Neg(-5), "Neg negative")
	assertClose(t, 0.5, Sigmoid(0), "Sigmoid(0)")
	assertClose(t, 3, ReLU(3), "ReLU positive")
	assertClose(t, 0, ReLU(-3), "ReLU negative")
	assertClose(t, 0, Log(1), "Log(1)")
	assertClose(t, 1, Exp(0), "Exp(0)")
	assertClose(t, 0.25, Inv(4), "Inv")
}

// Sigmoid must stay finite and monotone far from zero; the split form
// exists exactly for these inputs.
func TestSigmoidStability(t *testing.T) {
	if got := Sigmoid(1000); got != 1.0 {
		t.Errorf("Sigmoid(1000) = %v, want 1.0", got)
	}
	if got := Sigmoid(-1000); got != 0.0 {
		t.Errorf("Sigmoid(-1000) = %v, want 0.0", got)
	}
	if math.IsNaN(Sigmoid(-1000)) || math.IsInf(Sigmoid(-1000), 0) {
		t.Error("Sigmoid(-1000) is not finite")
	}
	// Symmetry: sigmoid(-x) = 1 - sigmoid(x).
	for _, x := range []float64{0.1, 1, 5, 20} {
		assertClose(t, 1-Sigmoid(x), Sigmoid(-x), "Sigmoid symmetry")
	}
}

func TestDerivativeHelpers(t *testing.T) {
	assertClose(t, 2.0/3.0, LogBack(3, 2), "LogBack")
	assertClose(t, -2.0/9.0, InvBack(3, 2), "InvBack")
	assertClose(t, 7, ReLUBack(2, 7), "ReLUBack positive")
	assertClose(t, 0, ReLUBack(-2, 7), "ReLUBack negative")
	assertClose(t, 0, ReLUBack(0, 7), "ReLUBack at zero")
}

func TestHigherOrder(t *testing.T) {
	neg := Map(Neg)
	got := neg([]float64{1, -2, 3})
	want := []float64{-1, 2, -3}
	for i := range want {
		assertClose(t, want[i], got[i], "Map")
	}

	add := ZipWith(Add)
	got = add([]float64{1, 2, 3}, []float64{4, 5, 6})
	want = []float64{5, 7, 9}
	for i := range want {
		assertClose(t, want[i], got[i], "ZipWith")
	}

	assertClose(t, 6, Sum([]float64{1, 2, 3}), "Sum")
	assertClose(t, 0, Sum(nil), "Sum empty")
	assertClose(t, 24, Prod([]float64{2, 3, 4}), "Prod")
	assertClose(t, 1, Prod(nil), "Prod empty")
	assertClose(t, 5, Reduce(Max, math.Inf(-1))([]float64{3, 5, 1}), "Reduce max")
}
