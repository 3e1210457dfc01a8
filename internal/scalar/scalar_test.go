package scalar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-6

func TestForwardValues(t *testing.T) {
	a, b := New(3), New(4)

	assert.InDelta(t, 7.0, a.Add(b).Value(), eps)
	assert.InDelta(t, 12.0, a.Mul(b).Value(), eps)
	assert.InDelta(t, -1.0, a.Sub(b).Value(), eps)
	assert.InDelta(t, 0.75, a.Div(b).Value(), eps)
	assert.InDelta(t, -3.0, a.Neg().Value(), eps)
	assert.InDelta(t, 1.0/3.0, a.Inv().Value(), eps)
	assert.InDelta(t, math.Log(3), a.Log().Value(), eps)
	assert.InDelta(t, math.Exp(3), a.Exp().Value(), eps)
	assert.InDelta(t, 3.0, a.ReLU().Value(), eps)
	assert.InDelta(t, 0.0, New(-3).ReLU().Value(), eps)
	assert.InDelta(t, 1.0/(1.0+math.Exp(-3)), a.Sigmoid().Value(), eps)

	assert.Equal(t, 1.0, a.Lt(b).Value())
	assert.Equal(t, 0.0, a.Gt(b).Value())
	assert.Equal(t, 0.0, a.Eq(b).Value())
	assert.Equal(t, 1.0, a.Eq(New(3)).Value())
}

func TestLeafConstantComputed(t *testing.T) {
	leaf := New(1)
	constant := Constant(1)
	computed := leaf.Add(leaf)

	assert.True(t, leaf.IsLeaf())
	assert.False(t, leaf.IsConstant())

	assert.True(t, constant.IsConstant())
	assert.False(t, constant.IsLeaf())

	assert.False(t, computed.IsLeaf())
	assert.False(t, computed.IsConstant())
	assert.Len(t, computed.Parents(), 2)
}

func TestSimpleBackward(t *testing.T) {
	x := New(2)
	y := New(3)
	z := x.Mul(y)

	require.NoError(t, z.Backward())
	assert.InDelta(t, 3.0, x.Derivative(), eps)
	assert.InDelta(t, 2.0, y.Derivative(), eps)
}

// z = x*y + x: x is consumed by two paths, so dz/dx = y + 1.
func TestDiamondAccumulation(t *testing.T) {
	x := New(2)
	y := New(3)
	z := x.Mul(y).Add(x)

	require.NoError(t, z.Backward())
	assert.InDelta(t, 4.0, x.Derivative(), eps)
	assert.InDelta(t, 2.0, y.Derivative(), eps)
}

func TestSigmoidDerivativeAtZero(t *testing.T) {
	x := New(0)
	require.NoError(t, x.Sigmoid().Backward())
	assert.InDelta(t, 0.25, x.Derivative(), eps)
}

func TestReLUDerivative(t *testing.T) {
	pos := New(2)
	require.NoError(t, pos.ReLU().Backward())
	assert.InDelta(t, 1.0, pos.Derivative(), eps)

	neg := New(-2)
	require.NoError(t, neg.ReLU().Backward())
	assert.InDelta(t, 0.0, neg.Derivative(), eps)
}

func TestComparisonsBlockGradient(t *testing.T) {
	for _, build := range []func(a, b *Scalar) *Scalar{
		(*Scalar).Lt,
		(*Scalar).Gt,
		(*Scalar).Eq,
	} {
		a, b := New(1), New(2)
		require.NoError(t, build(a, b).Backward())
		assert.Equal(t, 0.0, a.Derivative())
		assert.Equal(t, 0.0, b.Derivative())
	}
}

func TestConstantsExcluded(t *testing.T) {
	x := New(2)
	c := Constant(5)
	z := x.Mul(c)

	require.NoError(t, z.Backward())
	assert.InDelta(t, 5.0, x.Derivative(), eps)
	assert.Equal(t, 0.0, c.Derivative())
}

func TestBackwardWithGradScalesSeed(t *testing.T) {
	x := New(3)
	z := x.Mul(x)

	require.NoError(t, z.BackwardWithGrad(10.0))
	assert.InDelta(t, 60.0, x.Derivative(), eps)
}

func TestZeroDerivativeBetweenRuns(t *testing.T) {
	x := New(2)
	require.NoError(t, x.Mul(x).Backward())
	assert.InDelta(t, 4.0, x.Derivative(), eps)

	x.ZeroDerivative()
	assert.Equal(t, 0.0, x.Derivative())

	require.NoError(t, x.Mul(x).Backward())
	assert.InDelta(t, 4.0, x.Derivative(), eps)
}

func TestAccumulateOnNonLeafPanics(t *testing.T) {
	computed := New(1).Add(New(2))
	assert.Panics(t, func() { computed.AccumulateDerivative(1.0) })
	assert.Panics(t, func() { Constant(1).AccumulateDerivative(1.0) })
}

// Every differentiable function's backward pass must agree with a
// symmetric difference quotient of its forward pass.
func TestDerivativesMatchCentralDifference(t *testing.T) {
	tests := []struct {
		name string
		f    func(...*Scalar) *Scalar
		vals []float64
	}{
		{"add", func(s ...*Scalar) *Scalar { return s[0].Add(s[1]) }, []float64{1.5, -2.5}},
		{"mul", func(s ...*Scalar) *Scalar { return s[0].Mul(s[1]) }, []float64{1.5, -2.5}},
		{"div", func(s ...*Scalar) *Scalar { return s[0].Div(s[1]) }, []float64{1.5, -2.5}},
		{"neg", func(s ...*Scalar) *Scalar { return s[0].Neg() }, []float64{1.5}},
		{"inv", func(s ...*Scalar) *Scalar { return s[0].Inv() }, []float64{1.5}},
		{"log", func(s ...*Scalar) *Scalar { return s[0].Log() }, []float64{1.5}},
		{"exp", func(s ...*Scalar) *Scalar { return s[0].Exp() }, []float64{1.5}},
		{"sigmoid", func(s ...*Scalar) *Scalar { return s[0].Sigmoid() }, []float64{0.75}},
		{"relu pos", func(s ...*Scalar) *Scalar { return s[0].ReLU() }, []float64{1.5}},
		{"relu neg", func(s ...*Scalar) *Scalar { return s[0].ReLU() }, []float64{-1.5}},
		{"composite", func(s ...*Scalar) *Scalar {
			return s[0].Mul(s[1]).Sigmoid().Add(s[0].Exp())
		}, []float64{0.5, 0.75}},
		{"deep chain", func(s ...*Scalar) *Scalar {
			return s[0].Exp().Add(s[0].Inv()).Log().Mul(s[0])
		}, []float64{1.25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			numeric := func(raw ...float64) float64 {
				ins := make([]*Scalar, len(raw))
				for i, v := range raw {
					ins[i] = New(v)
				}
				return tt.f(ins...).Value()
			}

			ins := make([]*Scalar, len(tt.vals))
			for i, v := range tt.vals {
				ins[i] = New(v)
			}
			require.NoError(t, tt.f(ins...).Backward())

			for arg := range tt.vals {
				want := CentralDifference(numeric, arg, 1e-6, tt.vals...)
				assert.InDelta(t, want, ins[arg].Derivative(), 1e-4,
					"d/darg%d", arg)
			}
		})
	}
}
