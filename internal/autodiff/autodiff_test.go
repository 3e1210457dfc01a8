package autodiff

import (
	"errors"
	"testing"
)

// node is a minimal Variable[float64] used to exercise the traversal
// without pulling in the scalar engine. backward fans dOut out to every
// parent unchanged unless overridden.
type node struct {
	id       uint64
	leaf     bool
	constant bool
	parents  []Variable[float64]
	grad     float64
	backward func(dOut float64) ([]Gradient[float64], error)
}

func newLeaf() *node     { return &node{id: NextID(), leaf: true} }
func newConstant() *node { return &node{id: NextID(), constant: true} }

func newComputed(parents ...*node) *node {
	n := &node{id: NextID()}
	for _, p := range parents {
		n.parents = append(n.parents, p)
	}
	return n
}

func (n *node) ID() uint64                   { return n.id }
func (n *node) IsLeaf() bool                 { return n.leaf }
func (n *node) IsConstant() bool             { return n.constant }
func (n *node) Parents() []Variable[float64] { return n.parents }

func (n *node) ChainRule(dOut float64) ([]Gradient[float64], error) {
	if n.backward != nil {
		return n.backward(dOut)
	}
	grads := make([]Gradient[float64], 0, len(n.parents))
	for _, p := range n.parents {
		grads = append(grads, Gradient[float64]{Variable: p, Derivative: dOut})
	}
	return grads, nil
}

func (n *node) AccumulateDerivative(d float64) { n.grad += d }

func addFloat(a, b float64) float64 { return a + b }

func TestNextIDMonotone(t *testing.T) {
	a, b := NextID(), NextID()
	if b <= a {
		t.Errorf("NextID not increasing: %d then %d", a, b)
	}
}

func TestTopologicalOrderConsumersFirst(t *testing.T) {
	x := newLeaf()
	y := newComputed(x)
	z := newComputed(y)

	order := TopologicalOrder[float64](z)
	if len(order) != 3 {
		t.Fatalf("order has %d variables, want 3", len(order))
	}
	pos := make(map[uint64]int)
	for i, v := range order {
		pos[v.ID()] = i
	}
	if pos[z.id] > pos[y.id] || pos[y.id] > pos[x.id] {
		t.Errorf("consumers must precede producers, got positions z=%d y=%d x=%d",
			pos[z.id], pos[y.id], pos[x.id])
	}
}

// A diamond shares one producer between two consumers. The shared node
// must appear exactly once, after both consumers.
func TestTopologicalOrderDiamond(t *testing.T) {
	x := newLeaf()
	a := newComputed(x)
	b := newComputed(x)
	top := newComputed(a, b)

	order := TopologicalOrder[float64](top)
	if len(order) != 4 {
		t.Fatalf("order has %d variables, want 4", len(order))
	}
	if order[len(order)-1].ID() != x.id {
		t.Errorf("shared producer must come last, order ends with %d", order[len(order)-1].ID())
	}
}

func TestTopologicalOrderSkipsConstants(t *testing.T) {
	c := newConstant()
	x := newLeaf()
	top := newComputed(x, c)

	order := TopologicalOrder[float64](top)
	for _, v := range order {
		if v.ID() == c.id {
			t.Error("constant must not appear in the order")
		}
	}
	if len(order) != 2 {
		t.Errorf("order has %d variables, want 2", len(order))
	}
}

func TestBackpropagateDiamondAccumulates(t *testing.T) {
	// top = a + b where a and b both consume x: x's gradient is the
	// sum of both paths.
	x := newLeaf()
	a := newComputed(x)
	b := newComputed(x)
	top := newComputed(a, b)

	if err := Backpropagate[float64](top, 1.0, addFloat); err != nil {
		t.Fatal(err)
	}
	if x.grad != 2.0 {
		t.Errorf("x.grad = %v, want 2.0 (one contribution per path)", x.grad)
	}
}

func TestBackpropagateScalesThroughChain(t *testing.T) {
	x := newLeaf()
	mid := newComputed(x)
	mid.backward = func(dOut float64) ([]Gradient[float64], error) {
		return []Gradient[float64]{{Variable: x, Derivative: 3 * dOut}}, nil
	}
	top := newComputed(mid)

	if err := Backpropagate[float64](top, 2.0, addFloat); err != nil {
		t.Fatal(err)
	}
	if x.grad != 6.0 {
		t.Errorf("x.grad = %v, want 6.0", x.grad)
	}
}

func TestBackpropagateConstantReceivesNothing(t *testing.T) {
	c := newConstant()
	x := newLeaf()
	top := newComputed(x, c)

	if err := Backpropagate[float64](top, 1.0, addFloat); err != nil {
		t.Fatal(err)
	}
	if c.grad != 0 {
		t.Errorf("constant accumulated %v, want 0", c.grad)
	}
	if x.grad != 1.0 {
		t.Errorf("x.grad = %v, want 1.0", x.grad)
	}
}

func TestBackpropagateAbortsOnError(t *testing.T) {
	boom := errors.New("backward failed")
	x := newLeaf()
	bad := newComputed(x)
	bad.backward = func(float64) ([]Gradient[float64], error) { return nil, boom }

	err := Backpropagate[float64](bad, 1.0, addFloat)
	if !errors.Is(err, boom) {
		t.Fatalf("expected propagated backward error, got %v", err)
	}
	if x.grad != 0 {
		t.Errorf("leaf received gradient %v after aborted traversal", x.grad)
	}
}
