// Command minigrad trains a small scalar MLP on a toy classification
// dataset, exercising the autodiff engine end to end: leaf creation,
// graph construction through the function protocol, backpropagation,
// and gradient retrieval.
package main

import (
	"flag"
	"math/rand"
	"os"

	"k8s.io/klog/v2"

	"github.com/minigrad-ml/minigrad/scalar"
)

func main() {
	epochs := flag.Int("epochs", 250, "number of training epochs")
	lr := flag.Float64("lr", 0.5, "learning rate")
	hidden := flag.Int("hidden", 4, "hidden layer width")
	points := flag.Int("points", 50, "number of dataset points")
	seed := flag.Int64("seed", 42, "random seed")
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	rng := rand.New(rand.NewSource(*seed))
	xs, ys := simpleDataset(*points, rng)
	net := newNetwork(*hidden, rng)

	klog.Infof("training: %d points, hidden=%d, lr=%g, epochs=%d", *points, *hidden, *lr, *epochs)

	for epoch := 1; epoch <= *epochs; epoch++ {
		loss, correct, err := trainEpoch(net, xs, ys, *lr)
		if err != nil {
			klog.Errorf("epoch %d: %v", epoch, err)
			os.Exit(1)
		}
		if epoch%10 == 0 || epoch == 1 {
			klog.Infof("epoch %d: loss=%.4f correct=%d/%d", epoch, loss, correct, len(xs))
		}
	}
}

// simpleDataset labels a point 1 when its first coordinate is below 0.5.
func simpleDataset(n int, rng *rand.Rand) ([][2]float64, []int) {
	xs := make([][2]float64, n)
	ys := make([]int, n)
	for i := range xs {
		x1, x2 := rng.Float64(), rng.Float64()
		xs[i] = [2]float64{x1, x2}
		if x1 < 0.5 {
			ys[i] = 1
		}
	}
	return xs, ys
}

// layer is a dense layer over scalar values.
type layer struct {
	weights [][]*scalar.Scalar // [in][out]
	biases  []*scalar.Scalar   // [out]
}

func newLayer(in, out int, rng *rand.Rand) *layer {
	l := &layer{
		weights: make([][]*scalar.Scalar, in),
		biases:  make([]*scalar.Scalar, out),
	}
	for i := range l.weights {
		l.weights[i] = make([]*scalar.Scalar, out)
		for j := range l.weights[i] {
			l.weights[i][j] = scalar.New(2 * (rng.Float64() - 0.5))
		}
	}
	for j := range l.biases {
		l.biases[j] = scalar.New(2 * (rng.Float64() - 0.5))
	}
	return l
}

func (l *layer) forward(inputs []*scalar.Scalar) []*scalar.Scalar {
	outputs := make([]*scalar.Scalar, len(l.biases))
	for j := range outputs {
		acc := l.biases[j]
		for i, x := range inputs {
			acc = acc.Add(x.Mul(l.weights[i][j]))
		}
		outputs[j] = acc
	}
	return outputs
}

func (l *layer) params() []*scalar.Scalar {
	var ps []*scalar.Scalar
	for _, row := range l.weights {
		ps = append(ps, row...)
	}
	return append(ps, l.biases...)
}

// network is a 2-hidden-layer MLP with a sigmoid output.
type network struct {
	layers []*layer
}

func newNetwork(hidden int, rng *rand.Rand) *network {
	return &network{layers: []*layer{
		newLayer(2, hidden, rng),
		newLayer(hidden, hidden, rng),
		newLayer(hidden, 1, rng),
	}}
}

func (n *network) forward(x1, x2 float64) *scalar.Scalar {
	h := []*scalar.Scalar{scalar.Constant(x1), scalar.Constant(x2)}
	for i, l := range n.layers {
		h = l.forward(h)
		if i < len(n.layers)-1 {
			for j := range h {
				h[j] = h[j].ReLU()
			}
		}
	}
	return h[0].Sigmoid()
}

func (n *network) params() []*scalar.Scalar {
	var ps []*scalar.Scalar
	for _, l := range n.layers {
		ps = append(ps, l.params()...)
	}
	return ps
}

// trainEpoch runs one full-batch gradient step with pointwise log loss.
func trainEpoch(net *network, xs [][2]float64, ys []int, lr float64) (float64, int, error) {
	params := net.params()
	for _, p := range params {
		p.ZeroDerivative()
	}

	var total *scalar.Scalar
	correct := 0
	for i, x := range xs {
		out := net.forward(x[0], x[1])
		var prob *scalar.Scalar
		if ys[i] == 1 {
			prob = out
			if out.Value() > 0.5 {
				correct++
			}
		} else {
			prob = scalar.Constant(1.0).Sub(out)
			if out.Value() < 0.5 {
				correct++
			}
		}
		loss := prob.Log().Neg()
		if total == nil {
			total = loss
		} else {
			total = total.Add(loss)
		}
	}

	if err := total.Backward(); err != nil {
		return 0, 0, err
	}
	for _, p := range params {
		p.SetValue(p.Value() - lr*p.Derivative()/float64(len(xs)))
	}
	return total.Value() / float64(len(xs)), correct, nil
}
