// Package autodiff implements the computation-graph protocol and
// reverse-mode backpropagation shared by the scalar and tensor engines.
//
// Every computed value participates in the graph through the Variable
// interface, generic over the derivative payload D (float64 for
// scalars, tensors for tensors). Backpropagation walks the graph in
// reverse topological order, accumulating gradient contributions until
// they reach leaf variables.
package autodiff

import (
	"slices"
	"sync/atomic"
)

// Variable is a node in the computation graph with derivative type D.
//
// Three kinds of variables exist:
//   - constant: not part of the graph at all (IsConstant)
//   - leaf: gradient accumulation target (IsLeaf)
//   - computed: routes incoming gradients to its inputs via ChainRule
type Variable[D any] interface {
	// ID returns a stable identifier unique within the process.
	// The traversal keys its visited and derivative maps by ID.
	ID() uint64
	// IsLeaf reports whether the variable was created by the user
	// rather than by a function application.
	IsLeaf() bool
	// IsConstant reports whether the variable is excluded from
	// differentiation entirely.
	IsConstant() bool
	// Parents returns the variables this one was computed from.
	Parents() []Variable[D]
	// ChainRule routes the incoming derivative through the producing
	// function's backward pass, yielding one contribution per
	// non-constant input.
	ChainRule(dOut D) ([]Gradient[D], error)
	// AccumulateDerivative adds d into the variable's gradient slot.
	// Only called on leaf variables.
	AccumulateDerivative(d D)
}

// Gradient pairs a variable with a derivative contribution flowing to it.
type Gradient[D any] struct {
	Variable   Variable[D]
	Derivative D
}

var idCounter atomic.Uint64

// NextID returns a fresh process-wide variable identifier.
// History records always reference strictly earlier-created values, so
// the graph is acyclic by construction.
func NextID() uint64 {
	return idCounter.Add(1)
}

// TopologicalOrder returns every non-constant variable reachable from
// root, ordered so that each variable appears before all of its
// parents. Processing variables in this order guarantees that a node
// with multiple downstream consumers receives every contribution before
// its own derivative is propagated further.
func TopologicalOrder[D any](root Variable[D]) []Variable[D] {
	visited := make(map[uint64]bool)
	var order []Variable[D]

	var visit func(v Variable[D])
	visit = func(v Variable[D]) {
		if v.IsConstant() || visited[v.ID()] {
			return
		}
		visited[v.ID()] = true
		for _, parent := range v.Parents() {
			visit(parent)
		}
		order = append(order, v)
	}
	visit(root)

	// Post-order DFS emits producers first; reverse for consumers-first.
	slices.Reverse(order)
	return order
}

// Backpropagate runs reverse-mode differentiation from root with
// incoming derivative d. sum combines two pending contributions to the
// same variable (plain addition for scalars, elementwise addition for
// tensors).
//
// Leaf variables receive their final gradient through
// AccumulateDerivative; computed variables route theirs onward through
// ChainRule. A backward failure aborts the entire traversal.
func Backpropagate[D any](root Variable[D], d D, sum func(a, b D) D) error {
	order := TopologicalOrder(root)

	derivatives := map[uint64]D{root.ID(): d}
	for _, v := range order {
		dOut, ok := derivatives[v.ID()]
		if !ok {
			continue
		}
		if v.IsLeaf() {
			v.AccumulateDerivative(dOut)
			continue
		}
		grads, err := v.ChainRule(dOut)
		if err != nil {
			return err
		}
		for _, g := range grads {
			parent := g.Variable
			if parent.IsConstant() {
				continue
			}
			if pending, ok := derivatives[parent.ID()]; ok {
				derivatives[parent.ID()] = sum(pending, g.Derivative)
			} else {
				derivatives[parent.ID()] = g.Derivative
			}
		}
	}
	return nil
}
