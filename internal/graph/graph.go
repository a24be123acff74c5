package graph

import (
	"context"
	"fmt"
)

// StepFunc executes one pipeline stage, returning the updated state.
type StepFunc[S any] func(ctx context.Context, state S) (S, error)

// CondFunc inspects state after a conditional stage and returns the route
// key to follow.
type CondFunc[S any] func(state S) string

type nodeKind int

const (
	kindStart nodeKind = iota
	kindStep
	kindConditional
	kindTerminal
)

type node[S any] struct {
	kind   nodeKind
	fn     StepFunc[S]
	cond   CondFunc[S]
	next   string
	routes map[string]string
}

// Graph is a validated pipeline: one start node, linear and conditional
// steps, and at least one terminal. Construction errors are surfaced by
// Builder.Build before anything runs.
type Graph[S any] struct {
	nodes map[string]node[S]
	start string
}

// Builder accumulates node declarations for a Graph.
type Builder[S any] struct {
	nodes map[string]node[S]
	order []string
	start string
	errs  []error
}

// NewBuilder returns an empty pipeline builder.
func NewBuilder[S any]() *Builder[S] {
	return &Builder[S]{nodes: make(map[string]node[S])}
}

func (b *Builder[S]) add(name string, n node[S]) *Builder[S] {
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("node with empty name"))
		return b
	}
	if _, dup := b.nodes[name]; dup {
		b.errs = append(b.errs, fmt.Errorf("duplicate node %q", name))
		return b
	}
	b.nodes[name] = n
	b.order = append(b.order, name)
	return b
}

// Start declares the entry node. Exactly one is required.
func (b *Builder[S]) Start(name string, fn StepFunc[S], next string) *Builder[S] {
	if b.start != "" {
		b.errs = append(b.errs, fmt.Errorf("multiple start nodes: %q and %q", b.start, name))
		return b
	}
	b.start = name
	return b.add(name, node[S]{kind: kindStart, fn: fn, next: next})
}

// Step declares a stage with an unconditional edge to next.
func (b *Builder[S]) Step(name string, fn StepFunc[S], next string) *Builder[S] {
	return b.add(name, node[S]{kind: kindStep, fn: fn, next: next})
}

// Conditional declares a stage whose outgoing edge is chosen by cond's
// return value via the routes map.
func (b *Builder[S]) Conditional(name string, fn StepFunc[S], cond CondFunc[S], routes map[string]string) *Builder[S] {
	return b.add(name, node[S]{kind: kindConditional, fn: fn, cond: cond, routes: routes})
}

// Terminal declares an end node. fn may be nil for a bare stop.
func (b *Builder[S]) Terminal(name string, fn StepFunc[S]) *Builder[S] {
	return b.add(name, node[S]{kind: kindTerminal, fn: fn})
}

// Build validates the declared pipeline: exactly one start, every edge
// target resolvable, and at least one terminal reachable from the start.
// Any violation is a configuration defect and fails construction.
func (b *Builder[S]) Build() (*Graph[S], error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if b.start == "" {
		return nil, fmt.Errorf("no start node declared")
	}

	terminals := 0
	for _, name := range b.order {
		n := b.nodes[name]
		switch n.kind {
		case kindStart, kindStep:
			if _, ok := b.nodes[n.next]; !ok {
				return nil, fmt.Errorf("node %q: unknown edge target %q", name, n.next)
			}
		case kindConditional:
			if n.cond == nil {
				return nil, fmt.Errorf("conditional node %q has no condition", name)
			}
			if len(n.routes) == 0 {
				return nil, fmt.Errorf("conditional node %q has no routes", name)
			}
			for key, target := range n.routes {
				if _, ok := b.nodes[target]; !ok {
					return nil, fmt.Errorf("node %q route %q: unknown edge target %q", name, key, target)
				}
			}
		case kindTerminal:
			terminals++
		}
	}
	if terminals == 0 {
		return nil, fmt.Errorf("no terminal node declared")
	}

	if !b.terminalReachable() {
		return nil, fmt.Errorf("no terminal node reachable from start %q", b.start)
	}

	return &Graph[S]{nodes: b.nodes, start: b.start}, nil
}

func (b *Builder[S]) terminalReachable() bool {
	seen := map[string]bool{b.start: true}
	queue := []string{b.start}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		n := b.nodes[name]
		if n.kind == kindTerminal {
			return true
		}
		var targets []string
		if n.kind == kindConditional {
			for _, t := range n.routes {
				targets = append(targets, t)
			}
		} else {
			targets = []string{n.next}
		}
		for _, t := range targets {
			if !seen[t] {
				seen[t] = true
				queue = append(queue, t)
			}
		}
	}
	return false
}

// maxSteps guards against an unbounded conditional cycle; gated retries
// stay far below this.
const maxSteps = 1000

// Run executes the pipeline from the start node until a terminal node
// completes, threading state through each stage.
func (g *Graph[S]) Run(ctx context.Context, initial S) (S, error) {
	state := initial
	name := g.start

	for steps := 0; ; steps++ {
		if steps >= maxSteps {
			return state, fmt.Errorf("pipeline exceeded %d steps at node %q", maxSteps, name)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		n := g.nodes[name]
		if n.fn != nil {
			var err error
			state, err = n.fn(ctx, state)
			if err != nil {
				return state, fmt.Errorf("node %q: %w", name, err)
			}
		}

		switch n.kind {
		case kindTerminal:
			return state, nil
		case kindConditional:
			key := n.cond(state)
			target, ok := n.routes[key]
			if !ok {
				return state, fmt.Errorf("node %q: condition returned unknown route %q", name, key)
			}
			name = target
		default:
			name = n.next
		}
	}
}
