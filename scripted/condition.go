// Package scripted provides a user_predicate Condition compiled from a
// short JavaScript expression rather than compiled-in Go, for conditions
// that need to be configured from data. It lives outside the core module
// so consumers who never use it do not pull in a JS runtime.
package scripted

import (
	"github.com/brightforge/ecsloop"
	"github.com/dop251/goja"
)

// Condition evaluates expr against a snapshot of named values built fresh
// from the World on every check. Use it via ecsloop.RunIf(scripted.New(...)).
type Condition struct {
	expr     string
	snapshot func(w *ecsloop.World) map[string]any
}

// New compiles no state up front — goja expressions are re-run per
// evaluation — it just pairs expr with the function that builds the named
// variables it references, grounded on the setupVM/RunString pairing in
// the CWL expression evaluator this is adapted from.
func New(expr string, snapshot func(w *ecsloop.World) map[string]any) *Condition {
	return &Condition{expr: expr, snapshot: snapshot}
}

// Evaluate satisfies ecsloop.Condition. A compile error, a runtime error,
// or a non-boolean result are all treated as false rather than panicking
// the dispatcher.
func (c *Condition) Evaluate(w *ecsloop.World) bool {
	vm := goja.New()
	for name, val := range c.snapshot(w) {
		if err := vm.Set(name, val); err != nil {
			return false
		}
	}
	result, err := vm.RunString(c.expr)
	if err != nil {
		return false
	}
	b, ok := result.Export().(bool)
	return ok && b
}
