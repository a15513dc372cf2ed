package ir

import "fmt"

// CallGraph lists, per function, the distinct functions it calls in order of first call.
func (ir *IR) CallGraph() [][]FunctionID {
	graph := make([][]FunctionID, len(ir.Entries))
	for caller, entry := range ir.Entries {
		if entry == nil {
			continue
		}
		seen := make(map[FunctionID]struct{})
		entry.Walk(func(b *Block) {
			for i := range b.Instrs {
				op, _ := b.Instrs[i].Resolve(ir.Meta)
				if op.Kind != OpCall {
					continue
				}
				if _, ok := seen[op.Function]; ok {
					continue
				}
				seen[op.Function] = struct{}{}
				graph[caller] = append(graph[caller], op.Function)
			}
		})
	}
	return graph
}

type visitState uint8

const (
	notVisited visitState = iota
	visiting
	visited
)

// FunctionDeclOrder returns the functions reachable from main() such that every callee comes
// before its callers. Recursion is an internal error.
func (ir *IR) FunctionDeclOrder() []FunctionID {
	mainID, ok := ir.Meta.MainFunction()
	if !ok {
		panic(fmt.Errorf("ir: no main() function"))
	}
	graph := ir.CallGraph()

	type item struct {
		fn   FunctionID
		post bool
	}
	order := make([]FunctionID, 0, len(ir.Entries))
	state := make([]visitState, len(ir.Entries))
	stack := []item{{fn: mainID}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.post {
			state[top.fn] = visited
			order = append(order, top.fn)
			continue
		}
		switch state[top.fn] {
		case visited:
			continue
		case visiting:
			panic(fmt.Errorf("ir: recursion detected through f%d", top.fn))
		}
		state[top.fn] = visiting
		stack = append(stack, item{fn: top.fn, post: true})
		for _, callee := range graph[top.fn] {
			stack = append(stack, item{fn: callee})
		}
	}
	return order
}
