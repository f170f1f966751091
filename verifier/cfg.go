package verifier

import (
	"sort"

	"github.com/utkarshm/axiom-bpf/bytecode"
)

// ControlFlowGraph is built by a single linear pass over the instruction
// sequence, then reachability and back-edge detection run as separate
// iterative (non-recursive) BFS passes. This mirrors the CFG construction
// described for the original kernel_bpf verifier crate.
type ControlFlowGraph struct {
	insnCount int
	leaders   map[int]bool
	edges     []edge
	backEdges []edge
	exits     []int
}

type edge struct{ from, to int }

// BuildCFG walks insns once, recording successor edges per §4.3 step 2:
// exit has no successors; call has one fall-through successor; an
// unconditional jump has one successor (the target); a conditional jump has
// two (fall-through and target); a wide instruction's fall-through is two
// slots ahead; everything else falls through to the next slot.
func BuildCFG(insns []bytecode.Instruction) *ControlFlowGraph {
	cfg := &ControlFlowGraph{
		insnCount: len(insns),
		leaders:   map[int]bool{0: true},
	}
	n := len(insns)
	for idx, insn := range insns {
		switch {
		case insn.IsExit():
			cfg.exits = append(cfg.exits, idx)
		case insn.IsCall():
			cfg.addEdge(idx, idx+1, n)
		case insn.IsJump():
			target := bytecode.JumpTarget(idx, insn.Off)
			if insn.IsConditional() {
				cfg.addEdge(idx, idx+1, n)
				cfg.addLeaderEdge(idx, target, n)
			} else {
				cfg.addLeaderEdge(idx, target, n)
			}
		default:
			step := 1
			if insn.IsWide() {
				step = 2
			}
			cfg.addEdge(idx, idx+step, n)
		}
	}
	cfg.identifyBackEdges()
	return cfg
}

func (c *ControlFlowGraph) addEdge(from, to, n int) {
	if to < 0 || to >= n {
		return
	}
	c.edges = append(c.edges, edge{from, to})
}

func (c *ControlFlowGraph) addLeaderEdge(from, to, n int) {
	if to < 0 || to >= n {
		return
	}
	c.edges = append(c.edges, edge{from, to})
	c.leaders[to] = true
}

func (c *ControlFlowGraph) identifyBackEdges() {
	for _, e := range c.edges {
		if e.to <= e.from {
			c.backEdges = append(c.backEdges, e)
		}
	}
}

// InsnCount is the number of instruction slots in the graph.
func (c *ControlFlowGraph) InsnCount() int { return c.insnCount }

// IsLeader reports whether idx begins a basic block.
func (c *ControlFlowGraph) IsLeader(idx int) bool { return c.leaders[idx] }

// Leaders returns all leader indices in ascending order.
func (c *ControlFlowGraph) Leaders() []int {
	out := make([]int, 0, len(c.leaders))
	for idx := range c.leaders {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Successors returns idx's direct successors.
func (c *ControlFlowGraph) Successors(idx int) []int {
	var out []int
	for _, e := range c.edges {
		if e.from == idx {
			out = append(out, e.to)
		}
	}
	return out
}

// Predecessors returns idx's direct predecessors.
func (c *ControlFlowGraph) Predecessors(idx int) []int {
	var out []int
	for _, e := range c.edges {
		if e.to == idx {
			out = append(out, e.from)
		}
	}
	return out
}

// HasLoops reports whether any back edge was detected.
func (c *ControlFlowGraph) HasLoops() bool { return len(c.backEdges) > 0 }

// BackEdges returns all detected back edges (to <= from).
func (c *ControlFlowGraph) BackEdges() []edge { return c.backEdges }

// ExitPoints returns the indices of all exit instructions.
func (c *ControlFlowGraph) ExitPoints() []int { return c.exits }

// ReachableInstructions computes, via iterative BFS from instruction 0, the
// full set of reachable instruction indices. No recursion is used so depth
// is never bounded by program length.
func (c *ControlFlowGraph) ReachableInstructions() map[int]bool {
	visited := map[int]bool{}
	if c.insnCount == 0 {
		return visited
	}
	queue := []int{0}
	visited[0] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, succ := range c.Successors(cur) {
			if !visited[succ] {
				visited[succ] = true
				queue = append(queue, succ)
			}
		}
	}
	return visited
}

// IsReachable reports whether idx is reachable from instruction 0.
func (c *ControlFlowGraph) IsReachable(idx int) bool {
	if idx == 0 {
		return c.insnCount > 0
	}
	return c.ReachableInstructions()[idx]
}
