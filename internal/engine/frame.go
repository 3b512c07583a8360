package engine

import (
	"slices"

	"github.com/roach88/htn/internal/ir"
)

// expandState is where a frame's expansion stopped.
type expandState uint8

const (
	// expandBinding: the frame needs its next precondition binding.
	expandBinding expandState = iota
	// expandEmit: the frame emits task-list item `item` next.
	expandEmit
	// expandWait: a child frame for the previous item is on the stack.
	expandWait
)

// precondLabel is where a precondition search stopped.
type precondLabel uint8

const (
	// preEnter starts disjunct `disjunct`.
	preEnter precondLabel = iota
	// preScan examines the handle at `depth`.
	preScan
	// preAdvance moves the deepest handle past the instance that yielded.
	preAdvance
	// preNextDisjunct leaves a literal-free disjunct that already yielded.
	preNextDisjunct
	// preExhausted: no more bindings.
	preExhausted
)

// precondState is the resumable position of one precondition search.
type precondState struct {
	label    precondLabel
	disjunct int
	depth    int
	handles  []ir.FactHandle
}

func (s *precondState) reset(maxLiterals int) {
	s.label = preEnter
	s.disjunct = 0
	s.depth = 0
	if cap(s.handles) < maxLiterals {
		s.handles = make([]ir.FactHandle, maxLiterals)
	}
	s.handles = s.handles[:maxLiterals]
}

// frame is one task occurrence under decomposition.
type frame struct {
	task int
	cas  int // global case index

	// Arena offsets. argsOff marks the frame's base in the arena.
	argsOff int
	inOff   int
	outOff  int

	planMark int // plan length when the frame was pushed
	bindMark int // plan length when the current binding was produced

	pre   precondState
	state expandState
	item  int
	// expanded is set once an each case has expanded a binding.
	expanded bool
}

// alloc reserves n zeroed bytes at the top of the arena and returns their
// offset.
func (p *Planner) alloc(n int) int {
	off := len(p.arena)
	p.arena = slices.Grow(p.arena, n)[:off+n]
	clear(p.arena[off:])
	return off
}

// bytes returns the arena slice [off, off+n).
func (p *Planner) bytes(off, n int) []byte {
	return p.arena[off : off+n : off+n]
}

// pushFrame pushes a frame for composite task ti whose arguments are args,
// activating its first case.
func (p *Planner) pushFrame(ti int, args []ir.Value) error {
	t := &p.dom.Tasks[ti]
	if p.maxDepth > 0 && len(p.frames) >= p.maxDepth {
		return &DepthExceededError{Task: t.Name, Depth: len(p.frames) + 1, Limit: p.maxDepth}
	}

	n := len(p.frames)
	if n < cap(p.frames) {
		p.frames = p.frames[:n+1]
	} else {
		p.frames = append(p.frames, frame{})
	}
	f := &p.frames[n]
	f.task = ti
	f.planMark = len(p.plan)
	f.argsOff = p.alloc(t.Signature.Size)
	buf := p.bytes(f.argsOff, t.Signature.Size)
	for i, v := range args {
		t.Signature.Set(buf, i, v)
	}

	if len(p.frames) > p.stats.MaxDepth {
		p.stats.MaxDepth = len(p.frames)
	}
	p.stats.Expansions++
	p.emitTrace(TraceEvent{Kind: TraceExpand, Depth: n, Task: t.Name, Case: -1, Args: args})

	p.activate(f, t.FirstCase)
	return nil
}

// activate starts case ci on f: the case's input and output records are
// allocated above the frame's arguments and the precondition is reset.
// f must be the top frame.
func (p *Planner) activate(f *frame, ci int) {
	t := &p.dom.Tasks[f.task]
	c := &p.dom.Cases[ci]

	p.arena = p.arena[:f.argsOff+t.Signature.Size]
	f.cas = ci
	f.inOff = p.alloc(c.Inputs.Size)
	f.outOff = p.alloc(c.Outputs.Size)

	args := p.bytes(f.argsOff, t.Signature.Size)
	in := p.bytes(f.inOff, c.Inputs.Size)
	for slot, pi := range c.InputParams {
		c.Inputs.Set(in, slot, t.Signature.Get(args, pi))
	}

	maxLits := 0
	for _, conj := range c.Conjuncts {
		maxLits = max(maxLits, len(conj.Literals))
	}
	f.pre.reset(maxLits)
	f.state = expandBinding
	f.item = 0
	f.expanded = false
}

// popFrame removes the top frame and releases its arena space.
func (p *Planner) popFrame() {
	n := len(p.frames) - 1
	p.arena = p.arena[:p.frames[n].argsOff]
	p.frames = p.frames[:n]
}

func (p *Planner) top() *frame {
	return &p.frames[len(p.frames)-1]
}
