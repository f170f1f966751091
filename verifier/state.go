package verifier

import "github.com/utkarshm/axiom-bpf/register"

// RegKind is the tag of the abstract register-type lattice described in
// §4.3 step 5 and §9. Join (Lub) on control-flow merges is defined below.
type RegKind uint8

const (
	KindUninitialized RegKind = iota
	KindScalar
	KindPtrContext
	KindPtrStack
	KindPtrMapValue
	KindNull
	// KindUnknown is the top of the lattice: reached when two incompatible
	// kinds are joined. It is strictly more conservative than any other
	// kind (every access through it is rejected).
	KindUnknown
)

// ScalarRange bounds a scalar's possible values when known; Known is false
// for an otherwise-unconstrained scalar.
type ScalarRange struct {
	Known    bool
	Min, Max int64
}

func unknownRange() ScalarRange { return ScalarRange{} }

func exactRange(v int64) ScalarRange { return ScalarRange{Known: true, Min: v, Max: v} }

// ContainsZero reports whether zero is a possible value, conservatively
// true whenever the range is not known.
func (r ScalarRange) ContainsZero() bool {
	if !r.Known {
		return true
	}
	return r.Min <= 0 && 0 <= r.Max
}

// RegState is one register's abstract type at a single program point.
type RegState struct {
	Kind    RegKind
	Scalar  ScalarRange
	Offset  int64 // valid for the three pointer kinds
	MapID   uint32 // valid only for KindPtrMapValue
}

func Uninit() RegState { return RegState{Kind: KindUninitialized} }

func ScalarUnknown() RegState { return RegState{Kind: KindScalar, Scalar: unknownRange()} }

func ScalarExact(v int64) RegState { return RegState{Kind: KindScalar, Scalar: exactRange(v)} }

func PtrContext(offset int64) RegState { return RegState{Kind: KindPtrContext, Offset: offset} }

func PtrStack(offset int64) RegState { return RegState{Kind: KindPtrStack, Offset: offset} }

func PtrMapValue(mapID uint32, offset int64) RegState {
	return RegState{Kind: KindPtrMapValue, MapID: mapID, Offset: offset}
}

func NullReg() RegState { return RegState{Kind: KindNull} }

// Lub computes the least upper bound of a and b for a control-flow merge.
// Identical states join to themselves; scalar ranges widen to their union;
// anything else incompatible joins to KindUnknown, which is conservative:
// any subsequent bounds-sensitive use of an Unknown-kind register is
// rejected by the checker.
func Lub(a, b RegState) RegState {
	if a.Kind == KindUninitialized {
		return b
	}
	if b.Kind == KindUninitialized {
		return a
	}
	if a.Kind != b.Kind {
		return RegState{Kind: KindUnknown}
	}
	switch a.Kind {
	case KindScalar:
		if !a.Scalar.Known || !b.Scalar.Known {
			return ScalarUnknown()
		}
		min, max := a.Scalar.Min, a.Scalar.Max
		if b.Scalar.Min < min {
			min = b.Scalar.Min
		}
		if b.Scalar.Max > max {
			max = b.Scalar.Max
		}
		return RegState{Kind: KindScalar, Scalar: ScalarRange{Known: true, Min: min, Max: max}}
	case KindPtrContext, KindPtrStack:
		if a.Offset != b.Offset {
			return RegState{Kind: a.Kind} // offset unknown henceforth
		}
		return a
	case KindPtrMapValue:
		if a.MapID != b.MapID || a.Offset != b.Offset {
			return RegState{Kind: KindUnknown}
		}
		return a
	default:
		return a
	}
}

// State is the full abstract machine state at one program point: one
// RegState per register, plus the most negative stack offset written so far
// (used by the stack-bound check).
type State struct {
	Regs       [register.Count]RegState
	StackWrite int // most negative stack offset written (magnitude grows downward)
}

// EntryState is the abstract state at program entry: r1 is the context
// pointer, r10 is the frame pointer, everything else is uninitialized.
func EntryState() State {
	var s State
	for i := range s.Regs {
		s.Regs[i] = Uninit()
	}
	s.Regs[register.R1] = PtrContext(0)
	s.Regs[register.R10] = PtrStack(0)
	return s
}

// JoinInto merges other into s in place, per-register, via Lub.
func (s *State) JoinInto(other State) {
	for i := range s.Regs {
		s.Regs[i] = Lub(s.Regs[i], other.Regs[i])
	}
	if other.StackWrite < s.StackWrite {
		s.StackWrite = other.StackWrite
	}
}

func (s State) Clone() State {
	return s
}
