package arc

// Ordering declares the weakest memory ordering a caller needs from one
// slot operation, mirroring the orderings lock-free algorithms are written
// against. Go's sync/atomic executes every operation with sequentially
// consistent semantics, so the declared ordering is a lower bound: it is
// accepted so call sites document their algorithm and port unchanged to
// runtimes with relaxed atomics.
type Ordering int32

const (
	Relaxed Ordering = iota
	Acquire
	Release
	AcqRel
	SeqCst
)

func (o Ordering) String() string {
	switch o {
	case Relaxed:
		return "relaxed"
	case Acquire:
		return "acquire"
	case Release:
		return "release"
	case AcqRel:
		return "acq_rel"
	case SeqCst:
		return "seq_cst"
	default:
		return "unknown"
	}
}
