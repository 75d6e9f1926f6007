package eval

import "cinterp/pkg/value"

// SignalKind tags the outcome of executing a statement, kept orthogonal to
// error propagation: break/continue/return travel back up the call stack
// as values rather than as panics or sentinel errors.
type SignalKind int

const (
	SigNormal SignalKind = iota
	SigBreak
	SigContinue
	SigReturn
)

// Signal is the statement-evaluation outcome: a control-flow tag plus,
// for SigReturn, the value being returned.
type Signal struct {
	Kind  SignalKind
	Value value.Value
}

var Normal = Signal{Kind: SigNormal}
var Break = Signal{Kind: SigBreak}
var Continue = Signal{Kind: SigContinue}

func Return(v value.Value) Signal { return Signal{Kind: SigReturn, Value: v} }
