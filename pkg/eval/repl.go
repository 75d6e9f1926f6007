package eval

import (
	"context"

	"cinterp/pkg/ast"
	"cinterp/pkg/diag"
)

// ExecFragment executes one permissively-parsed REPL fragment against
// this Interp's persistent global state. A top-level declaration
// statement is treated as a global declaration so it survives across
// fragments, matching the REPL's "persistent context"
// contract.
func (i *Interp) ExecFragment(ctx context.Context, frag any) error {
	switch n := frag.(type) {
	case *ast.FuncDecl:
		return i.Globals.DeclareFunc(n)
	case *ast.DeclStmt:
		return i.execGlobalDecl(&ast.GlobalDecl{Pos: n.Pos, Declarators: n.Declarators})
	case ast.Stmt:
		i.Frames = append(i.Frames, i.replTopFrame())
		sig, err := i.execStmt(ctx, n)
		i.Frames = i.Frames[:len(i.Frames)-1]
		if err != nil {
			return err
		}
		if sig.Kind == SigBreak || sig.Kind == SigContinue || sig.Kind == SigReturn {
			return diag.FromRuntimeError(diag.ErrStrayControlFlow, n.Position().Line, n.Position().Column)
		}
		return nil
	default:
		return diag.ErrTypeMismatch
	}
}
