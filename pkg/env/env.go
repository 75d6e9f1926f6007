// Package env implements the runtime environment: a stack of lexical
// scopes for one call frame, plus the single global function table.
// Its EnterScope/ExitScope/Declare/Lookup methods bind names to runtime
// addresses rather than compile-time stack offsets.
package env

import (
	"cinterp/pkg/ast"
	"cinterp/pkg/diag"
	"cinterp/pkg/types"
)

// Binding is one declared variable: its static type and the heap address
// holding its value.
type Binding struct {
	Type types.Type
	Addr int64
}

// Scope is one block's set of declared names.
type Scope struct {
	vars map[string]Binding
}

func newScope() *Scope { return &Scope{vars: make(map[string]Binding)} }

// Frame is one function call's scope stack. Frame locals are kept
// separate from the program-wide Globals table because frames are created
// and discarded at call/return while globals persist for the whole run.
type Frame struct {
	scopes []*Scope
}

// NewFrame starts a function call with one scope for its body.
func NewFrame() *Frame {
	return &Frame{scopes: []*Scope{newScope()}}
}

// EnterScope pushes a new block scope (e.g. entering a { } or a loop body).
func (f *Frame) EnterScope() {
	f.scopes = append(f.scopes, newScope())
}

// ExitScope pops the innermost block scope.
func (f *Frame) ExitScope() {
	if len(f.scopes) > 0 {
		f.scopes = f.scopes[:len(f.scopes)-1]
	}
}

// Declare binds name in the current (innermost) scope. Redeclaring a name
// already present in that same scope is an error; shadowing a name from
// an outer scope is allowed.
func (f *Frame) Declare(name string, b Binding) error {
	cur := f.scopes[len(f.scopes)-1]
	if _, exists := cur.vars[name]; exists {
		return diag.ErrRedeclaration
	}
	cur.vars[name] = b
	return nil
}

// TopScopeAddrs returns the heap addresses of every binding declared in
// the innermost scope, used to release their storage when that scope
// exits, so a loop body's locals don't accumulate across iterations.
func (f *Frame) TopScopeAddrs() []int64 {
	sc := f.scopes[len(f.scopes)-1]
	out := make([]int64, 0, len(sc.vars))
	for _, b := range sc.vars {
		out = append(out, b.Addr)
	}
	return out
}

// Lookup searches the frame's scopes from innermost to outermost.
func (f *Frame) Lookup(name string) (Binding, bool) {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if b, ok := f.scopes[i].vars[name]; ok {
			return b, true
		}
	}
	return Binding{}, false
}

// Globals holds the program's global variable bindings and function table.
// There is exactly one Globals per Context; function definitions live only
// here — functions may only be declared at global scope, never nested.
type Globals struct {
	vars  map[string]Binding
	funcs map[string]*ast.FuncDecl
}

// NewGlobals creates an empty global scope.
func NewGlobals() *Globals {
	return &Globals{vars: make(map[string]Binding), funcs: make(map[string]*ast.FuncDecl)}
}

// DeclareVar binds a global variable. Redeclaring an existing global name
// is an error.
func (g *Globals) DeclareVar(name string, b Binding) error {
	if _, exists := g.vars[name]; exists {
		return diag.ErrRedeclaration
	}
	g.vars[name] = b
	return nil
}

// LookupVar looks up a global variable binding.
func (g *Globals) LookupVar(name string) (Binding, bool) {
	b, ok := g.vars[name]
	return b, ok
}

// DeclareFunc registers a function definition. Redefining an existing
// function name is an error.
func (g *Globals) DeclareFunc(decl *ast.FuncDecl) error {
	if _, exists := g.funcs[decl.Name]; exists {
		return diag.ErrRedeclaration
	}
	g.funcs[decl.Name] = decl
	return nil
}

// LookupFunc looks up a function definition by name.
func (g *Globals) LookupFunc(name string) (*ast.FuncDecl, bool) {
	fn, ok := g.funcs[name]
	return fn, ok
}

// Resolve looks up name first in the frame (if non-nil), then in globals,
// matching C's lexical-scoping-with-global-fallback rule. frame may be nil
// when evaluating at global initializer scope, before any call frame
// exists.
func Resolve(frame *Frame, globals *Globals, name string) (Binding, bool) {
	if frame != nil {
		if b, ok := frame.Lookup(name); ok {
			return b, true
		}
	}
	return globals.LookupVar(name)
}
