// Package parser implements a recursive-descent parser with precedence
// climbing for expressions. It is non-recovering: the first error
// terminates parsing and is surfaced verbatim.
package parser

import (
	"strconv"
	"strings"

	"cinterp/pkg/ast"
	"cinterp/pkg/diag"
	"cinterp/pkg/token"
	"cinterp/pkg/types"
)

// Parser consumes the flat token slice produced by the lexer and builds an
// AST.
//
// Grammar (lowest to highest expression precedence, matching C):
//
//	assignment  = ternary (('=' | '+=' | '-=' | '*=' | '/=' | '%=') assignment)?
//	ternary     = logical_or ('?' expression ':' ternary)?
//	logical_or  = logical_and ('||' logical_and)*
//	logical_and = bitwise_or ('&&' bitwise_or)*
//	bitwise_or  = bitwise_xor ('|' bitwise_xor)*
//	bitwise_xor = bitwise_and ('^' bitwise_and)*
//	bitwise_and = equality ('&' equality)*
//	equality    = relational (('==' | '!=') relational)*
//	relational  = shift (('<' | '<=' | '>' | '>=') shift)*
//	shift       = additive (('<<' | '>>') additive)*
//	additive    = multiplicative (('+' | '-') multiplicative)*
//	multiplicative = unary (('*' | '/' | '%') unary)*
//	unary       = ('+' | '-' | '!' | '~' | '++' | '--' | '*' | '&') unary
//	            | 'sizeof' ('(' type ')' | unary)
//	            | postfix
//	postfix     = primary ('[' expression ']' | '(' args ')' | '++' | '--')*
//	primary     = literal | IDENTIFIER | '(' type ')' unary | '(' expression ')'
type Parser struct {
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses an already-lexed token stream as a complete translation unit: a sequence of
// top-level function definitions and global declarations.
func Parse(tokens []token.Token) (*ast.Program, error) {
	p := New(tokens)
	prog := &ast.Program{}
	for p.peek().Type != token.EOF {
		if isTypeSpecifier(p.peek().Type) && p.looksLikeFunction() {
			fn, err := p.parseFunctionDecl()
			if err != nil {
				return nil, err
			}
			prog.Funcs = append(prog.Funcs, fn)
			continue
		}
		if isTypeSpecifier(p.peek().Type) {
			g, err := p.parseGlobalDecl()
			if err != nil {
				return nil, err
			}
			prog.Globals = append(prog.Globals, g)
			continue
		}
		tok := p.peek()
		return nil, p.errf(tok, "expected a type specifier at top level, got %s (%q)", tok.Type, tok.Lexeme)
	}
	return prog, nil
}

// ParseFragment parses one REPL fragment in permissive top-level mode: a
// function definition, a global-style declaration, or any single
// statement (including a bare expression-statement). It returns one of
// *ast.FuncDecl, *ast.DeclStmt, or another ast.Stmt; the caller decides
// how each is bound into a persistent context.
func ParseFragment(tokens []token.Token) (any, error) {
	p := New(tokens)
	if isTypeSpecifier(p.peek().Type) && p.looksLikeFunction() {
		return p.parseFunctionDecl()
	}
	if isTypeSpecifier(p.peek().Type) {
		return p.parseDeclStmt()
	}
	return p.parseStatement()
}

func isTypeSpecifier(t token.Type) bool {
	return t == token.INT || t == token.FLOAT || t == token.CHAR || t == token.VOID
}

func (p *Parser) errf(tok token.Token, format string, args ...any) error {
	return diag.New(diag.KindParseError, tok.Line, tok.Column, format, args...)
}

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	if p.pos+offset >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt token.Type) (token.Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.errf(tok, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	return tok, nil
}

func pos(tok token.Token) ast.Pos { return ast.Pos{Line: tok.Line, Column: tok.Column} }

// looksLikeFunction decides, by lookahead past a type-specifier and
// optional '*', whether the upcoming declaration is a function definition
// (identifier followed by '(') rather than a variable declaration.
func (p *Parser) looksLikeFunction() bool {
	off := 1
	for p.peekAt(off).Type == token.STAR {
		off++
	}
	if p.peekAt(off).Type != token.IDENTIFIER {
		return false
	}
	return p.peekAt(off+1).Type == token.LPAREN
}

//  Type specifiers and declarators

func (p *Parser) parseBaseType() (types.Type, error) {
	tok := p.advance()
	switch tok.Type {
	case token.INT:
		return types.Int, nil
	case token.FLOAT:
		return types.Float, nil
	case token.CHAR:
		return types.Char, nil
	case token.VOID:
		return types.Void, nil
	default:
		return types.Type{}, p.errf(tok, "expected a type specifier, got %s (%q)", tok.Type, tok.Lexeme)
	}
}

// parseDeclarator parses one declarator: a name, optionally preceded by a
// '*' for a pointer, optionally followed by one or more '[' INTEGER ']'
// for an array, optionally followed by '= initializer'.
func (p *Parser) parseDeclarator(base types.Type) (ast.Declarator, error) {
	t := base
	for p.peek().Type == token.STAR {
		p.advance()
		t = types.Pointer(t)
	}

	nameTok, err := p.expect(token.IDENTIFIER)
	if err != nil {
		return ast.Declarator{}, err
	}

	var sizes []int
	for p.peek().Type == token.LBRACKET {
		p.advance()
		sizeTok, err := p.expect(token.INT_LIT)
		if err != nil {
			return ast.Declarator{}, err
		}
		n, convErr := strconv.ParseInt(sizeTok.Lexeme, 0, 64)
		if convErr != nil || n <= 0 {
			return ast.Declarator{}, p.errf(sizeTok, "array size must be a positive integer literal, got %q", sizeTok.Lexeme)
		}
		sizes = append(sizes, int(n))
		if _, err := p.expect(token.RBRACKET); err != nil {
			return ast.Declarator{}, err
		}
	}
	for i := len(sizes) - 1; i >= 0; i-- {
		t = types.Array(t, sizes[i])
	}

	decl := ast.Declarator{Name: nameTok.Lexeme, Type: t}

	if p.peek().Type == token.ASSIGN {
		p.advance()
		if len(sizes) > 0 {
			initList, err := p.parseInitializerList()
			if err != nil {
				return ast.Declarator{}, err
			}
			decl.InitList = initList
		} else {
			val, err := p.parseExpression()
			if err != nil {
				return ast.Declarator{}, err
			}
			decl.Init = val
		}
	}

	return decl, nil
}

func (p *Parser) parseInitializerList() (*ast.InitList, error) {
	brace, err := p.expect(token.LBRACE)
	if err != nil {
		return nil, err
	}
	list := &ast.InitList{Pos: pos(brace)}
	if p.peek().Type != token.RBRACE {
		for {
			if p.peek().Type == token.LBRACE {
				nested, err := p.parseInitializerList()
				if err != nil {
					return nil, err
				}
				list.Elements = append(list.Elements, nested)
			} else {
				e, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				list.Elements = append(list.Elements, e)
			}
			if p.peek().Type != token.COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) parseDeclStmt() (*ast.DeclStmt, error) {
	startTok := p.peek()
	base, err := p.parseBaseType()
	if err != nil {
		return nil, err
	}
	stmt := &ast.DeclStmt{Pos: pos(startTok)}
	for {
		d, err := p.parseDeclarator(base)
		if err != nil {
			return nil, err
		}
		stmt.Declarators = append(stmt.Declarators, d)
		if p.peek().Type != token.COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseGlobalDecl() (*ast.GlobalDecl, error) {
	decl, err := p.parseDeclStmt()
	if err != nil {
		return nil, err
	}
	return &ast.GlobalDecl{Pos: decl.Pos, Declarators: decl.Declarators}, nil
}

//  Function definitions

func (p *Parser) parseFunctionDecl() (*ast.FuncDecl, error) {
	startTok := p.peek()
	ret, err := p.parseBaseType()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == token.STAR {
		p.advance()
		ret = types.Pointer(ret)
	}

	nameTok, err := p.expect(token.IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	var params []ast.Param
	if p.peek().Type != token.RPAREN {
		for {
			pt, err := p.parseBaseType()
			if err != nil {
				return nil, err
			}
			for p.peek().Type == token.STAR {
				p.advance()
				pt = types.Pointer(pt)
			}
			pname, err := p.expect(token.IDENTIFIER)
			if err != nil {
				return nil, err
			}
			// A parameter declared as an array decays to a pointer to its
			// element type at the declarator, since a function can never
			// actually receive an array by value.
			for p.peek().Type == token.LBRACKET {
				p.advance()
				if p.peek().Type != token.RBRACKET {
					if _, err := p.expect(token.INT_LIT); err != nil {
						return nil, err
					}
				}
				if _, err := p.expect(token.RBRACKET); err != nil {
					return nil, err
				}
				pt = types.Pointer(pt)
			}
			params = append(params, ast.Param{Name: pname.Lexeme, Type: pt})
			if p.peek().Type != token.COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	body, err := p.parseBlockStmt()
	if err != nil {
		return nil, err
	}

	return &ast.FuncDecl{Pos: pos(startTok), Name: nameTok.Lexeme, Params: params, Ret: ret, Body: body}, nil
}

//  Statements

func (p *Parser) parseBlockStmt() (*ast.Block, error) {
	brace, err := p.expect(token.LBRACE)
	if err != nil {
		return nil, err
	}
	block := &ast.Block{Pos: pos(brace)}
	for p.peek().Type != token.RBRACE {
		if p.peek().Type == token.EOF {
			return nil, p.errf(p.peek(), "unexpected end of input, expected %s", token.RBRACE)
		}
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, s)
	}
	p.advance() // }
	return block, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	tok := p.peek()
	switch tok.Type {
	case token.LBRACE:
		return p.parseBlockStmt()
	case token.INT, token.FLOAT, token.CHAR, token.VOID:
		return p.parseDeclStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.DO:
		return p.parseDoWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.SWITCH:
		return p.parseSwitchStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.BREAK:
		p.advance()
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.BreakStmt{Pos: pos(tok)}, nil
	case token.CONTINUE:
		p.advance()
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.ContinueStmt{Pos: pos(tok)}, nil
	case token.SEMICOLON:
		p.advance()
		return &ast.EmptyStmt{Pos: pos(tok)}, nil
	default:
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Pos: pos(tok), Value: e}, nil
	}
}

func (p *Parser) parseIfStmt() (ast.Stmt, error) {
	tok := p.advance() // if
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Pos: pos(tok), Cond: cond, Then: then}
	if p.peek().Type == token.ELSE {
		p.advance()
		els, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Else = els
	}
	return stmt, nil
}

func (p *Parser) parseWhileStmt() (ast.Stmt, error) {
	tok := p.advance() // while
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Pos: pos(tok), Cond: cond, Body: body}, nil
}

func (p *Parser) parseDoWhileStmt() (ast.Stmt, error) {
	tok := p.advance() // do
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.WHILE); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.DoWhileStmt{Pos: pos(tok), Body: body, Cond: cond}, nil
}

func (p *Parser) parseForStmt() (ast.Stmt, error) {
	tok := p.advance() // for
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	var init ast.Stmt
	if p.peek().Type == token.SEMICOLON {
		p.advance()
	} else if isTypeSpecifier(p.peek().Type) {
		d, err := p.parseDeclStmt() // consumes trailing ';'
		if err != nil {
			return nil, err
		}
		init = d
	} else {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		init = &ast.ExprStmt{Pos: e.Position(), Value: e}
	}

	var cond ast.Expr
	if p.peek().Type != token.SEMICOLON {
		c, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		cond = c
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	var step ast.Expr
	if p.peek().Type != token.RPAREN {
		s, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		step = s
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Pos: pos(tok), Init: init, Cond: cond, Step: step, Body: body}, nil
}

func (p *Parser) parseSwitchStmt() (ast.Stmt, error) {
	tok := p.advance() // switch
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	val, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}

	stmt := &ast.SwitchStmt{Pos: pos(tok), Value: val}
	for p.peek().Type != token.RBRACE {
		switch p.peek().Type {
		case token.CASE:
			p.advance()
			litTok, err := p.expect(token.INT_LIT)
			if err != nil {
				return nil, err
			}
			n, convErr := strconv.ParseInt(litTok.Lexeme, 0, 64)
			if convErr != nil {
				return nil, p.errf(litTok, "invalid case label %q", litTok.Lexeme)
			}
			if _, err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			c := ast.SwitchCase{Value: n}
			for !startsNewCase(p.peek().Type) {
				s, err := p.parseStatement()
				if err != nil {
					return nil, err
				}
				c.Stmts = append(c.Stmts, s)
			}
			stmt.Cases = append(stmt.Cases, c)
		case token.DEFAULT:
			p.advance()
			if _, err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			c := ast.SwitchCase{IsDefault: true}
			for !startsNewCase(p.peek().Type) {
				s, err := p.parseStatement()
				if err != nil {
					return nil, err
				}
				c.Stmts = append(c.Stmts, s)
			}
			stmt.Cases = append(stmt.Cases, c)
		default:
			return nil, p.errf(p.peek(), "expected 'case' or 'default' in switch body, got %s", p.peek().Type)
		}
	}
	p.advance() // }
	return stmt, nil
}

func startsNewCase(t token.Type) bool {
	return t == token.CASE || t == token.DEFAULT || t == token.RBRACE
}

func (p *Parser) parseReturnStmt() (ast.Stmt, error) {
	tok := p.advance() // return
	stmt := &ast.ReturnStmt{Pos: pos(tok)}
	if p.peek().Type != token.SEMICOLON {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Value = e
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return stmt, nil
}

//  Expressions

func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseAssignment()
}

var assignOps = map[token.Type]string{
	token.ASSIGN:         "=",
	token.PLUS_ASSIGN:    "+=",
	token.MINUS_ASSIGN:   "-=",
	token.STAR_ASSIGN:    "*=",
	token.SLASH_ASSIGN:   "/=",
	token.PERCENT_ASSIGN: "%=",
}

// parseAssignment handles right-associative assignment: "a = b = c"
// parses as "a = (b = c)".
func (p *Parser) parseAssignment() (ast.Expr, error) {
	left, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if op, ok := assignOps[p.peek().Type]; ok {
		tok := p.advance()
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return &ast.AssignExpr{Pos: pos(tok), Op: op, Target: left, Value: right}, nil
	}
	return left, nil
}

// parseTernary handles right-associative ?: .
func (p *Parser) parseTernary() (ast.Expr, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.peek().Type == token.QUESTION {
		tok := p.advance()
		then, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		els, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		return &ast.TernaryExpr{Pos: pos(tok), Cond: cond, Then: then, Else: els}, nil
	}
	return cond, nil
}

func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	expr, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == token.OR_OR {
		tok := p.advance()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		expr = &ast.LogicalExpr{Pos: pos(tok), Op: "||", Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	expr, err := p.parseBitwiseOr()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == token.AND_AND {
		tok := p.advance()
		right, err := p.parseBitwiseOr()
		if err != nil {
			return nil, err
		}
		expr = &ast.LogicalExpr{Pos: pos(tok), Op: "&&", Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) parseBitwiseOr() (ast.Expr, error) {
	expr, err := p.parseBitwiseXor()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == token.PIPE {
		tok := p.advance()
		right, err := p.parseBitwiseXor()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpr{Pos: pos(tok), Op: "|", Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) parseBitwiseXor() (ast.Expr, error) {
	expr, err := p.parseBitwiseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == token.CARET {
		tok := p.advance()
		right, err := p.parseBitwiseAnd()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpr{Pos: pos(tok), Op: "^", Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) parseBitwiseAnd() (ast.Expr, error) {
	expr, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == token.AMP {
		tok := p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpr{Pos: pos(tok), Op: "&", Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	expr, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == token.EQ || p.peek().Type == token.NOT_EQ {
		tok := p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpr{Pos: pos(tok), Op: tok.Type.String(), Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	expr, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for isRelOp(p.peek().Type) {
		tok := p.advance()
		right, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpr{Pos: pos(tok), Op: tok.Type.String(), Left: expr, Right: right}
	}
	return expr, nil
}

func isRelOp(t token.Type) bool {
	return t == token.LESS || t == token.LESS_EQ || t == token.GREATER || t == token.GREATER_EQ
}

func (p *Parser) parseShift() (ast.Expr, error) {
	expr, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == token.SHL || p.peek().Type == token.SHR {
		tok := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpr{Pos: pos(tok), Op: tok.Type.String(), Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	expr, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == token.PLUS || p.peek().Type == token.MINUS {
		tok := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpr{Pos: pos(tok), Op: tok.Type.String(), Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	expr, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == token.STAR || p.peek().Type == token.SLASH || p.peek().Type == token.PERCENT {
		tok := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpr{Pos: pos(tok), Op: tok.Type.String(), Left: expr, Right: right}
	}
	return expr, nil
}

var prefixUnaryOps = map[token.Type]string{
	token.PLUS:        "+",
	token.MINUS:       "-",
	token.NOT:         "!",
	token.TILDE:       "~",
	token.STAR:        "*",
	token.AMP:         "&",
	token.PLUS_PLUS:   "++",
	token.MINUS_MINUS: "--",
}

// parseUnary handles prefix operators and sizeof. "*p++" parses as
// "*(p++)": STAR here binds its operand through the full unary→postfix
// chain, so `p++` parses first and `*` wraps the result.
func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.peek().Type == token.SIZEOF {
		return p.parseSizeof()
	}
	if op, ok := prefixUnaryOps[p.peek().Type]; ok {
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Pos: pos(tok), Op: op, Operand: operand}, nil
	}
	// Cast: '(' type ')' unary
	if p.peek().Type == token.LPAREN && isTypeSpecifier(p.peekAt(1).Type) {
		save := p.pos
		tok := p.advance() // (
		target, err := p.parseBaseType()
		if err != nil {
			return nil, err
		}
		for p.peek().Type == token.STAR {
			p.advance()
			target = types.Pointer(target)
		}
		if p.peek().Type == token.RPAREN {
			p.advance()
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &ast.CastExpr{Pos: pos(tok), Target: target, Value: operand}, nil
		}
		p.pos = save // not actually a cast; fall through to primary
	}
	return p.parsePostfix()
}

func (p *Parser) parseSizeof() (ast.Expr, error) {
	tok := p.advance() // sizeof
	if p.peek().Type == token.LPAREN && isTypeSpecifier(p.peekAt(1).Type) {
		p.advance() // (
		t, err := p.parseBaseType()
		if err != nil {
			return nil, err
		}
		for p.peek().Type == token.STAR {
			p.advance()
			t = types.Pointer(t)
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return &ast.SizeofTypeExpr{Pos: pos(tok), Target: t}, nil
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.SizeofExpr{Pos: pos(tok), Value: operand}, nil
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case token.LBRACKET:
			tok := p.advance()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return nil, err
			}
			expr = &ast.IndexExpr{Pos: pos(tok), Array: expr, Index: idx}
		case token.LPAREN:
			tok := p.advance()
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{Pos: pos(tok), Callee: expr, Args: args}
		case token.PLUS_PLUS, token.MINUS_MINUS:
			tok := p.advance()
			expr = &ast.PostfixExpr{Pos: pos(tok), Op: tok.Type.String(), Operand: expr}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseCallArgs() ([]ast.Expr, error) {
	var args []ast.Expr
	if p.peek().Type != token.RPAREN {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().Type != token.COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case token.INT_LIT:
		p.advance()
		val, err := parseIntLiteral(tok.Lexeme)
		if err != nil {
			return nil, p.errf(tok, "invalid integer literal %q", tok.Lexeme)
		}
		return &ast.IntLit{Pos: pos(tok), Value: val}, nil
	case token.FLOAT_LIT:
		p.advance()
		val, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, p.errf(tok, "invalid floating literal %q", tok.Lexeme)
		}
		return &ast.FloatLit{Pos: pos(tok), Value: val}, nil
	case token.CHAR_LIT:
		p.advance()
		n, _ := strconv.ParseInt(tok.Lexeme, 10, 32)
		return &ast.CharLit{Pos: pos(tok), Value: byte(n)}, nil
	case token.STRING_LIT:
		p.advance()
		return &ast.StringLit{Pos: pos(tok), Value: tok.Lexeme}, nil
	case token.IDENTIFIER:
		p.advance()
		return &ast.Ident{Pos: pos(tok), Name: tok.Lexeme}, nil
	case token.LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, p.errf(tok, "expected expression, got %s (%q)", tok.Type, tok.Lexeme)
	}
}

// parseIntLiteral parses a decimal, 0x-hex, or 0-prefixed octal integer
// literal.
func parseIntLiteral(lexeme string) (int64, error) {
	if strings.HasPrefix(lexeme, "0x") || strings.HasPrefix(lexeme, "0X") {
		return strconv.ParseInt(lexeme[2:], 16, 64)
	}
	if len(lexeme) > 1 && lexeme[0] == '0' {
		return strconv.ParseInt(lexeme[1:], 8, 64)
	}
	return strconv.ParseInt(lexeme, 10, 64)
}
