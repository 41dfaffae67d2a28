// Package parser turns a token stream into a Program AST (spec.md §4.2).
//
// Expressions are parsed by a precedence-climbing Pratt parser, the same
// mechanism the teacher's bytecode compiler uses for its prefix/infix
// dispatch table — here it is moved up a layer to build AST nodes rather
// than emit bytecode directly, since statement parsing and bytecode
// lowering are separate stages in this design.
package parser

import (
	"fmt"

	"unitrt/ast"
	"unitrt/token"
)

// Precedence levels, lowest to highest (spec.md §4.2's table).
const (
	precNone = iota
	precAssignment // =
	precPipe       // |
	precAmp        // &
	precEquality   // == !=
	precCompare    // < <= > >=
	precTerm       // + -
	precFactor     // * / %
	precUnary      // prefix !
	precPostfix    // postfix ++ --
	precCall       // ( [
)

type prefixFn func(p *Parser) ast.Expression
type infixFn func(p *Parser, left ast.Expression) ast.Expression

type parseRule struct {
	prefix     prefixFn
	infix      infixFn
	precedence int
}

// Parser is a predictive, single-token-lookahead parser over an eagerly
// tokenized stream (teacher's Parser shape, generalized to the richer
// grammar).
type Parser struct {
	tokens   []token.Token
	position int // index of the current token
	rules    map[token.TokenType]parseRule
}

func New(tokens []token.Token) *Parser {
	p := &Parser{tokens: tokens}
	p.rules = map[token.TokenType]parseRule{
		token.NUMBER:     {prefix: parseNumber},
		token.STRING:     {prefix: parseString},
		token.TRUE:       {prefix: parseBoolean},
		token.FALSE:      {prefix: parseBoolean},
		token.NIL:        {prefix: parseNil},
		token.IDENTIFIER: {prefix: parseIdentOrLiteral},
		token.LPAREN:     {prefix: parseGroupingOrFuncLiteral, infix: parseCall, precedence: precCall},
		token.LBRACKET:   {infix: parseIndex, precedence: precCall},
		token.BANG:       {prefix: parsePrefixOp},
		token.MINUS:      {prefix: parsePrefixOp, infix: parseBinary, precedence: precTerm},
		token.PLUS_PLUS:  {prefix: parsePrefixOp, infix: parsePostfixOp, precedence: precPostfix},
		token.MINUS_MINUS: {prefix: parsePrefixOp, infix: parsePostfixOp, precedence: precPostfix},
		token.PLUS:       {infix: parseBinary, precedence: precTerm},
		token.STAR:       {infix: parseBinary, precedence: precFactor},
		token.SLASH:      {infix: parseBinary, precedence: precFactor},
		token.PERCENT:    {infix: parseBinary, precedence: precFactor},
		token.LESS:       {infix: parseBinary, precedence: precCompare},
		token.LESS_EQUAL: {infix: parseBinary, precedence: precCompare},
		token.GREATER:    {infix: parseBinary, precedence: precCompare},
		token.GREATER_EQUAL: {infix: parseBinary, precedence: precCompare},
		token.EQUAL_EQUAL: {infix: parseBinary, precedence: precEquality},
		token.NOT_EQUAL:  {infix: parseBinary, precedence: precEquality},
		token.AMP:        {infix: parseBinary, precedence: precAmp},
		token.PIPE:       {infix: parseBinary, precedence: precPipe},
		token.ASSIGN:     {infix: parseAssignExpr, precedence: precAssignment},
	}
	return p
}

func (p *Parser) cur() token.Token  { return p.tokens[p.position] }
func (p *Parser) peekNext() token.Token {
	if p.position+1 < len(p.tokens) {
		return p.tokens[p.position+1]
	}
	return p.tokens[len(p.tokens)-1]
}
func (p *Parser) atEnd() bool { return p.cur().Type == token.EOF }
func (p *Parser) advance() token.Token {
	t := p.cur()
	if !p.atEnd() {
		p.position++
	}
	return t
}

func (p *Parser) check(tt token.TokenType) bool { return p.cur().Type == tt }

func (p *Parser) expect(tt token.TokenType, expected string) token.Token {
	if p.check(tt) {
		return p.advance()
	}
	panic(CreateSyntaxError(p.cur().Line, p.cur().Column, expected, p.cur().Lexeme))
}

func (p *Parser) getRule(tt token.TokenType) parseRule { return p.rules[tt] }

// Parse consumes the full token stream and returns the resulting Program,
// converting any parse panic into a returned error.
func Parse(tokens []token.Token) (prog ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case SyntaxError:
				err = v
			default:
				panic(r)
			}
		}
	}()
	p := New(tokens)
	for !p.atEnd() {
		prog.Units = append(prog.Units, p.parseUnit())
	}
	return prog, nil
}

func (p *Parser) parseUnit() ast.UnitDecl {
	tok := p.expect(token.UNIT, "'unit'")
	name := p.expect(token.IDENTIFIER, "unit name")
	p.expect(token.LBRACE, "'{'")

	unit := ast.UnitDecl{Name: name.Lexeme, Line: tok.Line}
	var superInit []ast.Statement

	for !p.check(token.RBRACE) && !p.atEnd() {
		if p.check(token.ON) {
			unit.Handlers = append(unit.Handlers, p.parseHandler())
			continue
		}
		superInit = append(superInit, p.parseStatement())
	}
	p.expect(token.RBRACE, "'}'")

	if len(superInit) > 0 {
		unit.Handlers = append([]ast.HandlerDecl{{
			Name: ast.SuperInitHandler,
			Body: superInit,
			Line: tok.Line,
		}}, unit.Handlers...)
	}
	return unit
}

func (p *Parser) parseHandler() ast.HandlerDecl {
	tok := p.expect(token.ON, "'on'")
	name := p.expect(token.IDENTIFIER, "handler name")
	p.expect(token.ARROW, "'->'")
	p.expect(token.LPAREN, "'('")

	var params []string
	for !p.check(token.RPAREN) {
		params = append(params, p.expect(token.IDENTIFIER, "parameter name").Lexeme)
		if !p.check(token.RPAREN) {
			p.expect(token.COMMA, "','")
		}
	}
	p.expect(token.RPAREN, "')'")

	h := ast.HandlerDecl{Name: name.Lexeme, Params: params, Line: tok.Line}
	for !p.check(token.END) && !p.atEnd() {
		h.Body = append(h.Body, p.parseStatement())
	}
	p.expect(token.END, "'end'")
	return h
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur().Type {
	case token.LOCAL:
		return p.parseLocalDecl()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOREACH:
		return p.parseForeach()
	case token.RETURN:
		return p.parseReturn()
	default:
		return p.parseAssignOrExprStatement()
	}
}

func (p *Parser) parseLocalDecl() ast.Statement {
	tok := p.expect(token.LOCAL, "'local'")
	name := p.expect(token.IDENTIFIER, "local name")
	s := &ast.LocalDeclStmt{Name: name.Lexeme, Line: tok.Line}
	if p.check(token.ASSIGN) {
		p.advance()
		s.Init = p.parseExpression(precAssignment)
	}
	p.expect(token.SEMICOLON, "';'")
	return s
}

func (p *Parser) parseBlockUntil(terminators ...token.TokenType) []ast.Statement {
	var body []ast.Statement
	for !p.atEnd() && !p.atAnyOf(terminators...) {
		body = append(body, p.parseStatement())
	}
	return body
}

func (p *Parser) atAnyOf(tts ...token.TokenType) bool {
	for _, tt := range tts {
		if p.check(tt) {
			return true
		}
	}
	return false
}

func (p *Parser) parseIf() ast.Statement {
	tok := p.expect(token.IF, "'if'")
	s := &ast.IfStmt{Line: tok.Line}
	s.Cond = p.parseExpression(precAssignment)
	s.Then = p.parseBlockUntil(token.ELSEIF, token.ELSE, token.END)

	for p.check(token.ELSEIF) {
		p.advance()
		cond := p.parseExpression(precAssignment)
		body := p.parseBlockUntil(token.ELSEIF, token.ELSE, token.END)
		s.ElseIf = append(s.ElseIf, ast.ElseIfClause{Cond: cond, Body: body})
	}

	if p.check(token.ELSE) {
		p.advance()
		s.Else = p.parseBlockUntil(token.END)
	}
	p.expect(token.END, "'end'")
	return s
}

func (p *Parser) parseWhile() ast.Statement {
	tok := p.expect(token.WHILE, "'while'")
	cond := p.parseExpression(precAssignment)
	body := p.parseBlockUntil(token.END)
	p.expect(token.END, "'end'")
	return &ast.WhileStmt{Cond: cond, Body: body, Line: tok.Line}
}

func (p *Parser) parseForeach() ast.Statement {
	tok := p.expect(token.FOREACH, "'foreach'")
	varName := p.expect(token.IDENTIFIER, "loop variable")
	p.expect(token.IN, "'in'")
	iter := p.parseExpression(precAssignment)
	body := p.parseBlockUntil(token.END)
	p.expect(token.END, "'end'")
	return &ast.ForeachStmt{Var: varName.Lexeme, Iter: iter, Body: body, Line: tok.Line}
}

func (p *Parser) parseReturn() ast.Statement {
	tok := p.expect(token.RETURN, "'return'")
	s := &ast.ReturnStmt{Line: tok.Line}
	if !p.check(token.SEMICOLON) {
		s.Expr = p.parseExpression(precAssignment)
	}
	p.expect(token.SEMICOLON, "';'")
	return s
}

// parseAssignOrExprStatement handles `Ident = expr;`, `Ident(args);` and any
// other bare expression statement (spec.md §4.2's assign/call_stmt/expr_stmt).
func (p *Parser) parseAssignOrExprStatement() ast.Statement {
	line := p.cur().Line
	if p.check(token.IDENTIFIER) && p.peekNext().Type == token.ASSIGN {
		name := p.advance()
		p.advance() // '='
		rhs := p.parseExpression(precAssignment)
		p.expect(token.SEMICOLON, "';'")
		return &ast.AssignStmt{Name: name.Lexeme, Rhs: rhs, Line: line}
	}
	expr := p.parseExpression(precAssignment)
	p.expect(token.SEMICOLON, "';'")
	return &ast.ExprStmt{Expr: expr, Line: line}
}

// parseExpression runs the Pratt precedence loop: parse a prefix, then keep
// consuming infix operators whose precedence is >= minPrec.
func (p *Parser) parseExpression(minPrec int) ast.Expression {
	rule := p.getRule(p.cur().Type)
	if rule.prefix == nil {
		panic(CreateSyntaxError(p.cur().Line, p.cur().Column, "expression", p.cur().Lexeme))
	}
	left := rule.prefix(p)

	for {
		rule = p.getRule(p.cur().Type)
		if rule.infix == nil || rule.precedence < minPrec {
			break
		}
		left = rule.infix(p, left)
	}
	return left
}

func parseNumber(p *Parser) ast.Expression {
	tok := p.advance()
	var v float64
	fmt.Sscanf(tok.Lexeme, "%g", &v)
	return &ast.NumberExpr{Value: v, Line: tok.Line}
}

func parseString(p *Parser) ast.Expression {
	tok := p.advance()
	return &ast.StringExpr{Value: tok.Lexeme, Line: tok.Line}
}

func parseBoolean(p *Parser) ast.Expression {
	tok := p.advance()
	return &ast.BooleanExpr{Value: tok.Type == token.TRUE, Line: tok.Line}
}

func parseNil(p *Parser) ast.Expression {
	tok := p.advance()
	return &ast.NilExpr{Line: tok.Line}
}

func parseIdentOrLiteral(p *Parser) ast.Expression {
	tok := p.advance()
	return &ast.IdentExpr{Name: tok.Lexeme, Line: tok.Line}
}

// parsePrefixOp handles prefix !, -, ++, --, lowering to a unary Call node
// whose callee name is the operator spelling (spec.md §3.2).
func parsePrefixOp(p *Parser) ast.Expression {
	op := p.advance()
	operand := p.parseExpression(precUnary)
	return &ast.CallExpr{CalleeName: op.Lexeme, Args: []ast.Expression{operand}, Line: op.Line}
}

// parsePostfixOp handles postfix ++/--.
func parsePostfixOp(p *Parser, left ast.Expression) ast.Expression {
	op := p.advance()
	return &ast.CallExpr{CalleeName: op.Lexeme, Args: []ast.Expression{left}, Line: op.Line}
}

func parseBinary(p *Parser, left ast.Expression) ast.Expression {
	op := p.advance()
	rule := p.getRule(op.Type)
	right := p.parseExpression(rule.precedence + 1) // left-associative: bind tighter on the right
	return &ast.CallExpr{CalleeName: op.Lexeme, Args: []ast.Expression{left, right}, Line: op.Line}
}

// parseAssignExpr implements right-associative `=` (spec.md P3): the same
// precedence is used for the right operand so `a = b = c` nests as
// `a = (b = c)`.
func parseAssignExpr(p *Parser, left ast.Expression) ast.Expression {
	op := p.advance()
	right := p.parseExpression(precAssignment)
	return &ast.CallExpr{CalleeName: op.Lexeme, Args: []ast.Expression{left, right}, Line: op.Line}
}

func parseIndex(p *Parser, left ast.Expression) ast.Expression {
	tok := p.advance() // '['
	idx := p.parseExpression(precAssignment)
	p.expect(token.RBRACKET, "']'")
	return &ast.CallExpr{CalleeName: "[index]", Args: []ast.Expression{left, idx}, Line: tok.Line}
}

// parseCall handles a call whose target is the just-parsed left expression.
// When the target is a plain identifier its name is the callee; otherwise
// the call lowers to callee "<call>" with the target as the first argument
// (spec.md §3.2).
func parseCall(p *Parser, left ast.Expression) ast.Expression {
	tok := p.advance() // '('
	args := p.parseArgList()
	p.expect(token.RPAREN, "')'")

	if ident, ok := left.(*ast.IdentExpr); ok {
		return &ast.CallExpr{CalleeName: ident.Name, Args: args, Line: tok.Line}
	}
	return &ast.CallExpr{CalleeName: "<call>", Args: append([]ast.Expression{left}, args...), Line: tok.Line}
}

func (p *Parser) parseArgList() []ast.Expression {
	var args []ast.Expression
	for !p.check(token.RPAREN) {
		args = append(args, p.parseExpression(precAssignment))
		if !p.check(token.RPAREN) {
			p.expect(token.COMMA, "','")
		}
	}
	return args
}

// statementStartKeywords are the tokens that, following a tentatively
// parsed `(params)` list, commit the parse to a function literal rather
// than a grouped expression (spec.md §4.2).
var statementStartKeywords = map[token.TokenType]bool{
	token.END:     true,
	token.LOCAL:   true,
	token.IF:      true,
	token.WHILE:   true,
	token.FOREACH: true,
	token.RETURN:  true,
}

// parseGroupingOrFuncLiteral disambiguates `(` in expression position via
// non-destructive lookahead: since this parser tokenizes eagerly, "cloning
// the lexer" degenerates to saving and restoring a token index, which
// leaves no observable state difference if the attempt is abandoned
// (spec.md §4.2, P7).
func parseGroupingOrFuncLiteral(p *Parser) ast.Expression {
	tok := p.cur()
	saved := p.position

	if params, ok := p.tryParseParamList(); ok && statementStartKeywords[p.cur().Type] {
		var body []ast.Statement
		for !p.check(token.END) && !p.atEnd() {
			body = append(body, p.parseStatement())
		}
		p.expect(token.END, "'end'")
		return &ast.FuncLiteralExpr{Params: params, Body: body, Line: tok.Line}
	}

	p.position = saved
	p.expect(token.LPAREN, "'('")
	inner := p.parseExpression(precAssignment)
	p.expect(token.RPAREN, "')'")
	return inner
}

// tryParseParamList attempts to consume `(Ident (',' Ident)*)?  )` starting
// at the current `(`. It never panics: on mismatch it returns ok=false and
// leaves the parser position wherever it got to (the caller restores it).
func (p *Parser) tryParseParamList() (params []string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	if !p.check(token.LPAREN) {
		return nil, false
	}
	p.advance()
	for !p.check(token.RPAREN) {
		if !p.check(token.IDENTIFIER) {
			return nil, false
		}
		params = append(params, p.advance().Lexeme)
		if p.check(token.COMMA) {
			p.advance()
		} else if !p.check(token.RPAREN) {
			return nil, false
		}
	}
	p.advance() // ')'
	return params, true
}
