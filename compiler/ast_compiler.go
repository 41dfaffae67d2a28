package compiler

import (
	"unitrt/ast"
)

// astCompiler lowers one handler's statement list to a ByteFunc, following
// the exact rules of spec.md §4.3. It implements ast.StatementVisitor and
// ast.ExpressionVisitor, panicking with a SemanticError/DeveloperError on
// anything the minimal opcode set cannot express — recovered at the
// CompileUnit boundary, mirroring the teacher's ASTCompiler.CompileAST.
type astCompiler struct {
	fn   ByteFunc
	slot map[string]int // identifier -> reserved local slot
}

func newAstCompiler(name string, params []string) *astCompiler {
	c := &astCompiler{
		fn:   ByteFunc{Name: name, Params: params, Locals: []string{"_tmp"}},
		slot: map[string]int{},
	}
	for _, p := range params {
		c.reserveSlot(p)
	}
	return c
}

func (c *astCompiler) reserveSlot(name string) int {
	if s, ok := c.slot[name]; ok {
		return s
	}
	s := len(c.fn.Locals)
	c.fn.Locals = append(c.fn.Locals, name)
	c.slot[name] = s
	return s
}

func (c *astCompiler) emit(i Instr) { c.fn.Code = append(c.fn.Code, i) }

func (c *astCompiler) addConst(v any) int {
	c.fn.Consts = append(c.fn.Consts, v)
	return len(c.fn.Consts) - 1
}

// CompileUnit compiles every handler of a parsed UnitDecl into a
// CompiledUnit, converting any lowering panic into a returned error
// (spec.md §4.3's "unsupported construct... raises a compile error").
func CompileUnit(u ast.UnitDecl) (cu CompiledUnit, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case SemanticError:
				err = v
			case DeveloperError:
				err = v
			default:
				panic(r)
			}
		}
	}()

	mod := newByteModule(u.Name)
	for _, h := range u.Handlers {
		fn := compileHandler(h)
		mod.ByName[h.Name] = len(mod.Funcs)
		mod.Funcs = append(mod.Funcs, fn)
	}
	return CompiledUnit{Module: mod}, nil
}

func compileHandler(h ast.HandlerDecl) ByteFunc {
	c := newAstCompiler(h.Name, h.Params)
	for _, stmt := range h.Body {
		stmt.Accept(c)
	}

	// Final instructions: a DROP per local in ascending slot order, then RET
	// (spec.md §4.3's contract for every ByteFunc).
	for slot := range c.fn.Locals {
		c.emit(Instr{Op: DROP, A: slot})
	}
	c.emit(Instr{Op: RET})
	return c.fn
}

// --- Statement lowering ---

func (c *astCompiler) VisitAssign(s *ast.AssignStmt) any {
	slot := c.reserveSlot(s.Name)
	c.compileAssignRHS(s.Rhs, slot)
	return nil
}

func (c *astCompiler) VisitLocalDecl(s *ast.LocalDeclStmt) any {
	slot := c.reserveSlot(s.Name)
	if s.Init != nil {
		c.compileAssignRHS(s.Init, slot)
	}
	return nil
}

// compileAssignRHS implements the `x = ...` lowering table of spec.md
// §4.3: number/string constants, identifier loads via LOAD_GLOBAL, and
// Spawn with a literal string argument. Anything else is a compile error.
func (c *astCompiler) compileAssignRHS(rhs ast.Expression, slot int) {
	switch e := rhs.(type) {
	case *ast.NumberExpr:
		idx := c.addConst(e.Value)
		c.emit(Instr{Op: LOAD_NUM, A: idx, B: slot})
	case *ast.StringExpr:
		idx := c.addConst(e.Value)
		c.emit(Instr{Op: LOAD_STR, A: idx, B: slot})
	case *ast.IdentExpr:
		c.emit(Instr{Op: LOAD_GLOBAL, S: e.Name, B: slot})
	case *ast.CallExpr:
		switch e.CalleeName {
		case "Spawn":
			idx := c.spawnConstIndex(e)
			c.emit(Instr{Op: SPAWN, A: idx, B: slot})
		case "Print":
			panic(SemanticError{Message: "cannot assign from Print"})
		default:
			panic(SemanticError{Message: "unsupported call in assignment: " + e.CalleeName})
		}
	default:
		panic(SemanticError{Message: "unsupported assignment right-hand side"})
	}
}

// spawnConstIndex validates Spawn's single string-literal argument and
// returns its constant pool index.
func (c *astCompiler) spawnConstIndex(call *ast.CallExpr) int {
	if len(call.Args) != 1 {
		panic(SemanticError{Message: "Spawn requires exactly one argument"})
	}
	lit, ok := call.Args[0].(*ast.StringExpr)
	if !ok {
		panic(SemanticError{Message: "Spawn argument must be a string literal"})
	}
	return c.addConst(lit.Value)
}

func (c *astCompiler) VisitExprStmt(s *ast.ExprStmt) any {
	call, ok := s.Expr.(*ast.CallExpr)
	if !ok {
		panic(SemanticError{Message: "unsupported expression statement"})
	}

	switch call.CalleeName {
	case "Spawn":
		idx := c.spawnConstIndex(call)
		c.emit(Instr{Op: SPAWN, A: idx, B: LastSlot})
		c.emit(Instr{Op: DROP, A: LastSlot})
	case "Print":
		if len(call.Args) != 1 {
			panic(SemanticError{Message: "Print requires exactly one argument"})
		}
		c.compilePrintArg(call.Args[0])
		c.emit(Instr{Op: PRINT})
	default:
		panic(SemanticError{Message: "unsupported call statement: " + call.CalleeName})
	}
	return nil
}

// compilePrintArg loads Print's argument into the tmp slot (spec.md §4.3:
// "load arg as above (ident/string/number), then PRINT").
func (c *astCompiler) compilePrintArg(arg ast.Expression) {
	switch e := arg.(type) {
	case *ast.NumberExpr:
		idx := c.addConst(e.Value)
		c.emit(Instr{Op: LOAD_NUM, A: idx, B: TmpSlot})
	case *ast.StringExpr:
		idx := c.addConst(e.Value)
		c.emit(Instr{Op: LOAD_STR, A: idx, B: TmpSlot})
	case *ast.IdentExpr:
		c.emit(Instr{Op: LOAD_GLOBAL, S: e.Name, B: TmpSlot})
	default:
		panic(SemanticError{Message: "unsupported Print argument"})
	}
}

// unsupported reports a user-reachable compile error: valid grammar the
// minimal opcode set still can't lower (spec.md §4.3's control-flow
// carve-out).
func (c *astCompiler) unsupported(construct string) any {
	panic(SemanticError{Message: "unsupported construct in minimal opcode lowering: " + construct})
}

func (c *astCompiler) VisitIf(s *ast.IfStmt) any           { return c.unsupported("if") }
func (c *astCompiler) VisitWhile(s *ast.WhileStmt) any     { return c.unsupported("while") }
func (c *astCompiler) VisitForeach(s *ast.ForeachStmt) any { return c.unsupported("foreach") }
func (c *astCompiler) VisitReturn(s *ast.ReturnStmt) any   { return c.unsupported("return") }

// --- Expression lowering: every RHS and Print/Spawn argument this
// compiler accepts is matched directly by type switch in compileAssignRHS
// and compilePrintArg, never by calling Expression.Accept. These
// ExpressionVisitor methods exist only so astCompiler satisfies the
// interface; reaching one means the compiler's own dispatch logic, not
// the source program, is at fault, so they raise DeveloperError rather
// than SemanticError. ---

func (c *astCompiler) unreachableExpr(construct string) any {
	panic(DeveloperError{Message: "expression visitor unexpectedly invoked for " + construct + " — compiler should type-switch directly instead of calling Accept"})
}

func (c *astCompiler) VisitNumber(e *ast.NumberExpr) any   { return c.unreachableExpr("NumberExpr") }
func (c *astCompiler) VisitString(e *ast.StringExpr) any   { return c.unreachableExpr("StringExpr") }
func (c *astCompiler) VisitBoolean(e *ast.BooleanExpr) any { return c.unreachableExpr("BooleanExpr") }
func (c *astCompiler) VisitNil(e *ast.NilExpr) any         { return c.unreachableExpr("NilExpr") }
func (c *astCompiler) VisitIdent(e *ast.IdentExpr) any     { return c.unreachableExpr("IdentExpr") }
func (c *astCompiler) VisitCall(e *ast.CallExpr) any       { return c.unreachableExpr("CallExpr") }
func (c *astCompiler) VisitFuncLiteral(e *ast.FuncLiteralExpr) any {
	return c.unreachableExpr("FuncLiteralExpr")
}
