package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"unitrt/ast"
)

const (
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// astPrinter implements ast.ExpressionVisitor/ast.StatementVisitor and
// builds a JSON-friendly representation of the AST using maps and slices.
type astPrinter struct{}

func (p astPrinter) VisitNumber(e *ast.NumberExpr) any {
	return map[string]any{"type": "Number", "value": e.Value}
}

func (p astPrinter) VisitString(e *ast.StringExpr) any {
	return map[string]any{"type": "String", "value": e.Value}
}

func (p astPrinter) VisitBoolean(e *ast.BooleanExpr) any {
	return map[string]any{"type": "Boolean", "value": e.Value}
}

func (p astPrinter) VisitNil(e *ast.NilExpr) any {
	return map[string]any{"type": "Nil"}
}

func (p astPrinter) VisitIdent(e *ast.IdentExpr) any {
	return map[string]any{"type": "Ident", "name": e.Name}
}

func (p astPrinter) VisitCall(e *ast.CallExpr) any {
	args := make([]any, 0, len(e.Args))
	for _, a := range e.Args {
		args = append(args, a.Accept(p))
	}
	return map[string]any{"type": "Call", "callee": e.CalleeName, "args": args}
}

func (p astPrinter) VisitFuncLiteral(e *ast.FuncLiteralExpr) any {
	return map[string]any{
		"type":   "FuncLiteral",
		"params": e.Params,
		"body":   p.statements(e.Body),
	}
}

func (p astPrinter) VisitAssign(s *ast.AssignStmt) any {
	return map[string]any{"type": "Assign", "name": s.Name, "rhs": s.Rhs.Accept(p)}
}

func (p astPrinter) VisitLocalDecl(s *ast.LocalDeclStmt) any {
	return map[string]any{"type": "LocalDecl", "name": s.Name, "init": nilOrAccept(s.Init, p)}
}

func (p astPrinter) VisitExprStmt(s *ast.ExprStmt) any {
	return map[string]any{"type": "ExprStmt", "expr": s.Expr.Accept(p)}
}

func (p astPrinter) VisitIf(s *ast.IfStmt) any {
	elseIf := make([]any, 0, len(s.ElseIf))
	for _, clause := range s.ElseIf {
		elseIf = append(elseIf, map[string]any{
			"cond": clause.Cond.Accept(p),
			"body": p.statements(clause.Body),
		})
	}
	return map[string]any{
		"type":   "If",
		"cond":   s.Cond.Accept(p),
		"then":   p.statements(s.Then),
		"elseif": elseIf,
		"else":   p.statements(s.Else),
	}
}

func (p astPrinter) VisitWhile(s *ast.WhileStmt) any {
	return map[string]any{"type": "While", "cond": s.Cond.Accept(p), "body": p.statements(s.Body)}
}

func (p astPrinter) VisitForeach(s *ast.ForeachStmt) any {
	return map[string]any{
		"type": "Foreach",
		"var":  s.Var,
		"iter": s.Iter.Accept(p),
		"body": p.statements(s.Body),
	}
}

func (p astPrinter) VisitReturn(s *ast.ReturnStmt) any {
	return map[string]any{"type": "Return", "expr": nilOrAccept(s.Expr, p)}
}

func (p astPrinter) statements(stmts []ast.Statement) []any {
	out := make([]any, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, s.Accept(p))
	}
	return out
}

func nilOrAccept(e ast.Expression, v ast.ExpressionVisitor) any {
	if e == nil {
		return nil
	}
	return e.Accept(v)
}

// PrintASTJSON converts a Program into a prettified JSON string.
func PrintASTJSON(prog ast.Program) (string, error) {
	printer := astPrinter{}
	units := make([]any, 0, len(prog.Units))
	for _, u := range prog.Units {
		handlers := make([]any, 0, len(u.Handlers))
		for _, h := range u.Handlers {
			handlers = append(handlers, map[string]any{
				"name":   h.Name,
				"params": h.Params,
				"body":   printer.statements(h.Body),
			})
		}
		units = append(units, map[string]any{"name": u.Name, "handlers": handlers})
	}

	bytes, err := json.MarshalIndent(units, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// PrintAST writes the AST as colorized JSON to standard output.
func PrintAST(prog ast.Program) error {
	s, err := PrintASTJSON(prog)
	if err != nil {
		return err
	}
	fmt.Println(colorYellow + "----- AST JSON -----")
	fmt.Println(colorYellow + s)
	fmt.Println(colorYellow + "-----" + colorReset)
	return nil
}

// WriteASTJSONToFile writes the prettified AST JSON to the given file path.
func WriteASTJSONToFile(prog ast.Program, path string) error {
	s, err := PrintASTJSON(prog)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating AST file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(s); err != nil {
		return fmt.Errorf("error writing AST to file: %w", err)
	}
	return nil
}
