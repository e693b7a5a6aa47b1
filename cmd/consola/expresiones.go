package main

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"strings"
)

// evaluarNumero interpreta un entero sin signo de 64 bits escrito como
// literal de Go o como expresión entera, por ejemplo
// (123<<27)+(456<<18)+(379<<9)+457.
func evaluarNumero(texto string) (uint64, error) {
	texto = strings.TrimSpace(texto)
	if texto == "" {
		return 0, fmt.Errorf("falta un número")
	}

	expr, err := parser.ParseExpr(texto)
	if err != nil {
		return 0, fmt.Errorf("expresión inválida %q: %v", texto, err)
	}
	valor, err := evaluar(expr)
	if err != nil {
		return 0, fmt.Errorf("expresión %q: %w", texto, err)
	}

	n, exacto := constant.Uint64Val(valor)
	if !exacto {
		return 0, fmt.Errorf("%q = %s no entra en 64 bits sin signo", texto, valor.ExactString())
	}
	return n, nil
}

func evaluar(expr ast.Expr) (constant.Value, error) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind != token.INT {
			return nil, fmt.Errorf("%s no es un entero", e.Value)
		}
		valor := constant.MakeFromLiteral(e.Value, e.Kind, 0)
		if valor.Kind() != constant.Int {
			return nil, fmt.Errorf("literal %s inválido", e.Value)
		}
		return valor, nil

	case *ast.ParenExpr:
		return evaluar(e.X)

	case *ast.UnaryExpr:
		if e.Op != token.ADD && e.Op != token.SUB {
			return nil, fmt.Errorf("operador %s no soportado", e.Op)
		}
		x, err := evaluar(e.X)
		if err != nil {
			return nil, err
		}
		return constant.UnaryOp(e.Op, x, 0), nil

	case *ast.BinaryExpr:
		x, err := evaluar(e.X)
		if err != nil {
			return nil, err
		}
		y, err := evaluar(e.Y)
		if err != nil {
			return nil, err
		}
		return operar(e.Op, x, y)

	default:
		return nil, fmt.Errorf("solo se admiten enteros, paréntesis y operadores aritméticos")
	}
}

func operar(op token.Token, x, y constant.Value) (constant.Value, error) {
	switch op {
	case token.SHL, token.SHR:
		s, ok := constant.Uint64Val(y)
		if !ok || s > 64 {
			return nil, fmt.Errorf("desplazamiento %s fuera de rango", y)
		}
		return constant.Shift(x, op, uint(s)), nil
	case token.ADD, token.SUB, token.MUL, token.OR, token.AND, token.XOR, token.AND_NOT:
		return constant.BinaryOp(x, op, y), nil
	case token.QUO, token.REM:
		if constant.Sign(y) == 0 {
			return nil, fmt.Errorf("división por cero")
		}
		if op == token.QUO {
			// QUO_ASSIGN fuerza la división entera
			op = token.QUO_ASSIGN
		}
		return constant.BinaryOp(x, op, y), nil
	default:
		return nil, fmt.Errorf("operador %s no soportado", op)
	}
}
