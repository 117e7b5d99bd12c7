// Copyright (c) 2021-2024 SigScalr, Inc.
//
// This file is part of SigLens Observability Solution
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package sql

import (
	"fmt"
	"strconv"
	"strings"

	structs "github.com/siglens/facetstats/pkg/segment/structs"
	log "github.com/sirupsen/logrus"
	"github.com/xwb1989/sqlparser"
)

// function name -> NumericExpr operator
var unaryFunctions = map[string]string{
	"abs":     "abs",
	"ceil":    "ceil",
	"ceiling": "ceil",
	"floor":   "floor",
	"round":   "round",
	"sqrt":    "sqrt",
	"ln":      "ln",
	"log":     "ln",
	"log10":   "log10",
	"exp":     "exp",
}

var binaryFunctions = map[string]string{
	"pow":      "pow",
	"power":    "pow",
	"min":      "min",
	"least":    "min",
	"max":      "max",
	"greatest": "max",
}

var binaryOperators = map[string]string{
	sqlparser.PlusStr:  "+",
	sqlparser.MinusStr: "-",
	sqlparser.MultStr:  "*",
	sqlparser.DivStr:   "/",
	sqlparser.ModStr:   "%",
}

const scoreFieldName = "_score"

// ParseValueScript parses a SQL style arithmetic expression, such as
// "price * quantity - discount" or "round(latency / 1000) + _score", into a
// NumericExpr. Dotted names refer to flattened fields; a leading "doc."
// qualifier is ignored.
func ParseValueScript(script string) (*structs.NumericExpr, error) {
	if strings.TrimSpace(script) == "" {
		return nil, fmt.Errorf("ParseValueScript: empty script")
	}

	stmt, err := sqlparser.Parse("select " + script + " from dual")
	if err != nil {
		log.Errorf("ParseValueScript: sql parser failed for script %v, err: %v", script, err)
		return nil, fmt.Errorf("ParseValueScript: invalid script %v: %w", script, err)
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, fmt.Errorf("ParseValueScript: script %v is not an expression", script)
	}
	if len(sel.SelectExprs) != 1 {
		return nil, fmt.Errorf("ParseValueScript: script %v must be a single expression, found %d", script, len(sel.SelectExprs))
	}
	aliased, ok := sel.SelectExprs[0].(*sqlparser.AliasedExpr)
	if !ok {
		return nil, fmt.Errorf("ParseValueScript: unsupported expression %v", sqlparser.String(sel.SelectExprs[0]))
	}
	if !aliased.As.IsEmpty() {
		return nil, fmt.Errorf("ParseValueScript: aliases are not supported in script %v", script)
	}

	return convertToNumericExpr(aliased.Expr)
}

func convertToNumericExpr(expr sqlparser.Expr) (*structs.NumericExpr, error) {
	switch e := expr.(type) {
	case *sqlparser.SQLVal:
		if e.Type != sqlparser.IntVal && e.Type != sqlparser.FloatVal {
			return nil, fmt.Errorf("convertToNumericExpr: %v is not a number", sqlparser.String(e))
		}
		value, err := strconv.ParseFloat(string(e.Val), 64)
		if err != nil {
			return nil, fmt.Errorf("convertToNumericExpr: cannot convert %v to float: %w", string(e.Val), err)
		}
		return &structs.NumericExpr{
			IsTerminal:      true,
			Number:          value,
			NumericExprMode: structs.NEMNumber,
		}, nil

	case *sqlparser.ColName:
		name := columnName(e)
		if name == scoreFieldName {
			return &structs.NumericExpr{IsTerminal: true, NumericExprMode: structs.NEMScore}, nil
		}
		return &structs.NumericExpr{
			IsTerminal:      true,
			ValueIsField:    true,
			Value:           name,
			NumericExprMode: structs.NEMNumberField,
		}, nil

	case *sqlparser.ParenExpr:
		return convertToNumericExpr(e.Expr)

	case *sqlparser.UnaryExpr:
		operand, err := convertToNumericExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		switch e.Operator {
		case sqlparser.UPlusStr:
			return operand, nil
		case sqlparser.UMinusStr:
			return createNumericExpr("neg", operand, nil)
		}
		return nil, fmt.Errorf("convertToNumericExpr: unsupported unary operator %v", e.Operator)

	case *sqlparser.BinaryExpr:
		op, ok := binaryOperators[e.Operator]
		if !ok {
			return nil, fmt.Errorf("convertToNumericExpr: unsupported operator %v", e.Operator)
		}
		left, err := convertToNumericExpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := convertToNumericExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return createNumericExpr(op, left, right)

	case *sqlparser.FuncExpr:
		return convertFunction(e)

	default:
		return nil, fmt.Errorf("convertToNumericExpr: unsupported expression type %T in %v", expr, sqlparser.String(expr))
	}
}

func convertFunction(e *sqlparser.FuncExpr) (*structs.NumericExpr, error) {
	funcName := e.Name.Lowered()
	if e.Distinct {
		return nil, fmt.Errorf("convertFunction: distinct is not supported in %v", funcName)
	}

	args := make([]*structs.NumericExpr, 0, len(e.Exprs))
	for _, arg := range e.Exprs {
		aliased, ok := arg.(*sqlparser.AliasedExpr)
		if !ok {
			return nil, fmt.Errorf("convertFunction: unsupported argument %v of %v", sqlparser.String(arg), funcName)
		}
		converted, err := convertToNumericExpr(aliased.Expr)
		if err != nil {
			return nil, err
		}
		args = append(args, converted)
	}

	if op, ok := unaryFunctions[funcName]; ok {
		if len(args) != 1 {
			return nil, fmt.Errorf("convertFunction: %v takes 1 argument, got %d", funcName, len(args))
		}
		return createNumericExpr(op, args[0], nil)
	}
	if op, ok := binaryFunctions[funcName]; ok {
		if len(args) != 2 {
			return nil, fmt.Errorf("convertFunction: %v takes 2 arguments, got %d", funcName, len(args))
		}
		return createNumericExpr(op, args[0], args[1])
	}

	return nil, fmt.Errorf("convertFunction: unsupported function %v", funcName)
}

func columnName(col *sqlparser.ColName) string {
	parts := make([]string, 0, 3)
	if q := col.Qualifier.Qualifier.String(); q != "" {
		parts = append(parts, q)
	}
	if q := col.Qualifier.Name.String(); q != "" {
		parts = append(parts, q)
	}
	if len(parts) > 0 && parts[0] == "doc" {
		parts = parts[1:]
	}
	parts = append(parts, col.Name.String())
	return strings.Join(parts, ".")
}

// Generate NumericExpr struct for operators and functions
func createNumericExpr(op string, leftExpr *structs.NumericExpr, rightExpr *structs.NumericExpr) (*structs.NumericExpr, error) {
	if leftExpr == nil {
		return nil, fmt.Errorf("expr cannot be nil")
	}

	return &structs.NumericExpr{
		IsTerminal:      false,
		Op:              op,
		Left:            leftExpr,
		Right:           rightExpr,
		NumericExprMode: structs.NEMNumericExpr,
	}, nil
}
