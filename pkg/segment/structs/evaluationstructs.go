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

package structs

import (
	"fmt"
	"math"
)

type NumericExprMode uint8

const (
	NEMNumber      NumericExprMode = iota // only used when mode is a Number
	NEMNumberField                        // only used when mode is Field (first numeric value of the field)
	NEMScore                              // only used when mode is the document score
	NEMNumericExpr                        // only used when mode is a NumericExpr
)

type NumericExpr struct {
	NumericExprMode NumericExprMode

	IsTerminal bool

	// Only used when IsTerminal is true.
	ValueIsField bool
	Value        string  // field name when ValueIsField is true
	Number       float64 // constant when NumericExprMode is NEMNumber

	// Only used when IsTerminal is false.
	Op    string // one of + - * / % neg abs ceil floor round sqrt ln log10 exp pow min max
	Left  *NumericExpr
	Right *NumericExpr
}

var unaryNumericOps = map[string]func(float64) float64{
	"neg":   func(v float64) float64 { return -v },
	"abs":   math.Abs,
	"ceil":  math.Ceil,
	"floor": math.Floor,
	"round": math.Round,
	"sqrt":  math.Sqrt,
	"ln":    math.Log,
	"log10": math.Log10,
	"exp":   math.Exp,
}

var binaryNumericOps = map[string]func(float64, float64) float64{
	"+":   func(l, r float64) float64 { return l + r },
	"-":   func(l, r float64) float64 { return l - r },
	"*":   func(l, r float64) float64 { return l * r },
	"/":   func(l, r float64) float64 { return l / r },
	"%":   math.Mod,
	"pow": math.Pow,
	"min": math.Min,
	"max": math.Max,
}

func IsUnaryNumericOp(op string) bool {
	_, ok := unaryNumericOps[op]
	return ok
}

func IsBinaryNumericOp(op string) bool {
	_, ok := binaryNumericOps[op]
	return ok
}

// Returns the distinct fields referenced by the expression, in the order they appear.
func (self *NumericExpr) GetFields() []string {
	fields := make([]string, 0)
	seen := make(map[string]struct{})
	self.collectFields(&fields, seen)
	return fields
}

func (self *NumericExpr) collectFields(fields *[]string, seen map[string]struct{}) {
	if self == nil {
		return
	}
	if self.IsTerminal {
		if self.ValueIsField {
			if _, ok := seen[self.Value]; !ok {
				seen[self.Value] = struct{}{}
				*fields = append(*fields, self.Value)
			}
		}
		return
	}
	self.Left.collectFields(fields, seen)
	self.Right.collectFields(fields, seen)
}

func (self *NumericExpr) UsesScore() bool {
	if self == nil {
		return false
	}
	if self.IsTerminal {
		return self.NumericExprMode == NEMScore
	}
	return self.Left.UsesScore() || self.Right.UsesScore()
}

// Evaluate computes the expression for one document. fieldToValue holds the
// value of every field returned by GetFields.
func (self *NumericExpr) Evaluate(fieldToValue map[string]float64, score float64) (float64, error) {
	if self == nil {
		return 0, fmt.Errorf("NumericExpr.Evaluate: nil expression")
	}
	if self.IsTerminal {
		switch self.NumericExprMode {
		case NEMNumber:
			return self.Number, nil
		case NEMScore:
			return score, nil
		case NEMNumberField:
			value, ok := fieldToValue[self.Value]
			if !ok {
				return 0, fmt.Errorf("NumericExpr.Evaluate: field %v was not bound", self.Value)
			}
			return value, nil
		}
		return 0, fmt.Errorf("NumericExpr.Evaluate: unsupported terminal mode %v", self.NumericExprMode)
	}

	if self.Left == nil {
		return 0, fmt.Errorf("NumericExpr.Evaluate: operator %v has no operand", self.Op)
	}
	left, err := self.Left.Evaluate(fieldToValue, score)
	if err != nil {
		return 0, err
	}

	if fn, ok := unaryNumericOps[self.Op]; ok {
		return fn(left), nil
	}

	fn, ok := binaryNumericOps[self.Op]
	if !ok {
		return 0, fmt.Errorf("NumericExpr.Evaluate: unsupported operator %v", self.Op)
	}
	if self.Right == nil {
		return 0, fmt.Errorf("NumericExpr.Evaluate: operator %v needs two operands", self.Op)
	}
	right, err := self.Right.Evaluate(fieldToValue, score)
	if err != nil {
		return 0, err
	}
	return fn(left, right), nil
}

func (self *NumericExpr) String() string {
	if self == nil {
		return "<nil>"
	}
	if self.IsTerminal {
		switch self.NumericExprMode {
		case NEMScore:
			return "_score"
		case NEMNumberField:
			return self.Value
		default:
			return fmt.Sprintf("%v", self.Number)
		}
	}
	if self.Right == nil {
		return fmt.Sprintf("%v(%v)", self.Op, self.Left)
	}
	if IsUnaryNumericOp(self.Op) || len(self.Op) > 1 {
		return fmt.Sprintf("%v(%v, %v)", self.Op, self.Left, self.Right)
	}
	return fmt.Sprintf("(%v %v %v)", self.Left, self.Op, self.Right)
}
