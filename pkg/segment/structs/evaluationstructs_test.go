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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fieldExpr(name string) *NumericExpr {
	return &NumericExpr{NumericExprMode: NEMNumberField, IsTerminal: true, ValueIsField: true, Value: name}
}

func numberExpr(v float64) *NumericExpr {
	return &NumericExpr{NumericExprMode: NEMNumber, IsTerminal: true, Number: v}
}

func Test_NumericExpr(t *testing.T) {
	// (price * 2) + abs(discount) - _score
	expr := &NumericExpr{
		NumericExprMode: NEMNumericExpr,
		Op:              "-",
		Left: &NumericExpr{
			NumericExprMode: NEMNumericExpr,
			Op:              "+",
			Left: &NumericExpr{
				NumericExprMode: NEMNumericExpr,
				Op:              "*",
				Left:            fieldExpr("price"),
				Right:           numberExpr(2),
			},
			Right: &NumericExpr{NumericExprMode: NEMNumericExpr, Op: "abs", Left: fieldExpr("discount")},
		},
		Right: &NumericExpr{NumericExprMode: NEMScore, IsTerminal: true},
	}

	assert.Equal(t, []string{"price", "discount"}, expr.GetFields())
	assert.True(t, expr.UsesScore())
	assert.Equal(t, "(((price * 2) + abs(discount)) - _score)", expr.String())

	value, err := expr.Evaluate(map[string]float64{"price": 10, "discount": -3}, 0.5)
	assert.NoError(t, err)
	assert.Equal(t, 22.5, value)

	_, err = expr.Evaluate(map[string]float64{"price": 10}, 0.5)
	assert.Error(t, err)
}

func Test_NumericExprFunctions(t *testing.T) {
	cases := []struct {
		expr     *NumericExpr
		expected float64
	}{
		{&NumericExpr{Op: "neg", Left: numberExpr(4)}, -4},
		{&NumericExpr{Op: "ceil", Left: numberExpr(1.2)}, 2},
		{&NumericExpr{Op: "floor", Left: numberExpr(1.8)}, 1},
		{&NumericExpr{Op: "round", Left: numberExpr(2.5)}, 3},
		{&NumericExpr{Op: "sqrt", Left: numberExpr(16)}, 4},
		{&NumericExpr{Op: "exp", Left: numberExpr(0)}, 1},
		{&NumericExpr{Op: "ln", Left: numberExpr(1)}, 0},
		{&NumericExpr{Op: "pow", Left: numberExpr(2), Right: numberExpr(10)}, 1024},
		{&NumericExpr{Op: "min", Left: numberExpr(2), Right: numberExpr(-1)}, -1},
		{&NumericExpr{Op: "max", Left: numberExpr(2), Right: numberExpr(-1)}, 2},
		{&NumericExpr{Op: "%", Left: numberExpr(7), Right: numberExpr(4)}, 3},
	}

	for _, tc := range cases {
		value, err := tc.expr.Evaluate(nil, 0)
		assert.NoError(t, err, tc.expr.String())
		assert.Equal(t, tc.expected, value, tc.expr.String())
	}

	value, err := (&NumericExpr{Op: "/", Left: numberExpr(1), Right: numberExpr(0)}).Evaluate(nil, 0)
	assert.NoError(t, err)
	assert.True(t, math.IsInf(value, 1))
}

func Test_NumericExprErrors(t *testing.T) {
	_, err := (&NumericExpr{Op: "median", Left: numberExpr(1)}).Evaluate(nil, 0)
	assert.Error(t, err)

	_, err = (&NumericExpr{Op: "+", Left: numberExpr(1)}).Evaluate(nil, 0)
	assert.Error(t, err)

	_, err = (&NumericExpr{Op: "abs"}).Evaluate(nil, 0)
	assert.Error(t, err)

	var nilExpr *NumericExpr
	_, err = nilExpr.Evaluate(nil, 0)
	assert.Error(t, err)
	assert.False(t, nilExpr.UsesScore())
}
