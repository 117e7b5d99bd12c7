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

package aggregations

import (
	"fmt"

	"github.com/siglens/facetstats/pkg/segment/fielddata"
	"github.com/siglens/facetstats/pkg/segment/structs"
)

// ValueScript computes a single value per document.
type ValueScript interface {
	SetScorer(scorer fielddata.Scorer)
	SetNextSegment(seg fielddata.SegmentReader) error
	SetNextDocID(docID uint32)
	RunAsDouble() (float64, error)
}

// NumericScript evaluates a NumericExpr against the numeric columns of the
// bound segment. A field reference takes the first value of the document, or 0
// when the document has none.
type NumericScript struct {
	expr      *structs.NumericExpr
	fields    []string
	usesScore bool

	segKey       string
	columns      []fielddata.DoubleValues
	fieldToValue map[string]float64
	scorer       fielddata.Scorer
	docID        uint32
}

func NewNumericScript(expr *structs.NumericExpr) (*NumericScript, error) {
	if expr == nil {
		return nil, fmt.Errorf("NewNumericScript: expression is nil")
	}
	fields := expr.GetFields()
	return &NumericScript{
		expr:         expr,
		fields:       fields,
		usesScore:    expr.UsesScore(),
		fieldToValue: make(map[string]float64, len(fields)),
	}, nil
}

func (s *NumericScript) SetScorer(scorer fielddata.Scorer) {
	s.scorer = scorer
}

func (s *NumericScript) SetNextSegment(seg fielddata.SegmentReader) error {
	columns := make([]fielddata.DoubleValues, len(s.fields))
	for i, field := range s.fields {
		col, err := seg.DoubleValues(field)
		if err != nil {
			return fmt.Errorf("NumericScript.SetNextSegment: field %v in segment %v: %w", field, seg.SegKey(), err)
		}
		columns[i] = col
	}
	s.columns = columns
	s.segKey = seg.SegKey()
	return nil
}

func (s *NumericScript) SetNextDocID(docID uint32) {
	s.docID = docID
}

func (s *NumericScript) RunAsDouble() (float64, error) {
	if s.columns == nil && len(s.fields) > 0 {
		return 0, fmt.Errorf("NumericScript.RunAsDouble: script %v is not bound to a segment", s.expr)
	}

	for i, field := range s.fields {
		value, ok, err := s.columns[i].FirstValue(s.docID)
		if err != nil {
			return 0, fmt.Errorf("NumericScript.RunAsDouble: field %v, doc %d, segment %v: %w", field, s.docID, s.segKey, err)
		}
		if !ok {
			value = 0
		}
		s.fieldToValue[field] = value
	}

	var score float64
	if s.usesScore {
		if s.scorer == nil {
			return 0, fmt.Errorf("NumericScript.RunAsDouble: script %v uses _score but no scorer is set", s.expr)
		}
		var err error
		score, err = s.scorer.Score()
		if err != nil {
			return 0, fmt.Errorf("NumericScript.RunAsDouble: doc %d: %w", s.docID, err)
		}
	}

	return s.expr.Evaluate(s.fieldToValue, score)
}

func (s *NumericScript) String() string {
	return s.expr.String()
}
