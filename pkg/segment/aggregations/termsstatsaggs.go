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
	"github.com/siglens/facetstats/pkg/segment/results/facetresults"
	"github.com/siglens/facetstats/pkg/segment/structs"
)

// Aggregator accumulates one resolved key occurrence of a matching document.
type Aggregator interface {
	OnValue(docID uint32, key fielddata.HashedKey) error
	SetScorer(scorer fielddata.Scorer)
	SetNextSegment(seg fielddata.SegmentReader) error
}

// ValueSource resolves the values of a document into an entry. It is the only
// step that differs between the field and the script aggregators.
type ValueSource interface {
	SetScorer(scorer fielddata.Scorer)
	SetNextSegment(seg fielddata.SegmentReader) error
	RecordValues(docID uint32, entry *structs.TermsStatsEntry) error
}

type TermsStatsAggregator struct {
	table  *facetresults.Table
	values ValueSource
}

func NewTermsStatsAggregator(table *facetresults.Table, values ValueSource) *TermsStatsAggregator {
	return &TermsStatsAggregator{table: table, values: values}
}

// NewFieldAggregator records every value of valueField for each matching key.
func NewFieldAggregator(table *facetresults.Table, valueField string) *TermsStatsAggregator {
	return NewTermsStatsAggregator(table, NewFieldValueSource(valueField))
}

// NewScriptAggregator records exactly one script result for each matching key.
func NewScriptAggregator(table *facetresults.Table, script ValueScript) *TermsStatsAggregator {
	return NewTermsStatsAggregator(table, NewScriptValueSource(script))
}

// NewAggregatorForRequest picks the variant the request asks for.
func NewAggregatorForRequest(req *structs.TermsStatsRequest, table *facetresults.Table) (*TermsStatsAggregator, error) {
	if req.IsScriptRequest() {
		script, err := NewNumericScript(req.ValueScript)
		if err != nil {
			return nil, err
		}
		return NewScriptAggregator(table, script), nil
	}
	if req.ValueField == "" {
		return nil, fmt.Errorf("NewAggregatorForRequest: facet %v has neither a value field nor a value script", req.Name)
	}
	return NewFieldAggregator(table, req.ValueField), nil
}

func (a *TermsStatsAggregator) SetScorer(scorer fielddata.Scorer) {
	a.values.SetScorer(scorer)
}

func (a *TermsStatsAggregator) SetNextSegment(seg fielddata.SegmentReader) error {
	return a.values.SetNextSegment(seg)
}

func (a *TermsStatsAggregator) OnValue(docID uint32, key fielddata.HashedKey) error {
	entry, _ := a.table.GetOrCreate(key)
	entry.RecordMatch()
	return a.values.RecordValues(docID, entry)
}

type FieldValueSource struct {
	field    string
	values   fielddata.DoubleValues
	recorder entryRecorder
}

func NewFieldValueSource(field string) *FieldValueSource {
	return &FieldValueSource{field: field}
}

// SetScorer is a no-op, field values do not depend on relevance.
func (s *FieldValueSource) SetScorer(scorer fielddata.Scorer) {}

func (s *FieldValueSource) SetNextSegment(seg fielddata.SegmentReader) error {
	values, err := seg.DoubleValues(s.field)
	if err != nil {
		return fmt.Errorf("FieldValueSource.SetNextSegment: field %v in segment %v: %w", s.field, seg.SegKey(), err)
	}
	s.values = values
	return nil
}

func (s *FieldValueSource) RecordValues(docID uint32, entry *structs.TermsStatsEntry) error {
	if s.values == nil {
		return fmt.Errorf("FieldValueSource.RecordValues: field %v is not bound to a segment", s.field)
	}
	s.recorder.entry = entry
	err := s.values.ForEachValueInDoc(docID, &s.recorder)
	s.recorder.entry = nil
	if err != nil {
		return fmt.Errorf("FieldValueSource.RecordValues: field %v, doc %d: %w", s.field, docID, err)
	}
	return nil
}

type entryRecorder struct {
	entry *structs.TermsStatsEntry
}

func (r *entryRecorder) OnValue(docID uint32, value float64) {
	r.entry.RecordValue(value)
}

func (r *entryRecorder) OnMissing(docID uint32) {}

type ScriptValueSource struct {
	script ValueScript
}

func NewScriptValueSource(script ValueScript) *ScriptValueSource {
	return &ScriptValueSource{script: script}
}

func (s *ScriptValueSource) SetScorer(scorer fielddata.Scorer) {
	s.script.SetScorer(scorer)
}

func (s *ScriptValueSource) SetNextSegment(seg fielddata.SegmentReader) error {
	return s.script.SetNextSegment(seg)
}

func (s *ScriptValueSource) RecordValues(docID uint32, entry *structs.TermsStatsEntry) error {
	s.script.SetNextDocID(docID)
	value, err := s.script.RunAsDouble()
	if err != nil {
		return fmt.Errorf("ScriptValueSource.RecordValues: doc %d: %w", docID, err)
	}
	entry.RecordValue(value)
	return nil
}
