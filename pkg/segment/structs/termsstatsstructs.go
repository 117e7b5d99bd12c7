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
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// TermsStatsEntry holds the running statistics of a single term within a shard.
//
// Count is the number of documents whose key resolved to Term. TotalCount is the
// number of individual values folded into Total, Min and Max, so it can be
// smaller or larger than Count.
type TermsStatsEntry struct {
	Term       string
	Count      uint64
	TotalCount uint64
	Total      float64
	Min        float64
	Max        float64
}

func NewTermsStatsEntry(term string) *TermsStatsEntry {
	return &TermsStatsEntry{
		Term: term,
		Min:  math.Inf(1),
		Max:  math.Inf(-1),
	}
}

func (e *TermsStatsEntry) RecordMatch() {
	e.Count++
}

// NaN values end up in Total and TotalCount but never in Min or Max, since
// every comparison against NaN is false.
func (e *TermsStatsEntry) RecordValue(value float64) {
	if value < e.Min {
		e.Min = value
	}
	if value > e.Max {
		e.Max = value
	}
	e.Total += value
	e.TotalCount++
}

func (e *TermsStatsEntry) Mean() float64 {
	if e.TotalCount == 0 {
		return 0
	}
	return e.Total / float64(e.TotalCount)
}

// Merge folds another shard's entry for the same term into e.
func (e *TermsStatsEntry) Merge(other *TermsStatsEntry) {
	if other == nil {
		return
	}
	e.Count += other.Count
	e.TotalCount += other.TotalCount
	e.Total += other.Total
	if other.Min < e.Min {
		e.Min = other.Min
	}
	if other.Max > e.Max {
		e.Max = other.Max
	}
}

func (e *TermsStatsEntry) String() string {
	return fmt.Sprintf("%s{count=%d,total_count=%d,total=%v,min=%v,max=%v}",
		e.Term, e.Count, e.TotalCount, e.Total, e.Min, e.Max)
}

type ComparatorType uint8

const (
	CountComparator ComparatorType = iota
	ReverseCountComparator
	TermComparator
	ReverseTermComparator
	TotalComparator
	ReverseTotalComparator
	MinComparator
	ReverseMinComparator
	MaxComparator
	ReverseMaxComparator
	MeanComparator
	ReverseMeanComparator
)

var comparatorNames = [...]string{
	"count",
	"reverse_count",
	"term",
	"reverse_term",
	"total",
	"reverse_total",
	"min",
	"reverse_min",
	"max",
	"reverse_max",
	"mean",
	"reverse_mean",
}

func (c ComparatorType) String() string {
	if int(c) >= len(comparatorNames) {
		return fmt.Sprintf("ComparatorType(%d)", uint8(c))
	}
	return comparatorNames[c]
}

// ID is the wire id of the comparator, shared with the reducer.
func (c ComparatorType) ID() byte {
	return byte(c)
}

func ComparatorTypeFromID(id byte) (ComparatorType, error) {
	if int(id) >= len(comparatorNames) {
		return 0, fmt.Errorf("ComparatorTypeFromID: no terms stats comparator for id [%d]", id)
	}
	return ComparatorType(id), nil
}

// ParseComparatorType accepts both snake_case and camelCase names, e.g.
// "reverse_count" and "reverseCount". An empty string selects count.
func ParseComparatorType(name string) (ComparatorType, error) {
	if name == "" {
		return CountComparator, nil
	}
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
	for i, cname := range comparatorNames {
		if normalized == strings.ReplaceAll(cname, "_", "") {
			return ComparatorType(i), nil
		}
	}
	return 0, fmt.Errorf("ParseComparatorType: no terms stats comparator found for [%v]", name)
}

// Compare returns a negative number when a sorts before b, a positive one when
// b sorts before a, and zero only for entries with the same term.
func (c ComparatorType) Compare(a, b *TermsStatsEntry) int {
	switch c {
	case CountComparator:
		return compareCount(a, b)
	case ReverseCountComparator:
		return -compareCount(a, b)
	case TermComparator:
		return strings.Compare(a.Term, b.Term)
	case ReverseTermComparator:
		return strings.Compare(b.Term, a.Term)
	case TotalComparator:
		return compareTotal(a, b)
	case ReverseTotalComparator:
		return -compareTotal(a, b)
	case MinComparator:
		return compareMin(a, b)
	case ReverseMinComparator:
		return -compareMin(a, b)
	case MaxComparator:
		return compareMax(a, b)
	case ReverseMaxComparator:
		return -compareMax(a, b)
	case MeanComparator:
		return compareMean(a, b)
	case ReverseMeanComparator:
		return -compareMean(a, b)
	default:
		return compareCount(a, b)
	}
}

func (c ComparatorType) Less(a, b *TermsStatsEntry) bool {
	return c.Compare(a, b) < 0
}

// higher count first, then the term in descending order
func compareCount(a, b *TermsStatsEntry) int {
	if a.Count > b.Count {
		return -1
	}
	if a.Count < b.Count {
		return 1
	}
	return strings.Compare(b.Term, a.Term)
}

// compareFloats orders NaN above every number and equal to itself, so a NaN
// total or mean still yields a total order.
func compareFloats(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	if aNaN && !bNaN {
		return 1
	}
	if bNaN && !aNaN {
		return -1
	}
	return 0
}

func descending(a, b float64) int {
	return compareFloats(b, a)
}

func compareTotal(a, b *TermsStatsEntry) int {
	if i := descending(a.Total, b.Total); i != 0 {
		return i
	}
	return compareCount(a, b)
}

func compareMin(a, b *TermsStatsEntry) int {
	if i := -descending(a.Min, b.Min); i != 0 {
		return i
	}
	return compareCount(a, b)
}

func compareMax(a, b *TermsStatsEntry) int {
	if i := descending(a.Max, b.Max); i != 0 {
		return i
	}
	return compareCount(a, b)
}

func compareMean(a, b *TermsStatsEntry) int {
	if i := descending(a.Mean(), b.Mean()); i != 0 {
		return i
	}
	return compareCount(a, b)
}

type TermsStatsRequest struct {
	Name        string
	KeyField    string
	ValueField  string       // used when ValueScript is nil
	ValueScript *NumericExpr // evaluated once per matching document
	Size        int          // 0 returns every term, unsorted
	Comparator  ComparatorType
}

func (r *TermsStatsRequest) IsScriptRequest() bool {
	return r.ValueScript != nil
}

func (r *TermsStatsRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("TermsStatsRequest.Validate: nil request")
	}
	if r.KeyField == "" {
		return fmt.Errorf("TermsStatsRequest.Validate: facet [%v] has no key field", r.Name)
	}
	if r.ValueScript == nil && r.ValueField == "" {
		return fmt.Errorf("TermsStatsRequest.Validate: facet [%v] needs either a value field or a value script", r.Name)
	}
	if r.ValueScript != nil && r.ValueField != "" {
		return fmt.Errorf("TermsStatsRequest.Validate: facet [%v] has both value field [%v] and a value script", r.Name, r.ValueField)
	}
	if r.Size < 0 {
		return fmt.Errorf("TermsStatsRequest.Validate: facet [%v] has negative size %d", r.Name, r.Size)
	}
	return nil
}

// TermsStatsResult is the contribution of one shard to a terms stats facet.
// When Sorted is false the entries are in no particular order and the reducer
// applies the comparator and RequiredSize after merging.
type TermsStatsResult struct {
	Name         string
	ShardId      uint32
	Comparator   ComparatorType
	RequiredSize int
	Entries      []*TermsStatsEntry
	Missing      uint64
	Sorted       bool
}

type termsStatsEntryJSON struct {
	Term       string   `json:"term"`
	Count      uint64   `json:"count"`
	TotalCount uint64   `json:"total_count"`
	Min        *float64 `json:"min"`
	Max        *float64 `json:"max"`
	Total      *float64 `json:"total"`
	Mean       *float64 `json:"mean"`
}

type termsStatsResultJSON struct {
	Type         string                 `json:"_type"`
	Name         string                 `json:"name"`
	ShardId      uint32                 `json:"shard"`
	Order        string                 `json:"order"`
	RequiredSize int                    `json:"size"`
	Sorted       bool                   `json:"sorted"`
	Missing      uint64                 `json:"missing"`
	Terms        []*termsStatsEntryJSON `json:"terms"`
}

func finiteOrNil(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// ToJSON renders the min and max sentinels of terms without values, and any
// other non finite statistic, as null.
func (r *TermsStatsResult) ToJSON() ([]byte, error) {
	out := termsStatsResultJSON{
		Type:         "terms_stats",
		Name:         r.Name,
		ShardId:      r.ShardId,
		Order:        r.Comparator.String(),
		RequiredSize: r.RequiredSize,
		Sorted:       r.Sorted,
		Missing:      r.Missing,
		Terms:        make([]*termsStatsEntryJSON, 0, len(r.Entries)),
	}
	for _, e := range r.Entries {
		out.Terms = append(out.Terms, &termsStatsEntryJSON{
			Term:       e.Term,
			Count:      e.Count,
			TotalCount: e.TotalCount,
			Min:        finiteOrNil(e.Min),
			Max:        finiteOrNil(e.Max),
			Total:      finiteOrNil(e.Total),
			Mean:       finiteOrNil(e.Mean()),
		})
	}

	var json = jsoniter.ConfigCompatibleWithStandardLibrary
	return json.Marshal(&out)
}
