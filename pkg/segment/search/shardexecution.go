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

package search

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/siglens/facetstats/pkg/ast/sql"
	"github.com/siglens/facetstats/pkg/config/common"
	"github.com/siglens/facetstats/pkg/instrumentation"
	"github.com/siglens/facetstats/pkg/segment/fielddata"
	"github.com/siglens/facetstats/pkg/segment/results/facetresults"
	"github.com/siglens/facetstats/pkg/segment/structs"
	log "github.com/sirupsen/logrus"
)

// docs between two context checks inside a segment
const CANCEL_CHECK_INTERVAL = 4096

type ShardCollector interface {
	SetScorer(scorer fielddata.Scorer)
	SetNextSegment(seg fielddata.SegmentReader) error
	Collect(docID uint32) error
	PostCollection()
}

// SegmentMatch is the set of matching documents of one segment. A nil Docs
// matches every document of the segment.
type SegmentMatch struct {
	Segment fielddata.SegmentReader
	Docs    *bitset.BitSet
	Scorer  fielddata.Scorer
}

func MatchAll(seg fielddata.SegmentReader) SegmentMatch {
	docs := bitset.New(uint(seg.NumDocs()))
	for i := uint(0); i < uint(seg.NumDocs()); i++ {
		docs.Set(i)
	}
	return SegmentMatch{Segment: seg, Docs: docs}
}

type ConstantScorer struct {
	Value float64
}

func (s *ConstantScorer) Score() (float64, error) {
	return s.Value, nil
}

// ExecuteShard runs one collection pass over the segments of a shard, in
// order. The pass stops at the first error or when ctx is done; the caller
// then discards the partial state.
func ExecuteShard(ctx context.Context, collector ShardCollector, matches []SegmentMatch) error {
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}
		if match.Segment == nil {
			return fmt.Errorf("ExecuteShard: segment match without a segment")
		}
		if err := collector.SetNextSegment(match.Segment); err != nil {
			return err
		}
		// a match without a scorer unbinds the previous segment's one
		collector.SetScorer(match.Scorer)

		numDocs := match.Segment.NumDocs()
		if match.Docs == nil {
			for docID := uint32(0); docID < numDocs; docID++ {
				if docID%CANCEL_CHECK_INTERVAL == 0 && docID > 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if err := collector.Collect(docID); err != nil {
					return err
				}
			}
			continue
		}

		checked := 0
		for i, ok := match.Docs.NextSet(0); ok; i, ok = match.Docs.NextSet(i + 1) {
			checked++
			if checked%CANCEL_CHECK_INTERVAL == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if i >= uint(numDocs) {
				return fmt.Errorf("ExecuteShard: doc %d is outside segment %v with %d docs: %w",
					i, match.Segment.SegKey(), numDocs, fielddata.ErrDocOutOfRange)
			}
			if err := collector.Collect(uint32(i)); err != nil {
				return err
			}
		}
	}
	collector.PostCollection()
	return nil
}

// RunTermsStatsFacet computes the contribution of one shard to a terms stats
// facet. The table always goes back to the pool, whether the pass succeeds
// or not.
func RunTermsStatsFacet(ctx context.Context, req *structs.TermsStatsRequest, shardId uint32,
	pool facetresults.TablePool, matches []SegmentMatch) (*structs.TermsStatsResult, error) {

	executor, err := NewTermsStatsExecutor(req, shardId, pool)
	if err != nil {
		instrumentation.IncrementInt64Counter(instrumentation.FACET_FAILURES, 1)
		return nil, err
	}
	defer executor.Close()

	collector := executor.Collector()
	err = ExecuteShard(ctx, collector, matches)
	instrumentation.IncrementInt64Counter(instrumentation.FACET_DOCS_COLLECTED, int64(collector.NumCollected()))
	if err != nil {
		log.Errorf("RunTermsStatsFacet: facet %v on shard %d aborted, err: %v", req.Name, shardId, err)
		instrumentation.IncrementInt64Counter(instrumentation.FACET_FAILURES, 1)
		return nil, err
	}

	result, err := executor.BuildFacet()
	if err != nil {
		instrumentation.IncrementInt64Counter(instrumentation.FACET_FAILURES, 1)
		return nil, err
	}
	instrumentation.IncrementInt64Counter(instrumentation.FACET_EXECUTION_COUNT, 1)
	instrumentation.IncrementInt64Counter(instrumentation.FACET_MISSING_KEYS, int64(result.Missing))
	log.Debugf("RunTermsStatsFacet: facet %v on shard %d collected %d docs into %d entries, missing %d",
		req.Name, shardId, collector.NumCollected(), len(result.Entries), result.Missing)
	return result, nil
}

// BuildTermsStatsRequest turns the facet section of the config into a request.
func BuildTermsStatsRequest(facet common.FacetConfig) (*structs.TermsStatsRequest, error) {
	comparator, err := structs.ParseComparatorType(facet.Order)
	if err != nil {
		return nil, err
	}

	req := &structs.TermsStatsRequest{
		Name:       facet.Name,
		KeyField:   facet.KeyField,
		Size:       facet.Size,
		Comparator: comparator,
	}
	if facet.ValueScript != "" {
		script, err := sql.ParseValueScript(facet.ValueScript)
		if err != nil {
			return nil, err
		}
		req.ValueScript = script
	} else {
		req.ValueField = facet.ValueField
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
