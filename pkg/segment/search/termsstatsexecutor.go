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
	"fmt"
	"sort"

	"github.com/siglens/facetstats/pkg/segment/aggregations"
	"github.com/siglens/facetstats/pkg/segment/results/facetresults"
	"github.com/siglens/facetstats/pkg/segment/structs"
	log "github.com/sirupsen/logrus"
)

// TermsStatsExecutor owns the accumulator table of one facet on one shard.
// It is not safe for concurrent use; every shard gets its own executor.
type TermsStatsExecutor struct {
	req     *structs.TermsStatsRequest
	shardId uint32

	pool       facetresults.TablePool
	table      *facetresults.Table
	aggregator aggregations.Aggregator
	collector  *TermsStatsCollector

	missing  uint64
	released bool
}

func NewTermsStatsExecutor(req *structs.TermsStatsRequest, shardId uint32, pool facetresults.TablePool) (*TermsStatsExecutor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, fmt.Errorf("NewTermsStatsExecutor: facet %v has no table pool", req.Name)
	}

	table := pool.AcquireTable()
	aggregator, err := aggregations.NewAggregatorForRequest(req, table)
	if err != nil {
		pool.ReleaseTable(table)
		return nil, err
	}

	e := &TermsStatsExecutor{
		req:        req,
		shardId:    shardId,
		pool:       pool,
		table:      table,
		aggregator: aggregator,
	}
	e.collector = newTermsStatsCollector(e, req.KeyField, aggregator)
	return e, nil
}

func (e *TermsStatsExecutor) Collector() *TermsStatsCollector {
	return e.collector
}

func (e *TermsStatsExecutor) Missing() uint64 {
	return e.missing
}

func (e *TermsStatsExecutor) addMissing(n uint64) {
	e.missing += n
}

// BuildFacet finalizes the shard result and gives the table back to the pool.
// With size 0 every entry is returned unsorted, otherwise all entries are
// sorted with the request comparator and the first size are kept.
func (e *TermsStatsExecutor) BuildFacet() (*structs.TermsStatsResult, error) {
	if e.released {
		return nil, fmt.Errorf("BuildFacet: facet %v on shard %d was already built or closed", e.req.Name, e.shardId)
	}
	defer e.release()

	result := &structs.TermsStatsResult{
		Name:         e.req.Name,
		ShardId:      e.shardId,
		Comparator:   e.req.Comparator,
		RequiredSize: e.req.Size,
		Missing:      e.missing,
	}

	if e.table.IsEmpty() {
		result.Entries = make([]*structs.TermsStatsEntry, 0)
		result.Sorted = true
		return result, nil
	}

	entries := e.table.Values()
	if e.req.Size == 0 {
		result.Entries = entries
		return result, nil
	}

	comparator := e.req.Comparator
	sort.Slice(entries, func(i, j int) bool {
		return comparator.Less(entries[i], entries[j])
	})
	if len(entries) > e.req.Size {
		truncated := make([]*structs.TermsStatsEntry, e.req.Size)
		copy(truncated, entries)
		entries = truncated
	}
	result.Entries = entries
	result.Sorted = true
	return result, nil
}

// Close gives the table back to the pool if BuildFacet never ran. Partial
// state is discarded. Calling it more than once is a no-op.
func (e *TermsStatsExecutor) Close() {
	if e.released {
		return
	}
	log.Debugf("TermsStatsExecutor.Close: discarding %d partial terms of facet %v on shard %d",
		e.table.Len(), e.req.Name, e.shardId)
	e.release()
}

func (e *TermsStatsExecutor) release() {
	if e.released {
		return
	}
	e.released = true
	table := e.table
	e.table = nil
	e.pool.ReleaseTable(table)
}
