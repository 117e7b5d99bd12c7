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

	"github.com/siglens/facetstats/pkg/segment/aggregations"
	"github.com/siglens/facetstats/pkg/segment/fielddata"
)

// TermsStatsCollector feeds the matching documents of one shard into the
// aggregator, one segment at a time.
type TermsStatsCollector struct {
	executor   *TermsStatsExecutor
	keyField   string
	aggregator aggregations.Aggregator

	keys      fielddata.KeyValues
	segKey    string
	missing   uint64
	collected uint64
	resolver  keyResolver
}

func newTermsStatsCollector(executor *TermsStatsExecutor, keyField string, aggregator aggregations.Aggregator) *TermsStatsCollector {
	c := &TermsStatsCollector{
		executor:   executor,
		keyField:   keyField,
		aggregator: aggregator,
	}
	c.resolver.collector = c
	return c
}

func (c *TermsStatsCollector) SetScorer(scorer fielddata.Scorer) {
	c.aggregator.SetScorer(scorer)
}

func (c *TermsStatsCollector) SetNextSegment(seg fielddata.SegmentReader) error {
	keys, err := seg.KeyValues(c.keyField)
	if err != nil {
		return fmt.Errorf("SetNextSegment: key field %v in segment %v: %w", c.keyField, seg.SegKey(), err)
	}
	if err := c.aggregator.SetNextSegment(seg); err != nil {
		return err
	}
	c.keys = keys
	c.segKey = seg.SegKey()
	return nil
}

// Collect accumulates every key occurrence of docID. A document without a key
// only bumps the missing counter.
func (c *TermsStatsCollector) Collect(docID uint32) error {
	if c.keys == nil {
		return fmt.Errorf("Collect: doc %d collected before any segment was set", docID)
	}
	c.collected++
	err := c.keys.ForEachValueInDoc(docID, &c.resolver)
	if err != nil {
		return fmt.Errorf("Collect: segment %v, doc %d: %w", c.segKey, docID, err)
	}
	return nil
}

// PostCollection publishes the missing counter to the executor.
func (c *TermsStatsCollector) PostCollection() {
	c.executor.addMissing(c.missing)
	c.missing = 0
}

func (c *TermsStatsCollector) NumCollected() uint64 {
	return c.collected
}

type keyResolver struct {
	collector *TermsStatsCollector
}

func (r *keyResolver) OnValue(docID uint32, key fielddata.HashedKey) error {
	return r.collector.aggregator.OnValue(docID, key)
}

func (r *keyResolver) OnMissing(docID uint32) {
	r.collector.missing++
}
