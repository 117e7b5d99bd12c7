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

package facetresults

import (
	"github.com/siglens/facetstats/pkg/instrumentation"
	"github.com/siglens/facetstats/pkg/memorypool"
	log "github.com/sirupsen/logrus"
)

// TablePool hands out cleared accumulator tables. Implementations must be
// safe for concurrent use since shards run in parallel.
type TablePool interface {
	AcquireTable() *Table
	ReleaseTable(table *Table)
}

type RecyclingTablePool struct {
	pool *memorypool.Pool[*Table]
}

func NewRecyclingTablePool(initialTables int, tableCapacity int) *RecyclingTablePool {
	p := &RecyclingTablePool{
		pool: memorypool.NewPool(initialTables,
			func() *Table { return NewTable(tableCapacity) },
			func(t *Table) { t.Reset() }),
	}
	instrumentation.SetTablesPooled(int64(p.pool.Len()))
	return p
}

func (p *RecyclingTablePool) AcquireTable() *Table {
	table, reused := p.pool.Get()
	if reused {
		instrumentation.IncrementInt64Counter(instrumentation.TABLE_POOL_HITS, 1)
	} else {
		instrumentation.IncrementInt64Counter(instrumentation.TABLE_POOL_MISSES, 1)
	}
	p.updateGauges()
	return table
}

func (p *RecyclingTablePool) ReleaseTable(table *Table) {
	if table == nil {
		return
	}
	err := p.pool.Put(table)
	if err != nil {
		log.Errorf("RecyclingTablePool.ReleaseTable: failed to return table of %d entries, err: %v", table.Len(), err)
		return
	}
	p.updateGauges()
}

func (p *RecyclingTablePool) NumInUse() int {
	return p.pool.NumInUse()
}

func (p *RecyclingTablePool) Len() int {
	return p.pool.Len()
}

func (p *RecyclingTablePool) updateGauges() {
	instrumentation.SetTablesInUse(int64(p.pool.NumInUse()))
	instrumentation.SetTablesPooled(int64(p.pool.Len()))
}
