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

package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_GaugeSetters(t *testing.T) {
	SetTablesInUse(3)
	SetTablesPooled(8)
	assert.Equal(t, int64(3), GetGaugeValue(TablesInUse))
	assert.Equal(t, int64(8), GetGaugeValue(TablesPooled))
	assert.Equal(t, int64(0), GetGaugeValue(Gauge(99)))
}

func Test_InitMetrics(t *testing.T) {
	assert.NoError(t, InitMetrics())
	assert.NoError(t, InitMetrics())

	// counters keep working once the sdk provider is installed
	IncrementInt64Counter(FACET_EXECUTION_COUNT, 1)
	IncrementInt64CounterWithLabel(FACET_DOCS_COLLECTED, 5, "facet", "test")
	IncrementInt64Counter(nil, 1)
}
