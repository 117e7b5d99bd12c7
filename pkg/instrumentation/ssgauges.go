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
	"context"
	"sync/atomic"

	"github.com/siglens/facetstats/pkg/utils"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/metric"
)

/* Adding a new Gauge
   1. add a Gauge constant
   2. describe it in allSimpleGauges
   3. create a SetXXX method with makeGaugeSetter
*/

type simpleInt64Gauge struct {
	name        string
	value       atomic.Int64
	unit        string
	description string
	gauge       metric.Int64ObservableGauge
}

type Gauge int

const (
	TablesInUse Gauge = iota + 1
	TablesPooled
)

var allSimpleGauges = map[Gauge]*simpleInt64Gauge{
	TablesInUse: {
		name:        "ss.tablepool.tables.in.use",
		unit:        "count",
		description: "Accumulator tables currently owned by executors",
	},
	TablesPooled: {
		name:        "ss.tablepool.tables.total",
		unit:        "count",
		description: "Accumulator tables held by the pool, idle or in use",
	},
}

var (
	SetTablesInUse  = makeGaugeSetter(TablesInUse)
	SetTablesPooled = makeGaugeSetter(TablesPooled)
)

func initGauges() error {
	for _, simpleGauge := range allSimpleGauges {
		gauge, err := meter.Int64ObservableGauge(
			simpleGauge.name,
			metric.WithUnit(simpleGauge.unit),
			metric.WithDescription(simpleGauge.description),
		)
		if err != nil {
			return utils.TeeErrorf("initGauges: failed to create gauge %s; err=%v", simpleGauge.name, err)
		}
		simpleGauge.gauge = gauge

		sg := simpleGauge
		_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(sg.gauge, sg.value.Load())
			return nil
		}, sg.gauge)
		if err != nil {
			return utils.TeeErrorf("initGauges: failed to register callback for gauge %v; err=%v", simpleGauge.name, err)
		}
	}

	return nil
}

func makeGaugeSetter(gauge Gauge) func(int64) {
	return func(value int64) {
		simpleGauge, ok := allSimpleGauges[gauge]
		if !ok {
			log.Errorf("makeGaugeSetter: invalid gauge: %v", gauge)
			return
		}
		simpleGauge.value.Store(value)
	}
}

func GetGaugeValue(gauge Gauge) int64 {
	simpleGauge, ok := allSimpleGauges[gauge]
	if !ok {
		return 0
	}
	return simpleGauge.value.Load()
}
