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
	"go.opentelemetry.io/otel/metric"
)

var FACET_EXECUTION_COUNT, _ = meter.Int64Counter(
	"ss.facet.termsstats.executions",
	metric.WithUnit("1"),
	metric.WithDescription("terms stats facets built per shard"))

var FACET_DOCS_COLLECTED, _ = meter.Int64Counter(
	"ss.facet.termsstats.docs.collected",
	metric.WithUnit("1"),
	metric.WithDescription("documents fed to terms stats collectors"))

var FACET_MISSING_KEYS, _ = meter.Int64Counter(
	"ss.facet.termsstats.missing.keys",
	metric.WithUnit("1"),
	metric.WithDescription("documents without a resolvable key"))

var FACET_FAILURES, _ = meter.Int64Counter(
	"ss.facet.termsstats.failures",
	metric.WithUnit("1"),
	metric.WithDescription("terms stats collection passes that were aborted"))

var TABLE_POOL_HITS, _ = meter.Int64Counter(
	"ss.tablepool.hits",
	metric.WithUnit("1"),
	metric.WithDescription("accumulator tables reused from the pool"))

var TABLE_POOL_MISSES, _ = meter.Int64Counter(
	"ss.tablepool.misses",
	metric.WithUnit("1"),
	metric.WithDescription("accumulator tables allocated because the pool was empty"))
