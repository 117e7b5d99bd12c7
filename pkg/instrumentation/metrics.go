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
	"net"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/siglens/facetstats/pkg/utils"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

var meter = otel.GetMeterProvider().Meter("facetstats")
var ctx = context.Background()

var metricsPkgInitialized bool

// InitMetrics installs a prometheus backed meter provider. Instruments created
// before the call are delegated to it.
func InitMetrics() error {
	if metricsPkgInitialized {
		return nil
	}
	exporter, err := prometheus.New()
	if err != nil {
		return utils.TeeErrorf("InitMetrics: failed to initialize prometheus exporter: %v", err)
	}
	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	err = initGauges()
	if err != nil {
		return err
	}

	metricsPkgInitialized = true
	return nil
}

// ServeMetrics serves /metrics on ln until ln is closed.
func ServeMetrics(ln net.Listener) error {
	promHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := &fasthttp.Server{
		Name: "facetstats-metrics",
		Handler: func(rctx *fasthttp.RequestCtx) {
			if string(rctx.Path()) != "/metrics" {
				rctx.SetStatusCode(fasthttp.StatusNotFound)
				return
			}
			promHandler(rctx)
		},
	}

	log.Infof("ServeMetrics: prometheus metrics available at http://%v/metrics", ln.Addr())
	return s.Serve(ln)
}

func IncrementInt64Counter(metricName api.Int64Counter, value int64) {
	if metricName == nil {
		return
	}
	metricName.Add(ctx, value)
}

func IncrementInt64CounterWithLabel(metricName api.Int64Counter, value int64,
	labelKey string, labelVal string) {
	if metricName == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(labelKey, labelVal),
	}

	metricName.Add(
		ctx,
		value,
		api.WithAttributes(attrs...),
	)
}
