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

package main

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"

	"github.com/oklog/run"
	"github.com/siglens/facetstats/cmd/startup"
	"github.com/siglens/facetstats/pkg/config"
	"github.com/siglens/facetstats/pkg/instrumentation"
	"github.com/siglens/facetstats/pkg/segment/results/facetresults"
	"github.com/siglens/facetstats/pkg/segment/search"
	log "github.com/sirupsen/logrus"
)

func initlogger() {
	customFormatter := new(log.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	log.SetFormatter(customFormatter)
	customFormatter.FullTimestamp = true
}

func main() {
	initlogger()
	configFile, inputFile := config.ExtractCmdLineInput()
	cfg, err := config.ReadConfigFile(configFile)
	if err != nil {
		log.Errorf("Failed to read config %v! Exiting... err=%v", configFile, err)
		os.Exit(1)
	}
	config.SetConfig(cfg)
	if inputFile != "" {
		config.SetInputFile(inputFile)
	}

	logOut, err := startup.InitLogOutput(config.GetLogConfig(), config.IsDebugMode())
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Infof("----- facetstats logging to %s ----- \n", logOut)
	if cfgStr, err := config.GetRunningConfigAsYamlStr(); err == nil {
		log.Infof("Running config\n%s", cfgStr)
	}

	req, err := search.BuildTermsStatsRequest(config.GetFacetConfig())
	if err != nil {
		log.Errorf("Invalid facet configuration! err=%v", err)
		os.Exit(1)
	}

	shards, err := startup.LoadShards()
	if err != nil {
		log.Errorf("Failed to load documents! err=%v", err)
		os.Exit(1)
	}

	poolCfg := config.GetPoolConfig()
	pool := facetresults.NewRecyclingTablePool(poolCfg.InitialTables, poolCfg.TableCapacity)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g run.Group
	g.Add(func() error {
		_, err := startup.RunFacet(ctx, req, pool, shards, os.Stdout)
		if err != nil || !config.IsMetricsEnabled() {
			return err
		}
		log.Infof("Facet done, serving metrics until interrupted")
		<-ctx.Done()
		return nil
	}, func(error) {
		cancel()
	})

	if config.IsMetricsEnabled() {
		err = instrumentation.InitMetrics()
		if err != nil {
			log.Errorf("Failed to initialize metrics! err=%v", err)
			os.Exit(1)
		}
		ln, err := net.Listen("tcp4", config.GetMetricsListenAddr())
		if err != nil {
			log.Errorf("Failed to listen on %v! err=%v", config.GetMetricsListenAddr(), err)
			os.Exit(1)
		}
		g.Add(func() error {
			return instrumentation.ServeMetrics(ln)
		}, func(error) {
			_ = ln.Close()
		})
	}

	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err = g.Run()
	var sigErr run.SignalError
	if errors.As(err, &sigErr) {
		log.Infof("Interrupt signal received. Exiting... signal=%v", sigErr.Signal)
		return
	}
	if err != nil {
		if logOut != "stdout" {
			startup.StdOutLogger.Errorf("facetstats main: facet failed: %v", err)
		}
		log.Errorf("facetstats main: facet failed: %v", err)
		os.Exit(1)
	}
}
