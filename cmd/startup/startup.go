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

package startup

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/siglens/facetstats/pkg/config"
	"github.com/siglens/facetstats/pkg/config/common"
	"github.com/siglens/facetstats/pkg/sampledataset"
	"github.com/siglens/facetstats/pkg/segment/fielddata"
	"github.com/siglens/facetstats/pkg/segment/results/facetresults"
	"github.com/siglens/facetstats/pkg/segment/search"
	"github.com/siglens/facetstats/pkg/segment/structs"
	"github.com/siglens/facetstats/pkg/segment/writer"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

var StdOutLogger *log.Logger

func init() {
	StdOutLogger = &log.Logger{
		Out:       os.Stderr,
		Formatter: new(log.TextFormatter),
		Hooks:     make(log.LevelHooks),
		Level:     log.InfoLevel,
	}
	customFormatter := new(log.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	customFormatter.FullTimestamp = true
	StdOutLogger.SetFormatter(customFormatter)
}

// InitLogOutput sends logs to stdout, or to a rotated file when a log prefix
// is configured. It returns where the logs go.
func InitLogOutput(logCfg common.LogConfig, debug bool) (string, error) {
	logOut := "stdout"
	if logCfg.LogPrefix == "" {
		log.SetOutput(os.Stdout)
	} else {
		err := os.MkdirAll(logCfg.LogPrefix, 0764)
		if err != nil {
			return "", fmt.Errorf("InitLogOutput: failed to make log directory at=%v, err=%w", logCfg.LogPrefix, err)
		}
		logOut = logCfg.LogPrefix + "facetstats.log"
		log.SetOutput(&lumberjack.Logger{
			Filename:   logOut,
			MaxSize:    logCfg.LogFileRotationSizeMB,
			MaxBackups: 30,
			MaxAge:     1, //days
			Compress:   logCfg.CompressLogFile,
		})
	}
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	return logOut, nil
}

// LoadShards reads the configured input file, or generates the sample
// dataset, and returns the segments of every shard.
func LoadShards() ([][]*fielddata.MemSegment, error) {
	dataset := config.GetDatasetConfig()
	loader, err := writer.NewDocLoader(config.GetNumShards(), config.GetSegmentDocs(), dataset.RoutingField)
	if err != nil {
		return nil, err
	}

	sTime := time.Now()
	var loaded uint64
	if dataset.InputFile != "" {
		fd, err := os.Open(dataset.InputFile)
		if err != nil {
			log.Errorf("LoadShards: failed to open input file %v, err=%v", dataset.InputFile, err)
			return nil, err
		}
		defer fd.Close()
		loaded, err = loader.LoadJSONLines(fd)
		if err != nil {
			return nil, err
		}
	} else {
		loaded, err = sampledataset.LoadSampleDocs(loader, dataset.SampleDocs, dataset.Seed)
		if err != nil {
			return nil, err
		}
	}

	shards := loader.Finish()
	numSegments := 0
	for _, segs := range shards {
		numSegments += len(segs)
	}
	log.Infof("LoadShards: loaded %v docs (%v skipped) into %v shards and %v segments in %v",
		humanize.Comma(int64(loaded)), humanize.Comma(int64(loader.NumSkipped())),
		len(shards), numSegments, time.Since(sTime))
	return shards, nil
}

// RunFacet computes the facet on every shard in parallel and writes the
// contribution of each shard as one json line, in shard order.
func RunFacet(ctx context.Context, req *structs.TermsStatsRequest, pool facetresults.TablePool,
	shards [][]*fielddata.MemSegment, out io.Writer) ([]*structs.TermsStatsResult, error) {

	sTime := time.Now()
	results := make([]*structs.TermsStatsResult, len(shards))
	g, gctx := errgroup.WithContext(ctx)
	for shardId, segs := range shards {
		shardId, segs := shardId, segs
		g.Go(func() error {
			matches := make([]search.SegmentMatch, 0, len(segs))
			for _, seg := range segs {
				matches = append(matches, search.MatchAll(seg))
			}
			res, err := search.RunTermsStatsFacet(gctx, req, uint32(shardId), pool, matches)
			if err != nil {
				return fmt.Errorf("RunFacet: shard %d: %w", shardId, err)
			}
			results[shardId] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totalEntries := 0
	for _, res := range results {
		data, err := res.ToJSON()
		if err != nil {
			log.Errorf("RunFacet: failed to marshal result of shard %d, err=%v", res.ShardId, err)
			return nil, err
		}
		if _, err := out.Write(append(data, '\n')); err != nil {
			return nil, err
		}
		totalEntries += len(res.Entries)
	}
	log.Infof("RunFacet: facet %v produced %v entries over %v shards in %v",
		req.Name, humanize.Comma(int64(totalEntries)), len(shards), time.Since(sTime))
	return results, nil
}
