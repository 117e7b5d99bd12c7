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
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/siglens/facetstats/pkg/config"
	"github.com/siglens/facetstats/pkg/config/common"
	"github.com/siglens/facetstats/pkg/segment/results/facetresults"
	"github.com/siglens/facetstats/pkg/segment/search"
	"github.com/stretchr/testify/assert"
)

func writeInput(t *testing.T, lines ...string) string {
	fileName := filepath.Join(t.TempDir(), "docs.jsonl")
	err := os.WriteFile(fileName, []byte(strings.Join(lines, "\n")), 0644)
	assert.Nil(t, err)
	return fileName
}

func Test_LoadShardsAndRunFacet(t *testing.T) {
	config.InitializeDefaultConfig()
	cfg := config.GetRunningConfig()
	cfg.Shards = 2
	cfg.SegmentDocs = 2
	cfg.Dataset.RoutingField = "host"
	cfg.Facet = common.FacetConfig{Name: "latency", KeyField: "host", ValueField: "latency", Size: 10, Order: "term"}
	config.SetInputFile(writeInput(t,
		`{"host": "a", "latency": 1}`,
		`{"host": "b", "latency": 5}`,
		`{"host": "a", "latency": 3}`,
		`{"latency": 9}`,
		`{"host": "a"}`,
	))

	shards, err := LoadShards()
	assert.Nil(t, err)
	assert.Len(t, shards, 2)

	req, err := search.BuildTermsStatsRequest(config.GetFacetConfig())
	assert.Nil(t, err)
	pool := facetresults.NewRecyclingTablePool(1, 16)

	var out bytes.Buffer
	results, err := RunFacet(context.Background(), req, pool, shards, &out)
	assert.Nil(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 0, pool.NumInUse())

	counts := make(map[string]uint64)
	totals := make(map[string]float64)
	missing := uint64(0)
	for shardId, res := range results {
		assert.Equal(t, uint32(shardId), res.ShardId)
		missing += res.Missing
		for _, e := range res.Entries {
			counts[e.Term] += e.Count
			totals[e.Term] += e.Total
		}
	}
	assert.Equal(t, map[string]uint64{"a": 3, "b": 1}, counts)
	assert.Equal(t, 4.0, totals["a"])
	assert.Equal(t, 5.0, totals["b"])
	assert.Equal(t, uint64(1), missing)

	scanner := bufio.NewScanner(&out)
	lines := 0
	for scanner.Scan() {
		var parsed map[string]interface{}
		assert.Nil(t, jsoniter.Unmarshal(scanner.Bytes(), &parsed))
		lines++
	}
	assert.Equal(t, 2, lines)
}

func Test_LoadShardsSampleDataset(t *testing.T) {
	config.InitializeDefaultConfig()
	cfg := config.GetRunningConfig()
	cfg.Shards = 3
	cfg.SegmentDocs = 50
	cfg.Dataset.SampleDocs = 400
	cfg.Dataset.Seed = 11

	shards, err := LoadShards()
	assert.Nil(t, err)
	assert.Len(t, shards, 3)

	total := uint32(0)
	for _, segs := range shards {
		for _, seg := range segs {
			total += seg.NumDocs()
		}
	}
	assert.Equal(t, uint32(400), total)
}

func Test_LoadShardsMissingFile(t *testing.T) {
	config.InitializeDefaultConfig()
	config.SetInputFile(filepath.Join(t.TempDir(), "nothere.jsonl"))
	_, err := LoadShards()
	assert.NotNil(t, err)
}

func Test_RunFacetCanceled(t *testing.T) {
	config.InitializeDefaultConfig()
	cfg := config.GetRunningConfig()
	cfg.Shards = 2
	config.SetInputFile(writeInput(t, `{"host": "a", "latency": 1}`, `{"host": "b", "latency": 2}`))
	shards, err := LoadShards()
	assert.Nil(t, err)

	req, err := search.BuildTermsStatsRequest(common.FacetConfig{Name: "f", KeyField: "host", ValueField: "latency"})
	assert.Nil(t, err)
	pool := facetresults.NewRecyclingTablePool(0, 16)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	_, err = RunFacet(ctx, req, pool, shards, &out)
	assert.NotNil(t, err)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, 0, pool.NumInUse())
}

func Test_InitLogOutput(t *testing.T) {
	logOut, err := InitLogOutput(common.LogConfig{}, false)
	assert.Nil(t, err)
	assert.Equal(t, "stdout", logOut)

	dir := t.TempDir() + "/"
	logOut, err = InitLogOutput(common.LogConfig{LogPrefix: dir, LogFileRotationSizeMB: 1}, true)
	assert.Nil(t, err)
	assert.Equal(t, dir+"facetstats.log", logOut)

	_, _ = InitLogOutput(common.LogConfig{}, false)
}
