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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/siglens/facetstats/pkg/config/common"
	"github.com/stretchr/testify/assert"
)

func Test_ExtractConfigData(t *testing.T) {
	cases := []struct {
		input    []byte
		expected common.Configuration
	}{
		{ // case 1 - every parameter set
			[]byte(`
 facet:
   name: "sales"
   keyField: "region"
   valueField: "price"
   size: 5
   order: "reverseTotal"
 pool:
   initialTables: 2
   tableCapacity: 64
 shards: 3
 segmentDocs: 500
 dataset:
   inputFile: "docs.jsonl"
   routingField: "id"
   sampleDocs: 10
   seed: 7
 log:
   logPrefix: "./logs/"
   logFileRotationSizeMB: 10
   compressLogFile: true
 metrics:
   enabled: true
   listenAddr: "0.0.0.0:9100"
 debug: true
 `),
			common.Configuration{
				Facet:       common.FacetConfig{Name: "sales", KeyField: "region", ValueField: "price", Size: 5, Order: "reverseTotal"},
				Pool:        common.PoolConfig{InitialTables: 2, TableCapacity: 64},
				Shards:      3,
				SegmentDocs: 500,
				Dataset:     common.DatasetConfig{InputFile: "docs.jsonl", RoutingField: "id", SampleDocs: 10, Seed: 7},
				Log:         common.LogConfig{LogPrefix: "./logs/", LogFileRotationSizeMB: 10, CompressLogFile: true},
				Metrics:     common.MetricsConfig{Enabled: true, ListenAddr: "0.0.0.0:9100"},
				Debug:       true,
			},
		},
		{ // case 2 - defaults
			[]byte(`
 facet:
   keyField: "region"
   valueScript: "  price * quantity "
 shards: 2
 `),
			common.Configuration{
				Facet:       common.FacetConfig{Name: "facet", KeyField: "region", ValueScript: "price * quantity", Size: 0, Order: "count"},
				Pool:        common.PoolConfig{InitialTables: 0, TableCapacity: defaultTableCapacity},
				Shards:      2,
				SegmentDocs: defaultSegmentDocs,
				Dataset:     common.DatasetConfig{SampleDocs: defaultSampleDocs},
				Log:         common.LogConfig{LogFileRotationSizeMB: defaultLogRotationMB},
				Metrics:     common.MetricsConfig{ListenAddr: defaultMetricsAddress},
			},
		},
	}

	for i, test := range cases {
		config, err := ExtractConfigData(test.input)
		assert.Nil(t, err, "case %d", i+1)
		assert.Equal(t, test.expected, config, "case %d", i+1)
	}
}

func Test_ExtractConfigDataErrors(t *testing.T) {
	bad := [][]byte{
		[]byte(`facet: [`),
		[]byte(`
 facet:
   valueField: "price"
 `),
		[]byte(`
 facet:
   keyField: "region"
 `),
		[]byte(`
 facet:
   keyField: "region"
   valueField: "price"
   order: "loudest"
 `),
	}

	for i, input := range bad {
		_, err := ExtractConfigData(input)
		assert.NotNil(t, err, "case %d", i+1)
	}
}

func Test_ExtractConfigDataNegativeSize(t *testing.T) {
	config, err := ExtractConfigData([]byte(`
 facet:
   keyField: "region"
   valueField: "price"
   size: -4
 `))
	assert.Nil(t, err)
	assert.Equal(t, defaultFacetSize, config.Facet.Size)
	assert.True(t, config.Shards > 1)
}

func Test_ReadConfigFile(t *testing.T) {
	dir := t.TempDir()
	fileName := filepath.Join(dir, "facetstats.yaml")
	err := os.WriteFile(fileName, []byte("facet:\n  keyField: host\n  valueField: latency\n"), 0644)
	assert.Nil(t, err)

	config, err := ReadConfigFile(fileName)
	assert.Nil(t, err)
	assert.Equal(t, "host", config.Facet.KeyField)
	assert.Equal(t, "latency", config.Facet.ValueField)

	_, err = ReadConfigFile(filepath.Join(dir, "missing.yaml"))
	assert.NotNil(t, err)
}

func Test_RunningConfig(t *testing.T) {
	InitializeDefaultConfig()
	assert.Equal(t, defaultFacetSize, GetFacetConfig().Size)
	assert.Equal(t, "count", GetFacetConfig().Order)
	assert.Equal(t, defaultTableCapacity, GetPoolConfig().TableCapacity)
	assert.False(t, IsMetricsEnabled())
	assert.False(t, IsDebugMode())

	SetInputFile("input.jsonl")
	assert.Equal(t, "input.jsonl", GetDatasetConfig().InputFile)

	yamlStr, err := GetRunningConfigAsYamlStr()
	assert.Nil(t, err)
	assert.Contains(t, yamlStr, "inputFile: input.jsonl")
}
