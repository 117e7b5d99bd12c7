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
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/siglens/facetstats/pkg/config/common"
	structs "github.com/siglens/facetstats/pkg/segment/structs"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	defaultFacetSize      = 10
	defaultInitialTables  = 4
	defaultTableCapacity  = 1024
	defaultSegmentDocs    = 10_000
	defaultSampleDocs     = 100_000
	defaultLogRotationMB  = 100
	defaultMetricsAddress = "localhost:2112"
)

var runningConfig common.Configuration

var parallelism int

func init() {
	parallelism = runtime.GOMAXPROCS(0)
	if parallelism <= 1 {
		parallelism = 2
	}
}

func defaultNumShards() int {
	return parallelism
}

func GetRunningConfig() *common.Configuration {
	return &runningConfig
}

func SetConfig(config common.Configuration) {
	runningConfig = config
}

func GetFacetConfig() common.FacetConfig {
	return runningConfig.Facet
}

func GetPoolConfig() common.PoolConfig {
	return runningConfig.Pool
}

func GetNumShards() int {
	return runningConfig.Shards
}

func GetSegmentDocs() int {
	return runningConfig.SegmentDocs
}

func GetDatasetConfig() common.DatasetConfig {
	return runningConfig.Dataset
}

func SetInputFile(fileName string) {
	runningConfig.Dataset.InputFile = fileName
}

func GetLogPrefix() string {
	return runningConfig.Log.LogPrefix
}

func GetLogConfig() common.LogConfig {
	return runningConfig.Log
}

func IsMetricsEnabled() bool {
	return runningConfig.Metrics.Enabled
}

func GetMetricsListenAddr() string {
	return runningConfig.Metrics.ListenAddr
}

func IsDebugMode() bool {
	return runningConfig.Debug
}

func InitializeDefaultConfig() {
	runningConfig = common.Configuration{
		Facet: common.FacetConfig{
			Name:     "facet",
			KeyField: "",
			Size:     defaultFacetSize,
			Order:    structs.CountComparator.String(),
		},
		Pool:        common.PoolConfig{InitialTables: defaultInitialTables, TableCapacity: defaultTableCapacity},
		Shards:      defaultNumShards(),
		SegmentDocs: defaultSegmentDocs,
		Dataset:     common.DatasetConfig{SampleDocs: defaultSampleDocs, Seed: 1},
		Log:         common.LogConfig{LogPrefix: "", LogFileRotationSizeMB: defaultLogRotationMB, CompressLogFile: false},
		Metrics:     common.MetricsConfig{Enabled: false, ListenAddr: defaultMetricsAddress},
		Debug:       false,
	}
}

func ReadConfigFile(fileName string) (common.Configuration, error) {
	yamlData, err := os.ReadFile(fileName)
	if err != nil {
		log.Errorf("ReadConfigFile: cannot read input fileName = %v, err=%v", fileName, err)
		return common.Configuration{}, err
	}
	return ExtractConfigData(yamlData)
}

// ExtractConfigData parses the yaml and fills in a default for every missing
// parameter.
func ExtractConfigData(yamlData []byte) (common.Configuration, error) {
	var config common.Configuration
	err := yaml.Unmarshal(yamlData, &config)
	if err != nil {
		log.Errorf("ExtractConfigData: error parsing yaml err=%v", err)
		return config, err
	}

	if len(config.Facet.Name) <= 0 {
		config.Facet.Name = "facet"
	}
	if len(config.Facet.KeyField) <= 0 {
		return config, fmt.Errorf("ExtractConfigData: facet.keyField is required")
	}
	config.Facet.ValueScript = strings.TrimSpace(config.Facet.ValueScript)
	if len(config.Facet.ValueField) <= 0 && len(config.Facet.ValueScript) <= 0 {
		return config, fmt.Errorf("ExtractConfigData: facet %v needs facet.valueField or facet.valueScript", config.Facet.Name)
	}
	if config.Facet.Size < 0 {
		log.Errorf("ExtractConfigData: negative facet size %d, defaulting to %d", config.Facet.Size, defaultFacetSize)
		config.Facet.Size = defaultFacetSize
	}
	if len(config.Facet.Order) <= 0 {
		config.Facet.Order = structs.CountComparator.String()
	}
	if _, err := structs.ParseComparatorType(config.Facet.Order); err != nil {
		return config, fmt.Errorf("ExtractConfigData: %w", err)
	}

	if config.Pool.InitialTables < 0 {
		config.Pool.InitialTables = defaultInitialTables
	}
	if config.Pool.TableCapacity <= 0 {
		config.Pool.TableCapacity = defaultTableCapacity
	}

	if config.Shards <= 0 {
		config.Shards = defaultNumShards()
	}
	if config.SegmentDocs <= 0 {
		config.SegmentDocs = defaultSegmentDocs
	}

	if len(config.Dataset.InputFile) <= 0 && config.Dataset.SampleDocs <= 0 {
		config.Dataset.SampleDocs = defaultSampleDocs
	}

	if config.Log.LogFileRotationSizeMB <= 0 {
		config.Log.LogFileRotationSizeMB = defaultLogRotationMB
	}

	if len(config.Metrics.ListenAddr) <= 0 {
		config.Metrics.ListenAddr = defaultMetricsAddress
	}

	return config, nil
}

// ExtractCmdLineInput returns the config file and the optional input file
// override given on the command line.
func ExtractCmdLineInput() (string, string) {
	log.Trace("ExtractCmdLineInput | START")
	configFile := flag.String("config", "facetstats.yaml", "Path to config file")
	inputFile := flag.String("input", "", "JSON lines file to facet, overrides dataset.inputFile")

	flag.Parse()
	log.Info("Extracting config from configFile: ", *configFile)
	log.Trace("ExtractCmdLineInput | STOP")
	return *configFile, *inputFile
}

func GetRunningConfigAsYamlStr() (string, error) {
	data, err := yaml.Marshal(&runningConfig)
	if err != nil {
		log.Errorf("GetRunningConfigAsYamlStr: failed to marshal config, err=%v", err)
		return "", err
	}
	return string(data), nil
}
