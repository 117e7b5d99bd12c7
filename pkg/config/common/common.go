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

package common

type FacetConfig struct {
	Name        string `yaml:"name"`
	KeyField    string `yaml:"keyField"`    // field the terms are taken from
	ValueField  string `yaml:"valueField"`  // numeric field, ignored when valueScript is set
	ValueScript string `yaml:"valueScript"` // sql style expression, e.g. "price * quantity"
	Size        int    `yaml:"size"`        // 0 returns every term, unsorted
	Order       string `yaml:"order"`       // count, term, total, min, max, mean or reverse_*
}

type PoolConfig struct {
	InitialTables int `yaml:"initialTables"` // tables allocated up front
	TableCapacity int `yaml:"tableCapacity"` // initial key capacity of each table
}

type DatasetConfig struct {
	InputFile    string `yaml:"inputFile"`    // json lines file, a sample dataset is generated when empty
	RoutingField string `yaml:"routingField"` // documents are routed to shards by the hash of this field
	SampleDocs   int    `yaml:"sampleDocs"`
	Seed         int64  `yaml:"seed"`
}

type LogConfig struct {
	LogPrefix             string `yaml:"logPrefix"`             // Prefix of log file. Can be a directory. if empty will log to stdout
	LogFileRotationSizeMB int    `yaml:"logFileRotationSizeMB"` //Max size of log file in megabytes
	CompressLogFile       bool   `yaml:"compressLogFile"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listenAddr"` // address serving /metrics
}

/*  If you add a new config parameters to the Configuration struct below, make sure to add the default value
assignment in the following functions
1) ExtractConfigData function
2) InitializeDefaultConfig function */

type Configuration struct {
	Facet       FacetConfig   `yaml:"facet"`
	Pool        PoolConfig    `yaml:"pool"`
	Shards      int           `yaml:"shards"`      // number of shards executed in parallel
	SegmentDocs int           `yaml:"segmentDocs"` // documents per segment
	Dataset     DatasetConfig `yaml:"dataset"`
	Log         LogConfig     `yaml:"log"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Debug       bool          `yaml:"debug"` // debug logging
}
