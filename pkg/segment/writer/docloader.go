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

package writer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	jp "github.com/buger/jsonparser"
	"github.com/cespare/xxhash"
	"github.com/nqd/flat"
	"github.com/siglens/facetstats/pkg/segment/fielddata"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/bytebufferpool"
)

const MAX_JSON_LINE_SIZE = 4 * 1024 * 1024

const FLATTEN_DELIMITER = "."

type pendingValue struct {
	field    string
	term     string
	number   float64
	isNumber bool
}

type shardSegments struct {
	builder  *fielddata.SegmentBuilder
	segments []*fielddata.MemSegment
}

// DocLoader turns documents into in-memory segments. Nested objects are
// flattened with "." and arrays become multi-valued fields. Every value is
// indexed in the key column; numbers are also indexed in the numeric column.
// Documents are routed by the hash of routingField, or round robin when the
// field is not set or absent from the document.
type DocLoader struct {
	numShards    int
	segmentDocs  int
	routingField string

	shards     []*shardSegments
	pending    []pendingValue
	numDocs    uint64
	numSkipped uint64
}

func NewDocLoader(numShards int, segmentDocs int, routingField string) (*DocLoader, error) {
	if numShards <= 0 {
		return nil, fmt.Errorf("NewDocLoader: invalid number of shards %d", numShards)
	}
	if segmentDocs <= 0 {
		return nil, fmt.Errorf("NewDocLoader: invalid segment size %d", segmentDocs)
	}
	shards := make([]*shardSegments, numShards)
	for i := range shards {
		shards[i] = &shardSegments{}
	}
	return &DocLoader{
		numShards:    numShards,
		segmentDocs:  segmentDocs,
		routingField: routingField,
		shards:       shards,
	}, nil
}

func (l *DocLoader) NumDocs() uint64 {
	return l.numDocs
}

func (l *DocLoader) NumSkipped() uint64 {
	return l.numSkipped
}

// LoadJSONLines adds every line of r as one document. Malformed lines are
// logged and skipped.
func (l *DocLoader) LoadJSONLines(r io.Reader) (uint64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MAX_JSON_LINE_SIZE)

	loaded := uint64(0)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		err := l.AddJSON(line)
		if err != nil {
			log.Errorf("LoadJSONLines: skipping line %d, err=%v", lineNum, err)
			l.numSkipped++
			continue
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		log.Errorf("LoadJSONLines: failed to read line %d, err=%v", lineNum+1, err)
		return loaded, err
	}
	return loaded, nil
}

// AddJSON adds one json object as a document.
func (l *DocLoader) AddJSON(rawJson []byte) error {
	l.pending = l.pending[:0]
	err := jp.ObjectEach(rawJson, func(key []byte, value []byte, valueType jp.ValueType, off int) error {
		return l.addJSONValue(string(key), value, valueType)
	})
	if err != nil {
		return fmt.Errorf("AddJSON: failed to parse json, err=%w", err)
	}
	l.flushPending()
	return nil
}

func (l *DocLoader) addJSONValue(field string, value []byte, valueType jp.ValueType) error {
	switch valueType {
	case jp.String:
		term, err := jp.ParseString(value)
		if err != nil {
			return fmt.Errorf("addJSONValue: field %v has an invalid string, err=%w", field, err)
		}
		l.pending = append(l.pending, pendingValue{field: field, term: term})
	case jp.Number:
		number, err := jp.ParseFloat(value)
		if err != nil {
			return fmt.Errorf("addJSONValue: failed to parse value %s of field %v as float, err=%w", value, field, err)
		}
		l.pending = append(l.pending, pendingValue{field: field, number: number, isNumber: true})
	case jp.Boolean:
		flag, err := jp.ParseBoolean(value)
		if err != nil {
			return fmt.Errorf("addJSONValue: field %v has an invalid boolean, err=%w", field, err)
		}
		l.pending = append(l.pending, pendingValue{field: field, term: strconv.FormatBool(flag)})
	case jp.Null:
	case jp.Object:
		return jp.ObjectEach(value, func(key []byte, value []byte, valueType jp.ValueType, off int) error {
			return l.addJSONValue(field+FLATTEN_DELIMITER+string(key), value, valueType)
		})
	case jp.Array:
		var innerErr error
		_, err := jp.ArrayEach(value, func(value []byte, valueType jp.ValueType, off int, err error) {
			if innerErr == nil {
				innerErr = l.addJSONValue(field, value, valueType)
			}
		})
		if err != nil {
			return fmt.Errorf("addJSONValue: field %v has an invalid array, err=%w", field, err)
		}
		return innerErr
	default:
		return fmt.Errorf("addJSONValue: field %v has unsupported type %v", field, valueType)
	}
	return nil
}

// AddDoc adds an already decoded document.
func (l *DocLoader) AddDoc(doc map[string]interface{}) error {
	flatDoc, err := flat.Flatten(doc, &flat.Options{Delimiter: FLATTEN_DELIMITER, Safe: true})
	if err != nil {
		return fmt.Errorf("AddDoc: failed to flatten document, err=%w", err)
	}

	l.pending = l.pending[:0]
	for field, value := range flatDoc {
		l.addRawValue(field, value)
	}
	l.flushPending()
	return nil
}

func (l *DocLoader) addRawValue(field string, value interface{}) {
	switch v := value.(type) {
	case nil:
	case string:
		l.pending = append(l.pending, pendingValue{field: field, term: v})
	case bool:
		l.pending = append(l.pending, pendingValue{field: field, term: strconv.FormatBool(v)})
	case float64:
		l.pending = append(l.pending, pendingValue{field: field, number: v, isNumber: true})
	case float32:
		l.pending = append(l.pending, pendingValue{field: field, number: float64(v), isNumber: true})
	case int:
		l.pending = append(l.pending, pendingValue{field: field, number: float64(v), isNumber: true})
	case int32:
		l.pending = append(l.pending, pendingValue{field: field, number: float64(v), isNumber: true})
	case int64:
		l.pending = append(l.pending, pendingValue{field: field, number: float64(v), isNumber: true})
	case uint:
		l.pending = append(l.pending, pendingValue{field: field, number: float64(v), isNumber: true})
	case uint32:
		l.pending = append(l.pending, pendingValue{field: field, number: float64(v), isNumber: true})
	case uint64:
		l.pending = append(l.pending, pendingValue{field: field, number: float64(v), isNumber: true})
	case []string:
		for _, s := range v {
			l.pending = append(l.pending, pendingValue{field: field, term: s})
		}
	case []interface{}:
		for _, elem := range v {
			l.addRawValue(field, elem)
		}
	case map[string]interface{}:
		// objects inside arrays are not flattened by flat in safe mode
		for key, elem := range v {
			l.addRawValue(field+FLATTEN_DELIMITER+key, elem)
		}
	default:
		l.pending = append(l.pending, pendingValue{field: field, term: fmt.Sprint(v)})
	}
}

func (l *DocLoader) flushPending() {
	shard := l.shards[l.route()]
	if shard.builder == nil {
		shard.builder = fielddata.NewSegmentBuilder()
	}

	bb := bytebufferpool.Get()
	for _, v := range l.pending {
		if !v.isNumber {
			shard.builder.AddKeyString(v.field, v.term)
			continue
		}
		bb.B = strconv.AppendFloat(bb.B[:0], v.number, 'f', -1, 64)
		shard.builder.AddKey(v.field, bb.B)
		shard.builder.AddDouble(v.field, v.number)
	}
	bytebufferpool.Put(bb)

	shard.builder.EndDoc()
	l.numDocs++
	l.pending = l.pending[:0]

	if int(shard.builder.NumDocs()) >= l.segmentDocs {
		shard.segments = append(shard.segments, shard.builder.Build())
		shard.builder = nil
	}
}

func (l *DocLoader) route() int {
	if l.routingField != "" {
		for _, v := range l.pending {
			if v.field != l.routingField {
				continue
			}
			if v.isNumber {
				return int(xxhash.Sum64String(strconv.FormatFloat(v.number, 'f', -1, 64)) % uint64(l.numShards))
			}
			return int(xxhash.Sum64String(v.term) % uint64(l.numShards))
		}
	}
	return int(l.numDocs % uint64(l.numShards))
}

// Finish seals the open segments and returns the segments of every shard,
// indexed by shard id.
func (l *DocLoader) Finish() [][]*fielddata.MemSegment {
	result := make([][]*fielddata.MemSegment, l.numShards)
	for i, shard := range l.shards {
		if shard.builder != nil && shard.builder.NumDocs() > 0 {
			shard.segments = append(shard.segments, shard.builder.Build())
		}
		shard.builder = nil
		result[i] = shard.segments
	}
	return result
}
