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
	"strings"
	"testing"

	"github.com/siglens/facetstats/pkg/segment/fielddata"
	"github.com/stretchr/testify/assert"
)

type termCollector struct {
	terms []string
}

func (c *termCollector) OnValue(docID uint32, key fielddata.HashedKey) error {
	c.terms = append(c.terms, string(key.Bytes))
	return nil
}

func (c *termCollector) OnMissing(docID uint32) {}

type numberCollector struct {
	values []float64
}

func (c *numberCollector) OnValue(docID uint32, value float64) {
	c.values = append(c.values, value)
}

func (c *numberCollector) OnMissing(docID uint32) {}

func termsOf(t *testing.T, seg *fielddata.MemSegment, field string, docID uint32) []string {
	keys, err := seg.KeyValues(field)
	assert.Nil(t, err)
	c := &termCollector{}
	assert.Nil(t, keys.ForEachValueInDoc(docID, c))
	return c.terms
}

func numbersOf(t *testing.T, seg *fielddata.MemSegment, field string, docID uint32) []float64 {
	values, err := seg.DoubleValues(field)
	assert.Nil(t, err)
	c := &numberCollector{}
	assert.Nil(t, values.ForEachValueInDoc(docID, c))
	return c.values
}

func Test_LoadJSONLines(t *testing.T) {
	input := `{"host": "web-1", "latency": 12.5, "tags": ["a", "b"], "request": {"bytes": 300, "ok": true}}

{"host": "web-2", "latency": [1, 2], "note": null}
this is not json
{"host": "web\"3", "request": {"bytes": 7}}
`
	loader, err := NewDocLoader(1, 100, "")
	assert.Nil(t, err)

	loaded, err := loader.LoadJSONLines(strings.NewReader(input))
	assert.Nil(t, err)
	assert.Equal(t, uint64(3), loaded)
	assert.Equal(t, uint64(3), loader.NumDocs())
	assert.Equal(t, uint64(1), loader.NumSkipped())

	shards := loader.Finish()
	assert.Len(t, shards, 1)
	assert.Len(t, shards[0], 1)
	seg := shards[0][0]
	assert.Equal(t, uint32(3), seg.NumDocs())

	assert.Equal(t, []string{"web-1"}, termsOf(t, seg, "host", 0))
	assert.Equal(t, []string{"12.5"}, termsOf(t, seg, "latency", 0))
	assert.Equal(t, []float64{12.5}, numbersOf(t, seg, "latency", 0))
	assert.Equal(t, []string{"a", "b"}, termsOf(t, seg, "tags", 0))
	assert.Equal(t, []float64{300}, numbersOf(t, seg, "request.bytes", 0))
	assert.Equal(t, []string{"true"}, termsOf(t, seg, "request.ok", 0))

	assert.Equal(t, []float64{1, 2}, numbersOf(t, seg, "latency", 1))
	assert.Empty(t, termsOf(t, seg, "note", 1))
	assert.Empty(t, termsOf(t, seg, "tags", 1))

	assert.Equal(t, []string{`web"3`}, termsOf(t, seg, "host", 2))
	assert.Equal(t, []string{"7"}, termsOf(t, seg, "request.bytes", 2))
}

func Test_AddDoc(t *testing.T) {
	loader, err := NewDocLoader(1, 100, "")
	assert.Nil(t, err)

	err = loader.AddDoc(map[string]interface{}{
		"city":    "Paris",
		"price":   9.5,
		"count":   3,
		"labels":  []interface{}{"x", "y"},
		"colors":  []string{"red"},
		"missing": nil,
		"user": map[string]interface{}{
			"age":    41,
			"active": false,
		},
	})
	assert.Nil(t, err)

	seg := loader.Finish()[0][0]
	assert.Equal(t, []string{"Paris"}, termsOf(t, seg, "city", 0))
	assert.Equal(t, []float64{9.5}, numbersOf(t, seg, "price", 0))
	assert.Equal(t, []string{"3"}, termsOf(t, seg, "count", 0))
	assert.Equal(t, []string{"x", "y"}, termsOf(t, seg, "labels", 0))
	assert.Equal(t, []string{"red"}, termsOf(t, seg, "colors", 0))
	assert.Equal(t, []float64{41}, numbersOf(t, seg, "user.age", 0))
	assert.Equal(t, []string{"false"}, termsOf(t, seg, "user.active", 0))
	assert.Empty(t, termsOf(t, seg, "missing", 0))
}

func Test_SegmentsAndRouting(t *testing.T) {
	loader, err := NewDocLoader(3, 2, "user")
	assert.Nil(t, err)

	users := []string{"ann", "bob", "cid", "ann", "bob", "ann", "dan"}
	for _, user := range users {
		assert.Nil(t, loader.AddDoc(map[string]interface{}{"user": user}))
	}
	shards := loader.Finish()
	assert.Len(t, shards, 3)

	seen := make(map[string]int)
	total := uint32(0)
	for shardId, segs := range shards {
		for _, seg := range segs {
			assert.True(t, seg.NumDocs() <= 2)
			total += seg.NumDocs()
			for doc := uint32(0); doc < seg.NumDocs(); doc++ {
				for _, user := range termsOf(t, seg, "user", doc) {
					if prev, ok := seen[user]; ok {
						assert.Equal(t, prev, shardId, user)
					}
					seen[user] = shardId
				}
			}
		}
	}
	assert.Equal(t, uint32(len(users)), total)
	assert.Len(t, seen, 4)
}

func Test_RoundRobinWithoutRoutingValue(t *testing.T) {
	loader, err := NewDocLoader(2, 10, "id")
	assert.Nil(t, err)
	for i := 0; i < 5; i++ {
		assert.Nil(t, loader.AddJSON([]byte(`{"v": 1}`)))
	}
	shards := loader.Finish()
	assert.Equal(t, uint32(3), shards[0][0].NumDocs())
	assert.Equal(t, uint32(2), shards[1][0].NumDocs())
}

func Test_DocLoaderErrors(t *testing.T) {
	_, err := NewDocLoader(0, 10, "")
	assert.NotNil(t, err)
	_, err = NewDocLoader(1, 0, "")
	assert.NotNil(t, err)

	loader, err := NewDocLoader(1, 10, "")
	assert.Nil(t, err)
	assert.NotNil(t, loader.AddJSON([]byte(`[1, 2]`)))
	assert.NotNil(t, loader.AddJSON([]byte(`{"a": `)))
	assert.Equal(t, uint64(0), loader.NumDocs())

	shards := loader.Finish()
	assert.Len(t, shards[0], 0)
}
