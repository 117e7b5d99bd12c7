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

package sampledataset

import (
	"bytes"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/valyala/bytebufferpool"
)

const BATCH_SIZE = 1000

type JSONLinesLoader interface {
	LoadJSONLines(r io.Reader) (uint64, error)
}

type DocSink interface {
	AddDoc(doc map[string]interface{}) error
}

func generateBody(recs int, rdr Generator, bb *bytebufferpool.ByteBuffer) ([]byte, error) {

	for i := 0; i < recs; i++ {
		logline, err := rdr.GetLogLine()
		if err != nil {
			return nil, err
		}
		_, _ = bb.Write(logline)
		_, _ = bb.WriteString("\n")
	}
	payLoad := bb.Bytes()
	return payLoad, nil
}

// LoadSampleLines generates numDocs json lines in batches and hands every
// batch to the loader.
func LoadSampleLines(loader JSONLinesLoader, numDocs int, seed int64) (uint64, error) {
	rdr := InitDynamicUserGenerator(seed)
	err := rdr.Init()
	if err != nil {
		log.Errorf("LoadSampleLines: Error in rdr Init: %v", err)
		return 0, err
	}

	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	loaded := uint64(0)
	for remaining := numDocs; remaining > 0; remaining -= BATCH_SIZE {
		recs := BATCH_SIZE
		if remaining < recs {
			recs = remaining
		}
		bb.Reset()
		payload, err := generateBody(recs, rdr, bb)
		if err != nil {
			log.Errorf("LoadSampleLines: Error generating body!: %v", err)
			return loaded, err
		}
		n, err := loader.LoadJSONLines(bytes.NewReader(payload))
		loaded += n
		if err != nil {
			return loaded, err
		}
	}
	return loaded, nil
}

// LoadSampleDocs generates numDocs documents and adds them to the sink
// without a json round trip.
func LoadSampleDocs(sink DocSink, numDocs int, seed int64) (uint64, error) {
	rdr := InitDynamicUserGenerator(seed)
	err := rdr.Init()
	if err != nil {
		log.Errorf("LoadSampleDocs: Error in rdr Init: %v", err)
		return 0, err
	}

	loaded := uint64(0)
	for i := 0; i < numDocs; i++ {
		doc, err := rdr.GetRawLog()
		if err != nil {
			return loaded, err
		}
		if err := sink.AddDoc(doc); err != nil {
			log.Errorf("LoadSampleDocs: failed to add doc %d, err=%v", i, err)
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}
