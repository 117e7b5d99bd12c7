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
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	jsoniter "github.com/json-iterator/go"
)

const TIMESTAMP_KEY = "timestamp"

type Generator interface {
	Init() error
	GetLogLine() ([]byte, error)
	GetRawLog() (map[string]interface{}, error)
}

// DynamicUserGenerator produces web access style documents. The map returned
// by GetRawLog is reused by the next call.
type DynamicUserGenerator struct {
	baseBody  map[string]interface{}
	tNowEpoch uint64
	faker     *gofakeit.Faker
	seed      int64
	docNum    uint64
}

func InitDynamicUserGenerator(seed int64) *DynamicUserGenerator {
	return &DynamicUserGenerator{
		seed: seed,
	}
}

func (r *DynamicUserGenerator) Init() error {
	r.faker = gofakeit.NewUnlocked(r.seed)
	r.baseBody = make(map[string]interface{})
	r.tNowEpoch = uint64(time.Now().UnixMilli()) - 80*24*3600*1000
	r.generateRandomBody()
	_, err := jsoniter.Marshal(r.baseBody)
	if err != nil {
		return err
	}
	return nil
}

func (r *DynamicUserGenerator) GetLogLine() ([]byte, error) {
	r.generateRandomBody()
	return jsoniter.Marshal(r.baseBody)
}

func (r *DynamicUserGenerator) GetRawLog() (map[string]interface{}, error) {
	r.generateRandomBody()
	return r.baseBody, nil
}

func (r *DynamicUserGenerator) generateRandomBody() {
	randomizeBody(r.faker, r.baseBody, r.tNowEpoch+r.docNum*1000)
	r.docNum++
}

func randomizeBody(f *gofakeit.Faker, m map[string]interface{}, ts uint64) {

	m["batch"] = fmt.Sprintf("batch-%d", f.Number(1, 1000))
	p := f.Person()
	m["first_name"] = p.FirstName
	m["gender"] = p.Gender
	m["hobby"] = p.Hobby
	m["job_level"] = p.Job.Level
	m["job_title"] = p.Job.Title

	m["city"] = p.Address.City
	m["state"] = p.Address.State
	m["country"] = p.Address.Country

	m["user_color"] = f.Color()
	m["weekday"] = f.WeekDay()
	m["http_method"] = f.HTTPMethod()
	m["http_status"] = f.HTTPStatusCodeSimple()
	m["app_name"] = f.AppName()
	m["app_version"] = f.AppVersion()
	m["ident"] = f.UUID()
	m["group"] = fmt.Sprintf("group %d", f.Number(0, 2))
	m["latency"] = f.Number(0, 10_000_000)

	numTags := f.Number(0, 3)
	tags := make([]interface{}, 0, numTags)
	for i := 0; i < numTags; i++ {
		tags = append(tags, f.BuzzWord())
	}
	m["tags"] = tags

	m["order"] = map[string]interface{}{
		"price":    f.Price(1, 500),
		"quantity": f.Number(1, 20),
		"discount": f.Float64Range(0, 0.5),
	}

	// roughly one in ten documents has no region
	if f.Number(0, 9) == 0 {
		delete(m, "region")
	} else {
		m["region"] = f.RandomString([]string{"us-east", "us-west", "eu-central", "ap-south"})
	}

	m[TIMESTAMP_KEY] = ts
}
