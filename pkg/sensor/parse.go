package sensor

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrNoFields means the body carried none of the recognized keys.
var ErrNoFields = errors.New("no recognized sensor fields in body")

// Update carries the fields a sensor node posted. Nil means absent.
type Update struct {
	Temperature *float64
	Humidity    *float64
	Water       *int
}

type wireUpdate struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Water       *int     `json:"waterSensor"`
}

// ParseUpdate extracts sensor fields from a request body. Sensor nodes in
// the field post hand-assembled JSON, sometimes just a bare fragment like
// `"humidity":60,`, so strict decoding is tried first and a tolerant
// key-by-key scan second. Any subset of recognized keys is accepted; a body
// with none of them fails. This permissiveness is deliberate and load
// bearing for deployed nodes; do not tighten it.
func ParseUpdate(body []byte) (Update, error) {
	var w wireUpdate
	if err := json.Unmarshal(body, &w); err == nil {
		u := Update{Temperature: w.Temperature, Humidity: w.Humidity, Water: w.Water}
		if u.Temperature == nil && u.Humidity == nil && u.Water == nil {
			return Update{}, ErrNoFields
		}
		return u, nil
	}

	return scanUpdate(string(body))
}

// scanUpdate pulls recognized fields out of a malformed body. Keys are
// matched literally; nested or escaped forms are not supported, matching
// what the sensor nodes actually send. The end of the body counts as a
// value delimiter: nodes truncate the final field's trailing `,`/`}` often
// enough that requiring one would drop real readings.
func scanUpdate(body string) (Update, error) {
	var u Update
	if v, ok := scanNumber(body, `"temperature":`); ok {
		u.Temperature = &v
	}
	if v, ok := scanNumber(body, `"humidity":`); ok {
		u.Humidity = &v
	}
	if v, ok := scanNumber(body, `"waterSensor":`); ok {
		w := int(v)
		u.Water = &w
	}
	if u.Temperature == nil && u.Humidity == nil && u.Water == nil {
		return Update{}, ErrNoFields
	}
	return u, nil
}

func scanNumber(body, key string) (float64, bool) {
	idx := strings.Index(body, key)
	if idx == -1 {
		return 0, false
	}
	rest := body[idx+len(key):]

	end := strings.IndexAny(rest, ",}")
	if end == -1 {
		end = len(rest)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rest[:end]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
