// Package report turns a screening service payload into the console's report
// view: a count summary and one table (or placeholder) per partition.
package report

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Field is one key/value cell of a record, value already stringified.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Record is one screened stock. Fields keep the order in which their keys
// appear in the payload.
type Record struct {
	Fields []Field `json:"fields"`
}

// Get returns the value stored under key.
func (r Record) Get(key string) (string, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Keys returns the record's keys in payload order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Counts is the server-supplied summary, kept verbatim.
type Counts struct {
	Total    string `json:"total"`
	Eligible string `json:"eligible"`
	Rejected string `json:"rejected"`
}

// Result is a decoded screening response.
type Result struct {
	Count    Counts
	Eligible []Record
	Rejected []Record
}

// ShapeError reports a screening payload that does not have the expected structure.
type ShapeError struct {
	Path   string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Path == "" {
		return "screening response: " + e.Reason
	}
	return fmt.Sprintf("screening response: %s %s", e.Path, e.Reason)
}

// Decode validates and decodes a screening payload of the form
// {count:{total,eligible,rejected}, eligible:[{...}], rejected:[{...}]}.
func Decode(body []byte) (Result, error) {
	if !gjson.ValidBytes(body) {
		return Result{}, &ShapeError{Reason: "is not valid JSON"}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return Result{}, &ShapeError{Reason: "is not an object"}
	}

	count := root.Get("count")
	if !count.IsObject() {
		return Result{}, &ShapeError{Path: "count", Reason: "is missing or not an object"}
	}
	var res Result
	for _, c := range []struct {
		key string
		dst *string
	}{
		{"total", &res.Count.Total},
		{"eligible", &res.Count.Eligible},
		{"rejected", &res.Count.Rejected},
	} {
		v := count.Get(c.key)
		if !v.Exists() {
			return Result{}, &ShapeError{Path: "count." + c.key, Reason: "is missing"}
		}
		*c.dst = Stringify(v)
	}

	var err error
	if res.Eligible, err = decodeRecords(root, "eligible"); err != nil {
		return Result{}, err
	}
	if res.Rejected, err = decodeRecords(root, "rejected"); err != nil {
		return Result{}, err
	}
	return res, nil
}

func decodeRecords(root gjson.Result, key string) ([]Record, error) {
	arr := root.Get(key)
	if !arr.IsArray() {
		return nil, &ShapeError{Path: key, Reason: "is missing or not an array"}
	}
	items := arr.Array()
	records := make([]Record, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, &ShapeError{Path: fmt.Sprintf("%s[%d]", key, i), Reason: "is not an object"}
		}
		records = append(records, decodeRecord(item))
	}
	return records, nil
}

// decodeRecord walks the object in document order. A repeated key keeps its
// first position and takes the last value.
func decodeRecord(obj gjson.Result) Record {
	var rec Record
	index := make(map[string]int)
	obj.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if i, ok := index[key]; ok {
			rec.Fields[i].Value = Stringify(v)
			return true
		}
		index[key] = len(rec.Fields)
		rec.Fields = append(rec.Fields, Field{Key: key, Value: Stringify(v)})
		return true
	})
	return rec
}

// Stringify renders a JSON value as table cell text: strings as-is, numbers in
// shortest decimal form, nested values as compact JSON.
func Stringify(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return formatNumber(v.Num)
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.Null:
		return "null"
	case gjson.JSON:
		return string(pretty.Ugly([]byte(v.Raw)))
	default:
		return ""
	}
}

func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	if math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
