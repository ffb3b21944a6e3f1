package document

import (
	"bytes"
	"errors"
	"regexp"

	"github.com/tidwall/gjson"
)

var jsonpArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

type JSON struct {
	raw []byte
}

// ParseJSON accepts plain JSON or a JSONP wrapper around an array.
func ParseJSON(body []byte) (JSON, error) {
	trimmed := bytes.TrimSpace(body)
	if gjson.ValidBytes(trimmed) {
		return JSON{raw: trimmed}, nil
	}
	if match := jsonpArrayPattern.Find(trimmed); match != nil && gjson.ValidBytes(match) {
		return JSON{raw: match}, nil
	}
	return JSON{}, &ParseError{Kind: "json", Err: errors.New("payload is neither JSON nor JSONP")}
}

// Get evaluates a gjson path. A missing path yields a result whose Exists is false.
func (j JSON) Get(path string) gjson.Result {
	return gjson.GetBytes(j.raw, path)
}

// Strings returns the string members of the array at path, or of the root
// when path is empty.
func (j JSON) Strings(path string) []string {
	var value gjson.Result
	if path == "" {
		value = gjson.ParseBytes(j.raw)
	} else {
		value = j.Get(path)
	}
	if !value.IsArray() {
		return nil
	}
	out := make([]string, 0, len(value.Array()))
	for _, item := range value.Array() {
		if item.Type == gjson.String {
			out = append(out, item.String())
		}
	}
	return out
}
