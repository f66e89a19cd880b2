package study

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// arrayPattern grabs from the first '[' to the last ']' so prose around
// the model's JSON is ignored.
var arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// decodeArray parses a JSON array out of a model reply. It returns false
// when nothing parseable was found.
func decodeArray(raw string, v any) bool {
	if m := arrayPattern.FindString(raw); m != "" {
		if json.Unmarshal([]byte(m), v) == nil {
			return true
		}
	}
	return json.Unmarshal([]byte(strings.TrimSpace(raw)), v) == nil
}

// looseString accepts strings, booleans and numbers. Models sometimes
// answer true/false questions with a bare boolean.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		if t {
			*s = "True"
		} else {
			*s = "False"
		}
	case float64:
		*s = looseString(strconv.FormatFloat(t, 'f', -1, 64))
	case nil:
		*s = ""
	default:
		*s = looseString(strings.TrimSpace(string(b)))
	}
	return nil
}
