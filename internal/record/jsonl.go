package record

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
)

// JSONKind classifies the value found at a JSONL field.
type JSONKind int

const (
	JSONMissing JSONKind = iota
	JSONString
	JSONNumber
	JSONBool
	JSONNull
	JSONOther // arrays and objects
)

// ValidObject reports whether line is a single JSON object.
func ValidObject(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed))
}

// JSONGet extracts a top-level field from a JSONL line. For strings the
// returned value is unescaped; for numbers and booleans it is the literal
// text. Arrays and objects report JSONOther with an empty value.
func JSONGet(line, field string) (string, JSONKind, error) {
	value, typ, _, err := jsonparser.Get([]byte(line), field)
	switch typ {
	case jsonparser.NotExist:
		return "", JSONMissing, nil
	case jsonparser.String:
		s, perr := jsonparser.ParseString(value)
		if perr != nil {
			return "", JSONString, fmt.Errorf("field %q: %w", field, perr)
		}
		return s, JSONString, nil
	case jsonparser.Number:
		return string(value), JSONNumber, nil
	case jsonparser.Boolean:
		return string(value), JSONBool, nil
	case jsonparser.Null:
		return "", JSONNull, nil
	default:
		if err != nil {
			return "", JSONMissing, fmt.Errorf("field %q: %w", field, err)
		}
		return "", JSONOther, nil
	}
}

// JSONSetString sets a top-level field of a JSONL line to a string value,
// editing the line in place so untouched fields and their order are
// preserved. A missing field is appended.
func JSONSetString(line, field, value string) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode field %q: %w", field, err)
	}
	out, err := jsonparser.Set([]byte(line), encoded, field)
	if err != nil {
		return "", fmt.Errorf("set field %q: %w", field, err)
	}
	return string(out), nil
}
