package s0_data

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ErrNoJSONObject is returned when the text holds no {...} object
var ErrNoJSONObject = errors.New("no JSON object found")

var codeFencePattern = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSONObject returns the JSON object text inside a payload,
// unwrapping a Markdown code fence and trimming to the outermost braces
func ExtractJSONObject(text string) (string, error) {
	candidate := text
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	}
	candidate = strings.TrimSpace(candidate)

	first := strings.Index(candidate, "{")
	last := strings.LastIndex(candidate, "}")
	if first == -1 || last == -1 || first >= last {
		return "", ErrNoJSONObject
	}
	return candidate[first : last+1], nil
}

// ParseJSONLenient decodes text into v: strict JSON first, then repaired JSON, then Hjson.
// Returns which stage succeeded ("strict", "repaired", "hjson").
func ParseJSONLenient(text string, v interface{}) (string, error) {
	extracted, err := ExtractJSONObject(text)
	if err != nil {
		return "", err
	}

	strictErr := json.Unmarshal([]byte(extracted), v)
	if strictErr == nil {
		return "strict", nil
	}

	if repaired, err := jsonrepair.RepairJSON(extracted); err == nil {
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return "repaired", nil
		}
	}

	// Hjson loses key order; re-encode through encoding/json so custom decoders still run
	var generic interface{}
	if err := hjson.Unmarshal([]byte(extracted), &generic); err == nil {
		normalized, err := json.Marshal(generic)
		if err == nil {
			if err := json.Unmarshal(normalized, v); err == nil {
				return "hjson", nil
			}
		}
	}

	return "", fmt.Errorf("parse JSON payload: %w", strictErr)
}
