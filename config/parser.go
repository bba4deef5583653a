package config

import (
	"encoding/json"
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// parseDocument parses a configuration document that may be either JSON or YAML,
// returning its top-level mapping. JSON is tried first since every JSON document
// is also valid YAML but not vice versa. A document whose top level is not a
// mapping is rejected.
func parseDocument(data []byte) (map[string]interface{}, error) {
	var target map[string]interface{}
	if err := json.Unmarshal(data, &target); err == nil {
		return target, nil
	}
	var rawStructure interface{}
	if err := yaml.Unmarshal(data, &rawStructure); err != nil {
		return nil, err
	}
	normalized, err := normalizeParsedYAML(rawStructure)
	if err != nil {
		return nil, err
	}
	if normalized == nil {
		return map[string]interface{}{}, nil
	}
	m, ok := normalized.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("top level of configuration document must be a mapping, got %T", normalized)
	}
	return m, nil
}

// normalizeParsedYAML rewrites the structures produced by the YAML parser so that
// every mapping is a map[string]interface{}. Older YAML parsers produce
// map[interface{}]interface{} for nested mappings; non-string keys are rejected.
func normalizeParsedYAML(data interface{}) (interface{}, error) {
	switch data := data.(type) {
	case []interface{}:
		arrayOut := make([]interface{}, 0, len(data))
		for _, v := range data {
			v1, err := normalizeParsedYAML(v)
			if err != nil {
				return nil, err
			}
			arrayOut = append(arrayOut, v1)
		}
		return arrayOut, nil
	case map[string]interface{}:
		mapOut := make(map[string]interface{}, len(data))
		for k, v := range data {
			v1, err := normalizeParsedYAML(v)
			if err != nil {
				return nil, err
			}
			mapOut[k] = v1
		}
		return mapOut, nil
	case map[interface{}]interface{}:
		mapOut := make(map[string]interface{}, len(data))
		for k, v := range data {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf(
					"configuration data contained a map key of type %T; only string keys are allowed", k)
			}
			v1, err := normalizeParsedYAML(v)
			if err != nil {
				return nil, err
			}
			mapOut[key] = v1
		}
		return mapOut, nil
	default:
		return data, nil
	}
}
