package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/htn/internal/ir"
)

func marshalStrings(strs []string) (string, error) {
	data, err := ir.MarshalCanonical(strs)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(data), nil
}

func unmarshalStrings(data string) ([]string, error) {
	out := []string{}
	if data == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	return out, nil
}

// parseValues parses stored text values against params.
func parseValues(params []ir.Param, strs []string) ([]ir.Value, error) {
	if len(strs) != len(params) {
		return nil, fmt.Errorf("expected %d values, got %d", len(params), len(strs))
	}
	out := make([]ir.Value, len(strs))
	for i, s := range strs {
		v, err := ir.ParseValue(params[i].Type, s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", params[i].Name, err)
		}
		out[i] = v
	}
	return out, nil
}
