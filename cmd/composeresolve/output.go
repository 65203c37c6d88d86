package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// writeOutput encodes v in the requested format.
func writeOutput(w io.Writer, format string, v any) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(format) {
	case "yaml":
		data, err = toYAML(v)
	default:
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// toYAML goes through JSON so field names and omitempty follow the json tags.
// The JSON text is read back as a YAML node tree, which keeps field order.
func toYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	blockStyle(&node)
	return yaml.Marshal(&node)
}

// blockStyle drops the flow and quoting styles inherited from JSON.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
