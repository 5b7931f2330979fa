package utils

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/taposh/cxxnet/nnet"
)

// ReadConfYAML reads directives from a YAML sequence of single-entry maps.
// A sequence keeps the directive order the grammar depends on, which a
// plain YAML map would not:
//
//	- netconfig: start
//	- layer[0->1]: fullc
//	- nhidden: "128"
//	- layer[1->1]: relu
func ReadConfYAML(r io.Reader) ([]nnet.Directive, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		return nil, err
	}
	if len(root.Content) != 1 || root.Content[0].Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("yaml configuration must be a sequence of key: value entries")
	}
	seq := root.Content[0]
	directives := make([]nnet.Directive, 0, len(seq.Content))
	for _, item := range seq.Content {
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return nil, fmt.Errorf("line %d: each entry must be a single key: value pair", item.Line)
		}
		directives = append(directives, nnet.Directive{
			Key:   item.Content[0].Value,
			Value: item.Content[1].Value,
		})
	}
	return directives, nil
}

// ReadConfYAMLFile reads a YAML configuration file from disk.
func ReadConfYAMLFile(path string) ([]nnet.Directive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds, err := ReadConfYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}
