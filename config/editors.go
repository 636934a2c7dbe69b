package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type editorsFile struct {
	Editors []int64 `yaml:"editors"`
}

// LoadEditorsFile reads a YAML editor list:
//
//	editors: [1234, 5678]
func LoadEditorsFile(path string) ([]int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("editors: open %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw editorsFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("editors: parse %s: %w", path, err)
	}
	return raw.Editors, nil
}
