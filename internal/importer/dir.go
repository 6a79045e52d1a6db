package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DirSource reads one YAML file per entity kind from a directory:
// levels.yaml, heroes.yaml, monsters.yaml, stations.yaml, questions.yaml and
// channels.yaml. Only levels.yaml is required.
type DirSource struct{}

// NewDirSource creates a DirSource.
func NewDirSource() DirSource { return DirSource{} }

// Load implements Source.
func (DirSource) Load(dir string) (*Content, error) {
	var c Content
	files := []struct {
		name     string
		into     any
		required bool
	}{
		{"levels.yaml", &c.Levels, true},
		{"heroes.yaml", &c.Heroes, false},
		{"monsters.yaml", &c.Monsters, false},
		{"stations.yaml", &c.Stations, false},
		{"questions.yaml", &c.Questions, false},
		{"channels.yaml", &c.Channels, false},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) && !f.required {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := decodeList(data, f.into); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return &c, nil
}

// decodeList decodes a YAML sequence, rejecting unknown fields.
func decodeList(data []byte, into any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(into); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
