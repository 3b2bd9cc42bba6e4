// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citegraph/internal/graph"
	"github.com/pdiddy/citegraph/pkg/types"
)

// document is the YAML export shape: the full entity set in one document,
// entities in snapshot (uid-sorted) order.
type document struct {
	MasterUID     string               `yaml:"master_short_uid"`
	Papers        []types.Paper        `yaml:"papers"`
	Authors       []types.Author       `yaml:"authors"`
	Institutions  []types.Institution  `yaml:"institutions,omitempty"`
	Authorships   []types.Authorship   `yaml:"authorships,omitempty"`
	Relationships []types.Relationship `yaml:"relationships,omitempty"`
	ExternalIDs   map[string]string    `yaml:"external_ids"`
}

// WriteYAML exports a snapshot as a single YAML document at path, for
// human inspection and diffing where sqlite is too heavy.
func WriteYAML(snap *graph.Snapshot, path string) error {
	doc := document{
		MasterUID:     snap.MasterUID,
		Papers:        snap.Papers,
		Authors:       snap.Authors,
		Institutions:  snap.Institutions,
		Authorships:   snap.Authorships,
		Relationships: snap.Relationships,
		ExternalIDs:   snap.ExternalIDs,
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshaling graph: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
