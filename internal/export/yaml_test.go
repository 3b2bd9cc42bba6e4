// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestWriteYAMLRoundTrip(t *testing.T) {
	st := buildState(t)
	snap := st.Snapshot()
	path := filepath.Join(t.TempDir(), "graph.yaml")

	require.NoError(t, WriteYAML(snap, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc document
	require.NoError(t, yaml.Unmarshal(data, &doc))

	assert.Equal(t, snap.MasterUID, doc.MasterUID)
	assert.Len(t, doc.Papers, len(snap.Papers))
	assert.Len(t, doc.Authors, len(snap.Authors))
	assert.Len(t, doc.Relationships, len(snap.Relationships))
	assert.Equal(t, snap.ExternalIDs, doc.ExternalIDs)
}
