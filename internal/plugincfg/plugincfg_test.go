package plugincfg

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	preperrors "nightlyprep/internal/errors"
)

func TestParse(t *testing.T) {
	content := `[plugin]

name="GlecsNightly"
description="An ECS; for Godot # nightly"
author="glecs"
version="0.1.0-nightly"
script="plugin.gd"
`
	info, err := Parse("plugin.cfg", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, "GlecsNightly", info.Name)
	assert.Equal(t, "0.1.0-nightly", info.Version)
	assert.Equal(t, "An ECS; for Godot # nightly", info.Description)
	assert.Equal(t, "glecs", info.Author)
	assert.Equal(t, "plugin.gd", info.Script)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"missing section", "name=\"x\"\nversion=\"1\"\n", ""},
		{"missing name", "[plugin]\nversion=\"1\"\n", "name"},
		{"missing version", "[plugin]\nname=\"x\"\n", "version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("plugin.cfg", []byte(tt.content))
			require.Error(t, err)

			var patternErr *preperrors.PatternError
			if tt.field == "" {
				assert.False(t, errors.As(err, &patternErr))
				return
			}
			require.True(t, errors.As(err, &patternErr))
			assert.Equal(t, tt.field, patternErr.Field)
		})
	}
}

func TestLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/addon/plugin.cfg", []byte("[plugin]\nname = \"Glecs\"\nversion = \"1.0.0\"\n"), 0o644))

	info, err := Load(fsys, "/addon/plugin.cfg")
	require.NoError(t, err)
	assert.Equal(t, "Glecs", info.Name)
	assert.Equal(t, "1.0.0", info.Version)

	_, err = Load(fsys, "/addon/missing.cfg")
	var notFound *preperrors.FileNotFoundError
	assert.True(t, errors.As(err, &notFound))
}
