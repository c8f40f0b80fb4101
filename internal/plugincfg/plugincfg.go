// Package plugincfg reads the metadata of a Godot plugin.cfg file.
package plugincfg

import (
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"

	"nightlyprep/internal/errors"
)

// Section is the plugin.cfg section holding addon metadata.
const Section = "plugin"

// Info is the addon metadata shown by inspect.
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	Script      string `json:"script,omitempty"`
}

// Load reads path from fsys and returns the [plugin] section.
func Load(fsys afero.Fs, path string) (*Info, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.WrapFileOpError(path, errors.OpRead, err)
	}
	return Parse(path, data)
}

// Parse decodes plugin.cfg content. Both name and version must be present.
func Parse(path string, data []byte) (*Info, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
	}, data)
	if err != nil {
		return nil, errors.NewFileError(path, "cannot parse plugin configuration", err)
	}

	section, err := file.GetSection(Section)
	if err != nil {
		return nil, errors.NewFileError(path, "missing [plugin] section", err)
	}

	// Key creates missing keys, so required ones go through GetKey.
	name, err := section.GetKey("name")
	if err != nil {
		return nil, errors.NewPatternError(path, "name")
	}
	version, err := section.GetKey("version")
	if err != nil {
		return nil, errors.NewPatternError(path, "version")
	}

	return &Info{
		Name:        name.String(),
		Version:     version.String(),
		Description: optional(section, "description"),
		Author:      optional(section, "author"),
		Script:      optional(section, "script"),
	}, nil
}

func optional(section *ini.Section, key string) string {
	if k, err := section.GetKey(key); err == nil {
		return k.String()
	}
	return ""
}
