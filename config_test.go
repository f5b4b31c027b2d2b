package gdalabel

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 512, cfg.TileSize)
	assert.Equal(t, 10, cfg.GapFillThreshold)
	assert.Equal(t, ClassUnknown, cfg.UnknownClass)
	assert.Equal(t, 25833, cfg.DefaultEPSG)
	assert.Equal(t, uint64(54635), cfg.Seed)
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	p := writeConfig(t, "cfg.json", `{"tile_size": 256, "split": {"train": 0.7, "valid": 0.2, "test": 0.1}}`)
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.TileSize)
	assert.Equal(t, GAP_FILL_THRESHOLD, cfg.GapFillThreshold)
	assert.Equal(t, DefaultClassTable(), cfg.ClassNames)
	assert.Equal(t, 0.2, cfg.Split.Valid)
}

func TestLoadConfigReplacesClassNames(t *testing.T) {
	p := writeConfig(t, "cfg.json", `{"class_names": {"Forest": 0, "undefined": 5}}`)
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Len(t, cfg.ClassNames, 2)

	id, ok := cfg.ClassTable().Lookup("FOREST")
	assert.True(t, ok)
	assert.Equal(t, ClassWater, id)
	_, ok = cfg.ClassTable().Lookup("water")
	assert.False(t, ok)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "cfg.yaml", `{}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(writeConfig(t, "cfg.json", `{"tile_size": `))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(writeConfig(t, "cfg.json", `{"split": {"train": 0.5, "valid": 0.2, "test": 0.2}}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, ErrSplitSum)

	_, err = LoadConfig(writeConfig(t, "cfg.json", `{"workers": 0}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(writeConfig(t, "cfg.json", `{"unknown_class": 9}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	big := `{"log_level": "` + strings.Repeat("a", maxConfigSize) + `"}`
	_, err = LoadConfig(writeConfig(t, "cfg.json", big))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSplitValidate(t *testing.T) {
	assert.NoError(t, Split{0.8, 0, 0.2}.Validate())
	assert.NoError(t, Split{0.7, 0.2, 0.1}.Validate())
	assert.ErrorIs(t, Split{0.5, 0.2, 0.2}.Validate(), ErrSplitSum)
	assert.ErrorIs(t, Split{1.2, -0.2, 0}.Validate(), ErrSplitSum)
}

func TestClassTable(t *testing.T) {
	table := NewClassTable(DefaultClassTable())
	for name, want := range map[string]ClassID{
		"Water":               ClassWater,
		"GRAVEL":              ClassGravel,
		"Human-Constructions": ClassHumanConstructions,
		"human-construction":  ClassHumanConstructions,
		" undefined ":         ClassUnknown,
	} {
		id, ok := table.Lookup(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, id, name)
	}
	_, ok := table.Lookup("roads")
	assert.False(t, ok)

	name, ok := table.Name(ClassHumanConstructions)
	assert.True(t, ok)
	assert.Equal(t, "human-construction", name)
	_, ok = table.Name(42)
	assert.False(t, ok)
	assert.Equal(t, 6, table.Len())
}
