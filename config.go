package gdalabel

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"slices"
)

const (
	SHP_DRIVER_NAME     = "ESRI Shapefile"
	MEM_VECTOR_DRIVER   = "Memory"
	MEM_RASTER_DRIVER   = "MEM"
	TIF_DRIVER_NAME     = "GTiff"
	TIF_COMPRESS_OPTION = "COMPRESS=LZW"

	UNKNOWN_CLASS_ID   = ClassUnknown
	DEFAULT_EPSG       = 25833
	DEFAULT_TILE_SIZE  = 512
	GAP_FILL_THRESHOLD = 10
	FUSION_BAND_ROWS   = 64

	LABEL_PREFIX      = "label"
	IMAGES_SUBDIR     = "images"
	LABELS_SUBDIR     = "labels"
	TILE_INDEX_FILE   = "index.geojson"
	TILE_NAME_PATTERN = "%s_n_%d_e_%d"
	POINTER_SEPARATOR = ";"

	DEFAULT_SEED   = 54635
	splitTolerance = 1e-9
	maxConfigSize  = 1 << 20
)

// 流水线配置，json中缺省的字段保留默认值
type Config struct {
	TileSize         int                `json:"tile_size"`
	GapFillThreshold int                `json:"gap_fill_threshold"`
	UnknownClass     ClassID            `json:"unknown_class"`
	Workers          int                `json:"workers"`
	BandRows         int                `json:"band_rows"`
	DefaultEPSG      int                `json:"default_epsg"`
	TmpDir           string             `json:"tmp_dir,omitempty"`
	ClassNames       map[string]ClassID `json:"class_names"`
	StrictClassNames bool               `json:"strict_class_names"`
	LogLevel         string             `json:"log_level"`
	Split            Split              `json:"split"`
	Seed             uint64             `json:"seed"`
	Shuffle          bool               `json:"shuffle"`
}

// 训练/验证/测试集比例
type Split struct {
	Train float64 `json:"train"`
	Valid float64 `json:"valid"`
	Test  float64 `json:"test"`
}

func (s Split) Validate() error {
	if s.Train < 0 || s.Valid < 0 || s.Test < 0 {
		return fmt.Errorf("%w: negative fraction in %+v", ErrSplitSum, s)
	}
	if total := s.Train + s.Valid + s.Test; math.Abs(total-1) > splitTolerance {
		return fmt.Errorf("%w: they sum to %v", ErrSplitSum, total)
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		TileSize:         DEFAULT_TILE_SIZE,
		GapFillThreshold: GAP_FILL_THRESHOLD,
		UnknownClass:     UNKNOWN_CLASS_ID,
		Workers:          runtime.NumCPU(),
		BandRows:         FUSION_BAND_ROWS,
		DefaultEPSG:      DEFAULT_EPSG,
		ClassNames:       DefaultClassTable(),
		LogLevel:         "info",
		Split:            Split{Train: 0.8, Valid: 0, Test: 0.2},
		Seed:             DEFAULT_SEED,
		Shuffle:          true,
	}
}

// 从json文件加载配置
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("%w: config file must have .json extension, got %q", ErrInvalidConfig, ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("%w: config file too large: %d bytes (max %d)", ErrInvalidConfig, info.Size(), maxConfigSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	// class_names在文件中给出时整体替换默认表
	cfg.ClassNames = nil
	if err = json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, cleanPath, err)
	}
	if cfg.ClassNames == nil {
		cfg.ClassNames = DefaultClassTable()
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.TileSize <= 0:
		return fmt.Errorf("%w: tile_size must be positive, got %d", ErrInvalidConfig, c.TileSize)
	case c.GapFillThreshold < 0:
		return fmt.Errorf("%w: gap_fill_threshold must not be negative, got %d", ErrInvalidConfig, c.GapFillThreshold)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	case c.BandRows <= 0:
		return fmt.Errorf("%w: band_rows must be positive, got %d", ErrInvalidConfig, c.BandRows)
	case len(c.ClassNames) == 0:
		return fmt.Errorf("%w: class_names is empty", ErrInvalidConfig)
	}
	if c.UnknownClass != UNKNOWN_CLASS_ID && !slices.Contains(slices.Collect(maps.Values(c.ClassNames)), c.UnknownClass) {
		return fmt.Errorf("%w: unknown_class %d is not in class_names", ErrInvalidConfig, c.UnknownClass)
	}
	if err := c.Split.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) ClassTable() ClassTable {
	return NewClassTable(c.ClassNames)
}
