package gdalabel

import (
	"fmt"
	"os"

	"github.com/wgdzlh/gdalabel/utils"

	"github.com/paulmach/orb/geojson"
)

// 瓦片索引：已写出瓦片的范围面及其路径
type TileIndex struct {
	fc *geojson.FeatureCollection
}

func NewTileIndex() *TileIndex {
	return &TileIndex{fc: geojson.NewFeatureCollection()}
}

func (x *TileIndex) Add(t *TrainingTile, imagePath, labelPath string) {
	f := geojson.NewFeature(t.Footprint().Polygon())
	f.Properties["name"] = t.Name
	f.Properties["row"] = t.Row
	f.Properties["col"] = t.Col
	f.Properties["image"] = imagePath
	f.Properties["label"] = labelPath
	x.fc.Append(f)
}

func (x *TileIndex) Len() int {
	return len(x.fc.Features)
}

func (x *TileIndex) Features() []*geojson.Feature {
	return x.fc.Features
}

func (x *TileIndex) Names() []string {
	names := make([]string, len(x.fc.Features))
	for i, f := range x.fc.Features {
		names[i] = f.Properties.MustString("name", "")
	}
	return names
}

func (x *TileIndex) Write(dst string) error {
	data, err := x.fc.MarshalJSON()
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(dst, data)
}

func ReadTileIndex(path string) (*TileIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse tile index %s: %w", path, err)
	}
	return &TileIndex{fc: fc}, nil
}
