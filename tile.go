package gdalabel

import (
	"fmt"
)

// 训练样本瓦片：数据与标签网格形状始终一致
type TrainingTile struct {
	data         *Grid
	labels       *Grid
	GeoTransform GeoTransform
	Name         string
	Projection   string // 为空时写出使用默认srid
	Row, Col     int    // 在源栅格中的像元偏移
}

func NewTrainingTile(data, labels *Grid, gt GeoTransform, name, projection string) (*TrainingTile, error) {
	if !data.SameShape(labels) {
		return nil, fmt.Errorf("%w: the shape of the data %v and labels %v did not match", ErrShapeMismatch, data.Shape(), labels.Shape())
	}
	return &TrainingTile{
		data:         data,
		labels:       labels,
		GeoTransform: gt,
		Name:         name,
		Projection:   projection,
	}, nil
}

func (t *TrainingTile) Data() *Grid {
	return t.data
}

func (t *TrainingTile) Labels() *Grid {
	return t.labels
}

func (t *TrainingTile) Shape() [2]int {
	return t.data.Shape()
}

func (t *TrainingTile) Footprint() Footprint {
	return BuildFootprint(t.GeoTransform, t.data.Rows, t.data.Cols, t.Projection)
}

func (t *TrainingTile) DataRaster() *Raster {
	return &Raster{Grid: t.data, GeoTransform: t.GeoTransform, Projection: t.Projection}
}

func (t *TrainingTile) LabelRaster() *Raster {
	return &Raster{Grid: t.labels, GeoTransform: t.GeoTransform, Projection: t.Projection}
}
