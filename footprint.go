package gdalabel

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// 栅格覆盖范围（闭合矩形环，世界坐标）
type Footprint struct {
	Ring       orb.Ring
	Projection string
}

// 由仿射变换和像元行列数构造栅格范围
func BuildFootprint(gt GeoTransform, rows, cols int, projection string) Footprint {
	topLeft := orb.Point{gt.OriginX(), gt.OriginY()}
	bottomRight := orb.Point{
		gt.OriginX() + float64(cols)*gt.PixelWidth(),
		gt.OriginY() + float64(rows)*gt.PixelHeight(),
	}
	return Footprint{
		Ring: orb.Ring{
			topLeft,
			{topLeft[0], bottomRight[1]},
			bottomRight,
			{bottomRight[0], topLeft[1]},
			topLeft,
		},
		Projection: projection,
	}
}

func MetaFootprint(meta RasterMeta) Footprint {
	return BuildFootprint(meta.GeoTransform, meta.Rows, meta.Cols, meta.Projection)
}

func (f Footprint) TopLeft() orb.Point {
	return f.Ring[0]
}

func (f Footprint) BottomRight() orb.Point {
	return f.Ring[2]
}

func (f Footprint) Polygon() orb.Polygon {
	return orb.Polygon{f.Ring}
}

func (f Footprint) Bound() orb.Bound {
	return f.Ring.Bound()
}

func (f Footprint) WKT() string {
	return wkt.MarshalString(f.Polygon())
}
