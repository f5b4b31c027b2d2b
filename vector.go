package gdalabel

import (
	"fmt"

	"github.com/wgdzlh/gdalabel/log"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

const (
	classLayerName = "class_polygons"
	burnValue      = 1
)

func noProgress(complete float64, message string, data interface{}) int {
	return 1
}

// 栅格范围转为OGR矢量面（坐标系取范围所带投影）
func (g *GdalToolbox) FootprintGeometry(fp Footprint) (geo gdal.Geometry, err error) {
	ref, err := g.getProjectionRef(fp.Projection)
	if err != nil {
		return
	}
	return g.parseWKT(fp.WKT(), ref)
}

// 筛选与范围相交的矢量面，保持原有顺序；逐个精确相交判断，不建空间索引
func FindIntersectingPolygons(footprint gdal.Geometry, polys []gdal.Geometry) (ret []gdal.Geometry) {
	for _, poly := range polys {
		if poly.Intersects(footprint) {
			ret = append(ret, poly)
		}
	}
	return
}

// 将同一类别的矢量面烧录为与参考栅格对齐的二值掩膜（面内像元为1，其余为0）
func (g *GdalToolbox) RasterizePolygons(polys []gdal.Geometry, meta RasterMeta) (mask *Grid, err error) {
	if len(polys) == 0 {
		err = ErrNoPolygons
		return
	}
	ref, err := g.getProjectionRef(meta.Projection)
	if err != nil {
		return
	}
	projection := meta.Projection
	if projection == "" {
		if projection, err = g.defaultProjection(); err != nil {
			return
		}
	}
	rDriver, err := gdal.GetDriverByName(MEM_RASTER_DRIVER)
	if err != nil {
		log.Error(g.logTag+"get mem raster driver failed", zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrGdalDriverCreate, err)
		return
	}
	rds := rDriver.Create("", meta.Cols, meta.Rows, 1, gdal.Int16, nil)
	defer rds.Close()
	if err = rds.SetGeoTransform([6]float64(meta.GeoTransform)); err != nil {
		return
	}
	if err = rds.SetProjection(projection); err != nil {
		return
	}

	vDriver := gdal.OGRDriverByName(MEM_VECTOR_DRIVER)
	vds, ok := vDriver.Create(classLayerName, nil)
	if !ok {
		err = ErrGdalDriverCreate
		return
	}
	defer vds.Destroy()
	var (
		layer   = vds.CreateLayer(classLayerName, ref, gdal.GT_Unknown, nil)
		def     = layer.Definition()
		feature gdal.Feature
	)
	for i, poly := range polys {
		feature = def.Create()
		if err = feature.SetGeometry(poly); err == nil {
			err = layer.Create(feature)
		}
		feature.Destroy()
		if err != nil {
			log.Error(g.logTag+"err in create feature of mem layer", zap.Int("idx", i), zap.Error(err))
			return
		}
	}
	if err = gdal.RasterizeLayer(rds, []int{1}, layer, []float64{burnValue}, nil, noProgress, nil); err != nil {
		log.Error(g.logTag+"rasterize layer failed", zap.Int("polygons", len(polys)), zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrGdalRasterize, err)
		return
	}
	mask = NewGrid(meta.Rows, meta.Cols)
	if err = rds.RasterBand(1).IO(gdal.Read, 0, 0, meta.Cols, meta.Rows, mask.Pix, meta.Cols, meta.Rows, 0, 0); err != nil {
		log.Error(g.logTag+"read mem raster failed", zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrTifReadFailed, err)
		mask = nil
	}
	return
}
