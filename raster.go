package gdalabel

import (
	"fmt"
	"os"

	"github.com/wgdzlh/gdalabel/log"
	"github.com/wgdzlh/gdalabel/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func (g *GdalToolbox) openRaster(tif string) (ds gdal.Dataset, err error) {
	exists, err := utils.FileExists(tif)
	if err != nil {
		return
	}
	if !exists {
		err = fmt.Errorf("%w: %s", ErrRasterNotFound, tif)
		return
	}
	if ds, err = gdal.Open(tif, gdal.ReadOnly); err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrInvalidRaster, tif, err)
		return
	}
	if bc := ds.RasterCount(); bc < 1 {
		ds.Close()
		log.Error(g.logTag+"tif has no band", zap.String("tif", tif))
		err = fmt.Errorf("%w: %s has no band", ErrInvalidRaster, tif)
	}
	return
}

func datasetMeta(ds gdal.Dataset) RasterMeta {
	return RasterMeta{
		GeoTransform: GeoTransform(ds.GeoTransform()),
		Projection:   ds.Projection(),
		Rows:         ds.RasterYSize(),
		Cols:         ds.RasterXSize(),
	}
}

// 读取Tif的仿射变换、投影及尺寸（不读像元）
func (g *GdalToolbox) ReadRasterMeta(tif string) (meta RasterMeta, err error) {
	ds, err := g.openRaster(tif)
	if err != nil {
		return
	}
	defer ds.Close()
	meta = datasetMeta(ds)
	return
}

// 读取Tif第一波段为Int16网格
func (g *GdalToolbox) ReadRaster(tif string) (ret *Raster, err error) {
	ds, err := g.openRaster(tif)
	if err != nil {
		return
	}
	defer ds.Close()
	meta := datasetMeta(ds)
	log.Debug(g.logTag+"read tif band", zap.String("tif", tif), zap.Int("width", meta.Cols), zap.Int("height", meta.Rows))
	grid := NewGrid(meta.Rows, meta.Cols)
	if err = ds.RasterBand(1).IO(gdal.Read, 0, 0, meta.Cols, meta.Rows, grid.Pix, meta.Cols, meta.Rows, 0, 0); err != nil {
		log.Error(g.logTag+"read tif band failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrTifReadFailed, tif, err)
		return
	}
	ret = &Raster{
		Grid:         grid,
		GeoTransform: meta.GeoTransform,
		Projection:   meta.Projection,
	}
	return
}

// 写出单波段Int16 GeoTiff：先写同目录临时文件，成功后改名为目标文件，目标路径不会出现残缺栅格
func (g *GdalToolbox) WriteRaster(dst string, r *Raster) (err error) {
	driver, err := gdal.GetDriverByName(TIF_DRIVER_NAME)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrGdalDriverCreate, err)
		return
	}
	projection := r.Projection
	if projection == "" {
		if projection, err = g.defaultProjection(); err != nil {
			return
		}
	}
	tmp := utils.GetTmpPath(dst)
	defer func() {
		if err != nil {
			if e := os.Remove(tmp); e != nil && !os.IsNotExist(e) {
				err = multierr.Append(err, e)
			}
		}
	}()
	ds := driver.Create(tmp, r.Cols, r.Rows, 1, gdal.Int16, []string{TIF_COMPRESS_OPTION})
	if err = ds.SetGeoTransform([6]float64(r.GeoTransform)); err == nil {
		err = ds.SetProjection(projection)
	}
	if err == nil {
		err = ds.RasterBand(1).IO(gdal.Write, 0, 0, r.Cols, r.Rows, r.Pix, r.Cols, r.Rows, 0, 0)
	}
	ds.FlushCache()
	ds.Close()
	if err != nil {
		log.Error(g.logTag+"write tif failed", zap.String("tif", dst), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrTifWriteFailed, dst, err)
		return
	}
	if err = utils.PublishFile(tmp, dst); err != nil {
		return
	}
	log.Debug(g.logTag+"wrote tif", zap.String("tif", dst), zap.Int("width", r.Cols), zap.Int("height", r.Rows))
	return
}
