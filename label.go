package gdalabel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wgdzlh/gdalabel/log"
	"github.com/wgdzlh/gdalabel/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// 标签栅格文件路径：destDir/label<影像文件名>
func LabelPathFor(imagePath, destDir string) string {
	return filepath.Join(destDir, LABEL_PREFIX+filepath.Base(imagePath))
}

// 由标签栅格文件名反推影像路径
func ImagePathFor(labelPath, imageDir string) string {
	return filepath.Join(imageDir, strings.TrimPrefix(filepath.Base(labelPath), LABEL_PREFIX))
}

// 为参考栅格范围生成各类别掩膜层；无相交矢量面的类别为Absent
func (g *GdalToolbox) BuildClassLayers(meta RasterMeta, polys *ClassPolygons) (layers ClassLayerSet, hits int, err error) {
	bbox, err := g.FootprintGeometry(MetaFootprint(meta))
	if err != nil {
		return
	}
	defer bbox.Destroy()
	layers = ClassLayerSet{}
	var (
		intersecting []gdal.Geometry
		mask         *Grid
	)
	for _, id := range polys.IDs() {
		intersecting = FindIntersectingPolygons(bbox, polys.Classes[id])
		if len(intersecting) == 0 {
			layers[id] = Absent()
			continue
		}
		if mask, err = g.RasterizePolygons(intersecting, meta); err != nil {
			return
		}
		layers[id] = Mask(mask)
		hits++
		log.Debug(g.logTag+"rasterized class", zap.Int16("class", int16(id)), zap.Int("polygons", len(intersecting)))
	}
	return
}

// 为影像生成融合后的标签栅格并写出到dst
// 以下情况跳过且不报错（written=false）：dst已存在；没有任何类别的矢量面与影像范围相交
func (g *GdalToolbox) CreateRasterLabels(imagePath string, polys *ClassPolygons, dst string) (written bool, err error) {
	exists, err := utils.FileExists(dst)
	if err != nil {
		return
	}
	if exists {
		log.Info(g.logTag+"label raster already exists", zap.String("dst", dst))
		return
	}
	meta, err := g.ReadRasterMeta(imagePath)
	if err != nil {
		return
	}
	start := time.Now()
	layers, hits, err := g.BuildClassLayers(meta, polys)
	if err != nil {
		return
	}
	if hits == 0 {
		log.Info(g.logTag+"no polygons intersect image, skip", zap.String("img", imagePath))
		return
	}
	label, err := g.Fuser().Fuse(layers)
	if err != nil {
		return
	}
	if err = os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return
	}
	err = g.WriteRaster(dst, &Raster{
		Grid:         label,
		GeoTransform: meta.GeoTransform,
		Projection:   meta.Projection,
	})
	if err != nil {
		return
	}
	written = true
	log.Info(g.logTag+"wrote label image", zap.String("img", imagePath), zap.String("dst", dst),
		zap.Int("classes", hits), zap.Duration("cost", time.Since(start)))
	return
}

// 对目录下全部影像生成标签栅格，单张失败不影响其余影像
func (g *GdalToolbox) CreateLabelsForFolder(imageDir, polygonDir, destDir string) (written int, err error) {
	polys, err := g.LoadPolygons(polygonDir)
	if err != nil {
		return
	}
	defer polys.Destroy()
	if len(polys.Classes) == 0 {
		err = fmt.Errorf("%w: no classified shapefile in %s", ErrNoPolygons, polygonDir)
		return
	}
	images, err := utils.ListFiles(imageDir, utils.FILE_EXT_TIF)
	if err != nil {
		return
	}
	log.Info(g.logTag+"start create raster labels", zap.String("images", imageDir), zap.Int("count", len(images)), zap.String("dst", destDir))
	for _, img := range images {
		if utils.IsTmpPath(img) {
			continue
		}
		ok, e := g.CreateRasterLabels(img, polys, LabelPathFor(img, destDir))
		if e != nil {
			log.Error(g.logTag+"create raster labels failed", zap.String("img", img), zap.Error(e))
			err = multierr.Append(err, fmt.Errorf("%s: %w", img, e))
			continue
		}
		if ok {
			written++
		}
	}
	log.Info(g.logTag+"done create raster labels", zap.Int("written", written), zap.Int("total", len(images)))
	return
}
