package gdalabel

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/wgdzlh/gdalabel/log"
	"github.com/wgdzlh/gdalabel/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 读取单个shp中的全部矢量面（克隆后脱离数据源，坐标系统一为默认srid）
func (g *GdalToolbox) parseShpPolygons(shp string) (polys []gdal.Geometry, err error) {
	ref, err := g.getSridRef(g.cfg.DefaultEPSG)
	if err != nil {
		return
	}
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		err = fmt.Errorf("%w: %s", ErrGdalDriverOpen, shp)
		return
	}
	defer ds.Destroy()
	var (
		layer   = ds.LayerByIndex(0)
		feature *gdal.Feature
		geo     gdal.Geometry
	)
	for {
		if feature = layer.NextFeature(); feature == nil {
			break
		}
		geo = feature.Geometry()
		if geo.IsEmpty() {
			log.Warn(g.logTag+"skip empty geometry", zap.String("shp", shp), zap.Int64("fid", feature.FID()))
			feature.Destroy()
			continue
		}
		geo = geo.Clone()
		geo.SetSpatialReference(ref)
		polys = append(polys, geo)
		feature.Destroy()
	}
	return
}

// 加载目录下全部shp，按文件名最后一段后缀映射类别
func (g *GdalToolbox) LoadPolygons(folder string) (ret *ClassPolygons, err error) {
	paths, err := utils.ListFiles(folder, utils.FILE_EXT_SHP)
	if err != nil {
		return
	}
	log.Info(g.logTag+"start load polygons", zap.String("folder", folder), zap.Strings("shps", paths))
	ret = NewClassPolygons()
	defer func() {
		if err != nil {
			ret.Destroy()
			ret = nil
		}
	}()
	var polys []gdal.Geometry
	for _, path := range paths {
		suffix := utils.GetNameSuffix(path)
		id, ok := g.classes.Lookup(suffix)
		if !ok && g.cfg.StrictClassNames {
			err = fmt.Errorf("%w: %q in %s", ErrUnmappedClass, suffix, path)
			return
		}
		if polys, err = g.parseShpPolygons(path); err != nil {
			return
		}
		if !ok {
			log.Warn(g.logTag+"could not assign the name to an id", zap.String("name", suffix), zap.String("shp", path), zap.Int("polygons", len(polys)))
			key := utils.NormalizeName(suffix)
			ret.Unclassified[key] = append(ret.Unclassified[key], polys...)
			continue
		}
		ret.Classes[id] = append(ret.Classes[id], polys...)
		log.Info(g.logTag+"loaded class polygons", zap.String("shp", path), zap.Int16("class", int16(id)), zap.Int("polygons", len(polys)))
	}
	return
}

// 将矢量面写入shp（用于导出未分类图斑及构造测试数据）
func (g *GdalToolbox) WritePolygonsShapefile(shp string, srid int, polys ...gdal.Geometry) (err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Create(shp, nil)
	if !ok {
		err = fmt.Errorf("%w: %s", ErrGdalDriverCreate, shp)
		return
	}
	defer ds.Destroy() // 生成shp文件 + 释放资源
	var (
		layer   = ds.CreateLayer(utils.GetFilenameWithoutExt(shp), ref, gdal.GT_Polygon, nil)
		def     = layer.Definition()
		feature gdal.Feature
		valid   int
		e       error
	)
	for i, poly := range polys {
		feature = def.Create()
		if e = feature.SetGeometry(poly); e != nil {
			log.Error(g.logTag+"err in set geom of feature", zap.Int("idx", i), zap.Error(e))
		} else if e = layer.Create(feature); e != nil {
			log.Error(g.logTag+"err in create feature of layer", zap.Int("idx", i), zap.Error(e))
		} else {
			valid++
		}
		feature.Destroy()
	}
	log.Info(g.logTag+"output polygons to shapefile done", zap.String("shp", shp), zap.Int("total", len(polys)), zap.Int("valid", valid))
	return
}

// 将未分类图斑按名称导出到目录，便于人工核查
func (g *GdalToolbox) ExportUnclassified(cp *ClassPolygons, dir string) (paths []string, err error) {
	names := slices.Sorted(maps.Keys(cp.Unclassified))
	for _, name := range names {
		shp := filepath.Join(dir, "unclassified_"+name+utils.FILE_EXT_SHP)
		if err = g.WritePolygonsShapefile(shp, g.cfg.DefaultEPSG, cp.Unclassified[name]...); err != nil {
			return
		}
		paths = append(paths, shp)
	}
	return
}
