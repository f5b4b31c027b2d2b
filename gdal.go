package gdalabel

import (
	"fmt"
	"sync"

	"github.com/wgdzlh/gdalabel/log"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

type GdalToolbox struct {
	cfg        *Config
	classes    ClassTable
	refMap     map[int]gdal.SpatialReference
	wktMap     map[string]gdal.SpatialReference
	defaultWKT string
	rLock      sync.Mutex
	logTag     string
}

type Option func(*GdalToolbox)

// 注入类别表，替换配置中的class_names
func WithClassTable(t ClassTable) Option {
	return func(g *GdalToolbox) {
		g.classes = t
	}
}

// 初始化GDAL工具箱，cfg为nil时使用默认配置
func NewGdalToolbox(cfg *Config, opts ...Option) *GdalToolbox {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	g := &GdalToolbox{
		cfg:     cfg,
		classes: cfg.ClassTable(),
		refMap:  map[int]gdal.SpatialReference{},
		wktMap:  map[string]gdal.SpatialReference{},
		logTag:  "GdalToolbox:",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GdalToolbox) Config() *Config {
	return g.cfg
}

func (g *GdalToolbox) Classes() ClassTable {
	return g.classes
}

func (g *GdalToolbox) Fuser() *Fuser {
	return &Fuser{
		Threshold: g.cfg.GapFillThreshold,
		Unknown:   g.cfg.UnknownClass,
		Workers:   g.cfg.Workers,
		BandRows:  g.cfg.BandRows,
	}
}

func (g *GdalToolbox) Tiler() *Tiler {
	return &Tiler{
		Size:    g.cfg.TileSize,
		Unknown: g.cfg.UnknownClass,
	}
}

// 获取srid对应的坐标系（可复用，故无需回收）
func (g *GdalToolbox) getSridRef(srid int) (ref gdal.SpatialReference, err error) {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[srid]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if err = ref.FromEPSG(srid); err != nil {
		log.Error(g.logTag+"set ref srid failed", zap.Int("srid", srid), zap.Error(err))
		ref.Destroy()
		return
	}
	// 固定为(x,y)/(经度,纬度)数据轴次序，避免与栅格仿射变换的坐标次序不一致
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.refMap[srid] = ref
	return
}

// 获取投影WKT对应的坐标系，WKT为空时使用默认srid
func (g *GdalToolbox) getProjectionRef(projection string) (ref gdal.SpatialReference, err error) {
	if projection == "" {
		return g.getSridRef(g.cfg.DefaultEPSG)
	}
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.wktMap[projection]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if err = ref.FromWKT(projection); err != nil {
		log.Error(g.logTag+"parse projection wkt failed", zap.Error(err))
		ref.Destroy()
		err = fmt.Errorf("%w: projection: %v", ErrInvalidWKT, err)
		return
	}
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.wktMap[projection] = ref
	return
}

// 默认srid对应的投影WKT（缓存，可被多个写出协程并发调用）
func (g *GdalToolbox) defaultProjection() (wkt string, err error) {
	ref, err := g.getSridRef(g.cfg.DefaultEPSG)
	if err != nil {
		return
	}
	g.rLock.Lock()
	defer g.rLock.Unlock()
	if g.defaultWKT == "" {
		if g.defaultWKT, err = ref.ToWKT(); err != nil {
			return
		}
	}
	return g.defaultWKT, nil
}

func (g *GdalToolbox) parseWKT(wkt string, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	ret, err = gdal.CreateFromWKT(wkt, ref)
	if err != nil {
		log.Error(g.logTag+"parse wkt failed", zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrInvalidWKT, err)
	}
	return
}

// 由WKT构造矢量面，srid为0时使用默认srid
func (g *GdalToolbox) PolygonFromWKT(wkt string, srid int) (ret gdal.Geometry, err error) {
	if srid == 0 {
		srid = g.cfg.DefaultEPSG
	}
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	return g.parseWKT(wkt, ref)
}
