package gdalabel

import (
	"fmt"
	"slices"

	"github.com/lukeroth/gdal"
)

// 地物类别ID
type ClassID int16

const (
	ClassWater ClassID = iota
	ClassGravel
	ClassVegetation
	ClassFarmland
	ClassHumanConstructions
	ClassUnknown
)

// 仿射变换系数：(原点x, 像元宽, 旋转, 原点y, 旋转, 像元高)
type GeoTransform [6]float64

func (gt GeoTransform) OriginX() float64     { return gt[0] }
func (gt GeoTransform) OriginY() float64     { return gt[3] }
func (gt GeoTransform) PixelWidth() float64  { return gt[1] }
func (gt GeoTransform) PixelHeight() float64 { return gt[5] }

// 平移原点到(row, col)像元处，其余系数不变
func (gt GeoTransform) Shift(row, col int) GeoTransform {
	gt[0] += float64(col) * gt[1]
	gt[3] += float64(row) * gt[5]
	return gt
}

// 行优先的二维整型像元网格
type Grid struct {
	Rows, Cols int
	Pix        []int16
}

func NewGrid(rows, cols int) *Grid {
	return &Grid{
		Rows: rows,
		Cols: cols,
		Pix:  make([]int16, rows*cols),
	}
}

// 以行切片构造网格（测试及小数据用），各行长度须一致
func GridFromRows(rows [][]int16) *Grid {
	if len(rows) == 0 {
		return NewGrid(0, 0)
	}
	g := NewGrid(len(rows), len(rows[0]))
	for i, r := range rows {
		if len(r) != g.Cols {
			panic(fmt.Sprintf("gdalabel: ragged row %d: %d != %d", i, len(r), g.Cols))
		}
		copy(g.Row(i), r)
	}
	return g
}

func (g *Grid) Shape() [2]int {
	return [2]int{g.Rows, g.Cols}
}

func (g *Grid) SameShape(o *Grid) bool {
	return g.Rows == o.Rows && g.Cols == o.Cols
}

func (g *Grid) At(i, j int) int16 {
	return g.Pix[i*g.Cols+j]
}

func (g *Grid) Set(i, j int, v int16) {
	g.Pix[i*g.Cols+j] = v
}

func (g *Grid) Row(i int) []int16 {
	return g.Pix[i*g.Cols : (i+1)*g.Cols]
}

// 复制出[row, row+h) x [col, col+w)子网格，与原网格不共享内存
func (g *Grid) Sub(row, col, h, w int) *Grid {
	s := NewGrid(h, w)
	for i := 0; i < h; i++ {
		copy(s.Row(i), g.Pix[(row+i)*g.Cols+col:(row+i)*g.Cols+col+w])
	}
	return s
}

// 所有像元是否都等于v（空网格返回true）
func (g *Grid) All(v int16) bool {
	for _, p := range g.Pix {
		if p != v {
			return false
		}
	}
	return true
}

func (g *Grid) Clone() *Grid {
	return &Grid{Rows: g.Rows, Cols: g.Cols, Pix: slices.Clone(g.Pix)}
}

// 栅格元数据（不含像元）
type RasterMeta struct {
	GeoTransform GeoTransform
	Projection   string // WKT
	Rows, Cols   int
}

type Raster struct {
	*Grid
	GeoTransform GeoTransform
	Projection   string
}

func (r *Raster) Meta() RasterMeta {
	return RasterMeta{
		GeoTransform: r.GeoTransform,
		Projection:   r.Projection,
		Rows:         r.Rows,
		Cols:         r.Cols,
	}
}

// 单类别掩膜层：Mask(grid)或Absent，零值为Absent
type ClassLayer struct {
	mask *Grid
}

func Mask(g *Grid) ClassLayer {
	return ClassLayer{mask: g}
}

func Absent() ClassLayer {
	return ClassLayer{}
}

func (l ClassLayer) Present() bool {
	return l.mask != nil
}

func (l ClassLayer) Grid() (*Grid, bool) {
	return l.mask, l.mask != nil
}

// 同一参考栅格下各类别的掩膜层
type ClassLayerSet map[ClassID]ClassLayer

// 按类别ID升序返回存在掩膜的类别
func (s ClassLayerSet) PresentIDs() (ids []ClassID) {
	for id, l := range s {
		if l.Present() {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return
}

// 按类别分组的矢量面；未能映射到类别表的文件名后缀单独存放，不参与融合
type ClassPolygons struct {
	Classes      map[ClassID][]gdal.Geometry
	Unclassified map[string][]gdal.Geometry
}

func NewClassPolygons() *ClassPolygons {
	return &ClassPolygons{
		Classes:      map[ClassID][]gdal.Geometry{},
		Unclassified: map[string][]gdal.Geometry{},
	}
}

func (cp *ClassPolygons) IDs() (ids []ClassID) {
	for id := range cp.Classes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return
}

func (cp *ClassPolygons) Destroy() {
	for _, gs := range cp.Classes {
		for _, g := range gs {
			g.Destroy()
		}
	}
	for _, gs := range cp.Unclassified {
		for _, g := range gs {
			g.Destroy()
		}
	}
}
