package gdalabel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wgdzlh/gdalabel/utils"

	"github.com/lukeroth/gdal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	leftHalfWKT  = "POLYGON((500 1000,600 1000,600 800,500 800,500 1000))"
	rightPartWKT = "POLYGON((550 1000,700 1000,700 800,550 800,550 1000))"
	farAwayWKT   = "POLYGON((9000 9000,9100 9000,9100 8900,9000 8900,9000 9000))"
)

// 20x20像元，范围(500,800)-(700,1000)
var testMeta = RasterMeta{GeoTransform: testGT, Rows: 20, Cols: 20}

func newTestToolbox(t *testing.T) *GdalToolbox {
	t.Helper()
	g := NewGdalToolbox(nil)
	require.NotNil(t, g)
	return g
}

func mustPolygon(t *testing.T, g *GdalToolbox, wkt string) gdal.Geometry {
	t.Helper()
	geo, err := g.PolygonFromWKT(wkt, 0)
	require.NoError(t, err)
	t.Cleanup(geo.Destroy)
	return geo
}

func writeTestImage(t *testing.T, g *GdalToolbox, p string) {
	t.Helper()
	data := NewGrid(testMeta.Rows, testMeta.Cols)
	for i := range data.Pix {
		data.Pix[i] = int16(i % 256)
	}
	require.NoError(t, g.WriteRaster(p, &Raster{Grid: data, GeoTransform: testGT}))
}

func TestRasterRoundTrip(t *testing.T) {
	g := newTestToolbox(t)
	dir := t.TempDir()
	p := filepath.Join(dir, "img.tif")
	writeTestImage(t, g, p)

	r, err := g.ReadRaster(p)
	require.NoError(t, err)
	assert.Equal(t, testGT, r.GeoTransform)
	assert.NotEmpty(t, r.Projection)
	assert.Equal(t, [2]int{20, 20}, r.Shape())
	assert.Equal(t, int16(21), r.At(1, 1))

	meta, err := g.ReadRasterMeta(p)
	require.NoError(t, err)
	assert.Equal(t, r.Meta(), meta)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp raster may survive")
}

func TestReadRasterErrors(t *testing.T) {
	g := newTestToolbox(t)
	dir := t.TempDir()
	_, err := g.ReadRaster(filepath.Join(dir, "missing.tif"))
	assert.ErrorIs(t, err, ErrRasterNotFound)

	bad := filepath.Join(dir, "bad.tif")
	require.NoError(t, os.WriteFile(bad, []byte("not a raster"), 0o644))
	_, err = g.ReadRaster(bad)
	assert.ErrorIs(t, err, ErrInvalidRaster)
}

func TestFindIntersectingPolygons(t *testing.T) {
	g := newTestToolbox(t)
	bbox, err := g.FootprintGeometry(MetaFootprint(testMeta))
	require.NoError(t, err)
	defer bbox.Destroy()

	right := mustPolygon(t, g, rightPartWKT)
	far := mustPolygon(t, g, farAwayWKT)
	left := mustPolygon(t, g, leftHalfWKT)
	got := FindIntersectingPolygons(bbox, []gdal.Geometry{right, far, left})
	require.Len(t, got, 2)
	assert.True(t, got[0].Equals(right))
	assert.True(t, got[1].Equals(left))
}

func TestRasterizePolygons(t *testing.T) {
	g := newTestToolbox(t)
	mask, err := g.RasterizePolygons([]gdal.Geometry{mustPolygon(t, g, leftHalfWKT)}, testMeta)
	require.NoError(t, err)
	require.Equal(t, [2]int{20, 20}, mask.Shape())
	for i := 0; i < mask.Rows; i++ {
		for j := 0; j < mask.Cols; j++ {
			want := int16(0)
			if j < 10 {
				want = 1
			}
			require.Equal(t, want, mask.At(i, j), "pixel (%d,%d)", i, j)
		}
	}

	_, err = g.RasterizePolygons(nil, testMeta)
	assert.ErrorIs(t, err, ErrNoPolygons)
}

func writeClassShapefiles(t *testing.T, g *GdalToolbox, dir string, shps map[string]string) {
	t.Helper()
	for name, wkt := range shps {
		require.NoError(t, g.WritePolygonsShapefile(filepath.Join(dir, name), DEFAULT_EPSG, mustPolygon(t, g, wkt)))
	}
}

func TestLoadPolygons(t *testing.T) {
	g := newTestToolbox(t)
	dir := t.TempDir()
	writeClassShapefiles(t, g, dir, map[string]string{
		"area_1963_water.shp":               leftHalfWKT,
		"area_1963_Human-Constructions.shp": rightPartWKT,
		"area_1963_roads.shp":               farAwayWKT,
	})

	polys, err := g.LoadPolygons(dir)
	require.NoError(t, err)
	defer polys.Destroy()
	assert.Equal(t, []ClassID{ClassWater, ClassHumanConstructions}, polys.IDs())
	assert.Len(t, polys.Classes[ClassWater], 1)
	assert.Len(t, polys.Unclassified["roads"], 1)

	out := t.TempDir()
	paths, err := g.ExportUnclassified(polys, out)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "unclassified_roads.shp")}, paths)

	cfg := DefaultConfig()
	cfg.StrictClassNames = true
	_, err = NewGdalToolbox(cfg).LoadPolygons(dir)
	assert.ErrorIs(t, err, ErrUnmappedClass)
}

func TestCreateLabelsForFolder(t *testing.T) {
	g := newTestToolbox(t)
	var (
		images   = t.TempDir()
		polygons = t.TempDir()
		labels   = filepath.Join(t.TempDir(), "labels")
	)
	writeTestImage(t, g, filepath.Join(images, "img.tif"))
	writeClassShapefiles(t, g, polygons, map[string]string{
		"a_water.shp":    leftHalfWKT,
		"a_farmland.shp": rightPartWKT,
	})

	written, err := g.CreateLabelsForFolder(images, polygons, labels)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	dst := filepath.Join(labels, "labelimg.tif")
	label, err := g.ReadRaster(dst)
	require.NoError(t, err)
	assert.Equal(t, testGT, label.GeoTransform)
	// 列5-9两类重叠，取较小的water
	for j := 0; j < label.Cols; j++ {
		want := int16(ClassFarmland)
		if j < 10 {
			want = int16(ClassWater)
		}
		assert.Equal(t, want, label.At(10, j), "col %d", j)
	}

	written, err = g.CreateLabelsForFolder(images, polygons, labels)
	require.NoError(t, err)
	assert.Equal(t, 0, written, "existing label raster is kept")
}

func TestCreateRasterLabelsNoIntersection(t *testing.T) {
	g := newTestToolbox(t)
	dir := t.TempDir()
	img := filepath.Join(dir, "img.tif")
	writeTestImage(t, g, img)

	polys := NewClassPolygons()
	polys.Classes[ClassGravel] = []gdal.Geometry{mustPolygon(t, g, farAwayWKT)}
	dst := LabelPathFor(img, dir)
	ok, err := g.CreateRasterLabels(img, polys, dst)
	require.NoError(t, err)
	assert.False(t, ok)
	exists, err := utils.FileExists(dst)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDivideAndSaveImages(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TileSize = 8
	g := NewGdalToolbox(cfg)
	var (
		images = t.TempDir()
		labels = t.TempDir()
		out    = t.TempDir()
	)
	writeTestImage(t, g, filepath.Join(images, "img.tif"))
	lbl := filledGrid(20, 20, int16(ClassVegetation))
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			lbl.Set(i, j, int16(UNKNOWN_CLASS_ID))
		}
	}
	require.NoError(t, g.WriteRaster(filepath.Join(labels, "labelimg.tif"), &Raster{Grid: lbl, GeoTransform: testGT}))

	imagePaths, labelPaths, err := PairLabelImages(labels, images)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(images, "img.tif")}, imagePaths)

	// 偏移[0, 8, 12]，左上角瓦片全为Unknown被丢弃
	written, err := g.DivideAndSaveImages(imagePaths, labelPaths, out)
	require.NoError(t, err)
	assert.Equal(t, 8, written)

	index, err := ReadTileIndex(filepath.Join(out, TILE_INDEX_FILE))
	require.NoError(t, err)
	assert.Equal(t, 8, index.Len())
	assert.NotContains(t, index.Names(), "img_n_0_e_0")

	dataPath, labelPath := TilePaths(out, "img_n_12_e_8")
	tile, err := g.ReadRaster(labelPath)
	require.NoError(t, err)
	assert.Equal(t, [2]int{8, 8}, tile.Shape())
	assert.Equal(t, testGT.Shift(12, 8), tile.GeoTransform)
	data, err := g.ReadRaster(dataPath)
	require.NoError(t, err)
	assert.Equal(t, int16((12*20+8)%256), data.At(0, 0))

	tiles, err := g.DivideImages(imagePaths, labelPaths)
	require.NoError(t, err)
	assert.Len(t, tiles, 8)
}

func TestDivideImagesPathCountMismatch(t *testing.T) {
	g := newTestToolbox(t)
	_, err := g.DivideImages([]string{"a.tif", "b.tif"}, []string{"labela.tif"})
	assert.ErrorIs(t, err, ErrPathCountMismatch)
	_, err = g.DivideAndSaveImages([]string{"a.tif"}, nil, t.TempDir())
	assert.ErrorIs(t, err, ErrPathCountMismatch)
}
