package gdalabel

import "errors"

var (
	ErrGdalDriverCreate     = errors.New("gdal driver create err")
	ErrGdalDriverOpen       = errors.New("gdal driver open err")
	ErrGdalRasterize        = errors.New("gdal rasterize err")
	ErrRasterNotFound       = errors.New("raster not found")
	ErrInvalidRaster        = errors.New("invalid raster")
	ErrTifReadFailed        = errors.New("tif read failed")
	ErrTifWriteFailed       = errors.New("tif write failed")
	ErrInvalidWKT           = errors.New("invalid WKT")
	ErrNoPolygons           = errors.New("no polygons to rasterize")
	ErrShapeMismatch        = errors.New("grid shape mismatch")
	ErrGeoTransformMismatch = errors.New("geo transform mismatch")
	ErrEmptyClassLayers     = errors.New("no class layer present")
	ErrInvalidTileSize      = errors.New("invalid tile size")
	ErrTileTooLarge         = errors.New("tile size exceeds raster")
	ErrSequenceConsumed     = errors.New("tile sequence already consumed")
	ErrPathCountMismatch    = errors.New("image and label path counts differ")
	ErrSplitSum             = errors.New("split fractions do not sum to one")
	ErrUnmappedClass        = errors.New("unmapped class name")
	ErrInvalidConfig        = errors.New("invalid config")
)
