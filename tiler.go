package gdalabel

import (
	"fmt"
	"iter"
	"sync/atomic"
)

// 将对齐的(影像, 标签)栅格切分为Size x Size瓦片
type Tiler struct {
	Size    int
	Unknown ClassID
}

// 起点偏移0, N, 2N, ... < n，最后一个强制为n-N，使末块恰好贴合边界（与前一块重叠）
func TileOffsets(n, size int) ([]int, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTileSize, size)
	}
	if size > n {
		return nil, fmt.Errorf("%w: tile size %d > raster dimension %d", ErrTileTooLarge, size, n)
	}
	offsets := make([]int, 0, (n+size-1)/size)
	for o := 0; o < n; o += size {
		offsets = append(offsets, o)
	}
	offsets[len(offsets)-1] = n - size
	return offsets, nil
}

// 瓦片序列：惰性生成，只能遍历一次
type TileSeq struct {
	tiler      *Tiler
	image      *Raster
	label      *Raster
	name       string
	rowOffsets []int
	colOffsets []int
	consumed   atomic.Bool
}

func (t *Tiler) Divide(image, label *Raster, name string) (*TileSeq, error) {
	if image.GeoTransform != label.GeoTransform {
		return nil, fmt.Errorf("%w: the geo transforms of image %s %v and label %v did not match",
			ErrGeoTransformMismatch, name, image.GeoTransform, label.GeoTransform)
	}
	if !image.SameShape(label.Grid) {
		return nil, fmt.Errorf("%w: image %s %v, label %v", ErrShapeMismatch, name, image.Shape(), label.Shape())
	}
	rowOffsets, err := TileOffsets(image.Rows, t.Size)
	if err != nil {
		return nil, fmt.Errorf("%s rows: %w", name, err)
	}
	colOffsets, err := TileOffsets(image.Cols, t.Size)
	if err != nil {
		return nil, fmt.Errorf("%s cols: %w", name, err)
	}
	return &TileSeq{
		tiler:      t,
		image:      image,
		label:      label,
		name:       name,
		rowOffsets: rowOffsets,
		colOffsets: colOffsets,
	}, nil
}

func (s *TileSeq) RowOffsets() []int {
	return s.rowOffsets
}

func (s *TileSeq) ColOffsets() []int {
	return s.colOffsets
}

func TileName(source string, row, col int) string {
	return fmt.Sprintf(TILE_NAME_PATTERN, source, row, col)
}

// 按行优先次序产出瓦片，跳过标签全为Unknown的瓦片；第二次遍历只产出ErrSequenceConsumed
func (s *TileSeq) All() iter.Seq2[*TrainingTile, error] {
	return func(yield func(*TrainingTile, error) bool) {
		if !s.consumed.CompareAndSwap(false, true) {
			yield(nil, fmt.Errorf("%w: %s", ErrSequenceConsumed, s.name))
			return
		}
		var (
			size    = s.tiler.Size
			unknown = int16(s.tiler.Unknown)
		)
		for _, row := range s.rowOffsets {
			for _, col := range s.colOffsets {
				labels := s.label.Sub(row, col, size, size)
				if labels.All(unknown) {
					continue
				}
				data := s.image.Sub(row, col, size, size)
				tile, err := NewTrainingTile(data, labels, s.image.GeoTransform.Shift(row, col), TileName(s.name, row, col), s.image.Projection)
				if err != nil {
					yield(nil, err)
					return
				}
				tile.Row, tile.Col = row, col
				if !yield(tile, nil) {
					return
				}
			}
		}
	}
}

// 收集全部瓦片
func (s *TileSeq) Collect() (tiles []*TrainingTile, err error) {
	for tile, e := range s.All() {
		if e != nil {
			return tiles, e
		}
		tiles = append(tiles, tile)
	}
	return
}
