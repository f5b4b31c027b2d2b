package gdalabel

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// 多类别掩膜融合为单一类别标签
//
// 每个像元独立判定：
//   - 仅一个类别掩膜为1：取该类别；
//   - 多个类别掩膜为1：取最小类别ID（按ID次序裁决，而非投票）；
//   - 无类别掩膜为1：在半径r=min(Threshold, 到网格边缘距离)的方窗
//     [i-r, i+r) x [j-r, j+r)内累加各类别掩膜值，取和最大者（并列取最小ID），
//     和为0时取Unknown。
type Fuser struct {
	Threshold int
	Unknown   ClassID
	Workers   int
	BandRows  int
}

// 单个类别的掩膜及其积分图（只读，供各工作协程共享）
type classSums struct {
	id   ClassID
	mask *Grid
	sat  []int64 // (rows+1) x (cols+1)
}

func newClassSums(id ClassID, mask *Grid) *classSums {
	w := mask.Cols + 1
	sat := make([]int64, (mask.Rows+1)*w)
	for i := 0; i < mask.Rows; i++ {
		var rowSum int64
		row := mask.Row(i)
		for j, v := range row {
			rowSum += int64(v)
			sat[(i+1)*w+j+1] = sat[i*w+j+1] + rowSum
		}
	}
	return &classSums{id: id, mask: mask, sat: sat}
}

// [r0, r1) x [c0, c1)窗口内掩膜值之和
func (c *classSums) window(r0, r1, c0, c1 int) int64 {
	w := c.mask.Cols + 1
	return c.sat[r1*w+c1] - c.sat[r0*w+c1] - c.sat[r1*w+c0] + c.sat[r0*w+c0]
}

func (f *Fuser) Fuse(layers ClassLayerSet) (label *Grid, err error) {
	ids := layers.PresentIDs()
	if len(ids) == 0 {
		err = ErrEmptyClassLayers
		return
	}
	var (
		first, _ = layers[ids[0]].Grid()
		classes  = make([]*classSums, len(ids))
	)
	for k, id := range ids {
		mask, _ := layers[id].Grid()
		if !mask.SameShape(first) {
			err = fmt.Errorf("%w: class %d mask %v != class %d mask %v", ErrShapeMismatch, id, mask.Shape(), ids[0], first.Shape())
			return
		}
		classes[k] = newClassSums(id, mask)
	}
	label = NewGrid(first.Rows, first.Cols)

	bandRows := f.BandRows
	if bandRows <= 0 {
		bandRows = FUSION_BAND_ROWS
	}
	workers := f.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var eg errgroup.Group
	eg.SetLimit(workers)
	for r0 := 0; r0 < label.Rows; r0 += bandRows {
		r1 := min(r0+bandRows, label.Rows)
		eg.Go(func() error {
			f.fuseBand(classes, label, r0, r1)
			return nil
		})
	}
	err = eg.Wait()
	return
}

// 处理[r0, r1)行，仅写入label的这些行
func (f *Fuser) fuseBand(classes []*classSums, label *Grid, r0, r1 int) {
	for i := r0; i < r1; i++ {
		out := label.Row(i)
		for j := range out {
			out[j] = int16(f.fusePixel(classes, i, j, label.Rows, label.Cols))
		}
	}
}

func (f *Fuser) fusePixel(classes []*classSums, i, j, rows, cols int) ClassID {
	// classes按ID升序，首个命中即最小ID
	for _, c := range classes {
		if c.mask.At(i, j) > 0 {
			return c.id
		}
	}
	return f.nearestClass(classes, i, j, rows, cols)
}

// 有界半径邻域搜索，用于无任何类别覆盖的像元
func (f *Fuser) nearestClass(classes []*classSums, i, j, rows, cols int) ClassID {
	r := min(f.Threshold, i, j, rows-1-i, cols-1-j)
	var (
		best    = f.Unknown
		bestSum int64
	)
	for _, c := range classes {
		if s := c.window(i-r, i+r, j-r, j+r); s > bestSum {
			best, bestSum = c.id, s
		}
	}
	return best
}
