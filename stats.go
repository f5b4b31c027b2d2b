package gdalabel

import (
	"slices"

	"github.com/wgdzlh/gdalabel/log"
	"github.com/wgdzlh/gdalabel/utils"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// 各类别像元计数，超出[0, nClasses)的值不计入
func ClassHistogram(g *Grid, nClasses int) []float64 {
	hist := make([]float64, nClasses)
	for _, p := range g.Pix {
		if p >= 0 && int(p) < nClasses {
			hist[p]++
		}
	}
	return hist
}

// 累加直方图
func AddHistogram(dst, src []float64) {
	floats.Add(dst, src)
}

// 各类别像元占比，总数为0时全为0
func ClassFrequencies(hist []float64) []float64 {
	freq := slices.Clone(hist)
	if total := floats.Sum(freq); total > 0 {
		floats.Scale(1/total, freq)
	}
	return freq
}

// 中位数频率平衡权重：weight_c = median(出现类别的频率) / freq_c，未出现类别权重为0
func MedianFrequencyWeights(freq []float64) []float64 {
	weights := make([]float64, len(freq))
	var present []float64
	for _, f := range freq {
		if f > 0 {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return weights
	}
	slices.Sort(present)
	median := stat.Quantile(0.5, stat.Empirical, present, nil)
	for c, f := range freq {
		if f > 0 {
			weights[c] = median / f
		}
	}
	return weights
}

// 数据集类别统计
type DatasetStats struct {
	Files       int
	Histogram   []float64
	Frequencies []float64
	Weights     []float64
}

// 统计目录下全部标签栅格的类别分布
func (g *GdalToolbox) LabelStatistics(labelDir string) (st DatasetStats, err error) {
	paths, err := utils.ListFiles(labelDir, utils.FILE_EXT_TIF)
	if err != nil {
		return
	}
	st.Histogram = make([]float64, g.classes.Len())
	var r *Raster
	for _, p := range paths {
		if utils.IsTmpPath(p) {
			continue
		}
		if r, err = g.ReadRaster(p); err != nil {
			return
		}
		AddHistogram(st.Histogram, ClassHistogram(r.Grid, len(st.Histogram)))
		st.Files++
	}
	st.Frequencies = ClassFrequencies(st.Histogram)
	st.Weights = MedianFrequencyWeights(st.Frequencies)
	log.Info(g.logTag+"label statistics", zap.String("dir", labelDir), zap.Int("files", st.Files),
		zap.Float64s("frequencies", st.Frequencies))
	return
}
