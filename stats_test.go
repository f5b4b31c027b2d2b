package gdalabel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassStatistics(t *testing.T) {
	g := GridFromRows([][]int16{
		{0, 0, 1},
		{5, 5, 5},
		{-1, 7, 5},
	})
	hist := ClassHistogram(g, 6)
	assert.Equal(t, []float64{2, 1, 0, 0, 0, 4}, hist)

	AddHistogram(hist, ClassHistogram(GridFromRows([][]int16{{1, 1}}), 6))
	assert.Equal(t, []float64{2, 3, 0, 0, 0, 4}, hist)

	freq := ClassFrequencies(hist)
	assert.InDeltaSlice(t, []float64{2.0 / 9, 3.0 / 9, 0, 0, 0, 4.0 / 9}, freq, 1e-12)

	// 出现类别频率排序后为[2/9, 3/9, 4/9]，中位数3/9
	w := MedianFrequencyWeights(freq)
	assert.InDeltaSlice(t, []float64{1.5, 1, 0, 0, 0, 0.75}, w, 1e-12)
}

func TestClassStatisticsEmpty(t *testing.T) {
	freq := ClassFrequencies(make([]float64, 3))
	assert.Equal(t, []float64{0, 0, 0}, freq)
	assert.Equal(t, []float64{0, 0, 0}, MedianFrequencyWeights(freq))
}
