package gdalabel

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/gdalabel/log"
	"github.com/wgdzlh/gdalabel/utils"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var pointerFiles = [3]string{"train.txt", "valid.txt", "test.txt"}

// 影像及其标签的路径对
type PathPair struct {
	Image string
	Label string
}

func (p PathPair) String() string {
	return p.Image + POINTER_SEPARATOR + p.Label
}

// 训练/验证/测试集划分结果
type PointerSets struct {
	Train, Valid, Test []PathPair
}

// 列出dataPath/images/*.tif，标签路径为dataPath/labels/<同名文件>
func ListDataPairs(dataPath string) (pairs []PathPair, err error) {
	images, err := utils.ListFiles(filepath.Join(dataPath, IMAGES_SUBDIR), utils.FILE_EXT_TIF)
	if err != nil {
		return
	}
	labelDir := filepath.Join(dataPath, LABELS_SUBDIR)
	for _, img := range images {
		if utils.IsTmpPath(img) {
			continue
		}
		pairs = append(pairs, PathPair{Image: img, Label: filepath.Join(labelDir, filepath.Base(img))})
	}
	return
}

// 按比例划分：训练集取前int(train*n)个，验证集取其后int(valid*n)个，其余为测试集
func SplitPairs(pairs []PathPair, split Split) (sets PointerSets, err error) {
	if err = split.Validate(); err != nil {
		return
	}
	n := len(pairs)
	trainEnd := int(split.Train * float64(n))
	validEnd := min(trainEnd+int(split.Valid*float64(n)), n)
	sets.Train = pairs[:trainEnd]
	sets.Valid = pairs[trainEnd:validEnd]
	sets.Test = pairs[validEnd:]
	return
}

// 固定种子洗牌，同一种子结果可复现
func ShufflePairs(pairs []PathPair, seed uint64) {
	r := rand.New(rand.NewPCG(seed, seed))
	r.Shuffle(len(pairs), func(i, j int) {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	})
}

func writePointerFile(dst string, pairs []PathPair) error {
	lines := make([]string, len(pairs))
	for i, p := range pairs {
		lines[i] = p.String()
	}
	return utils.WriteFileAtomic(dst, []byte(strings.Join(lines, "\n")))
}

// 生成train.txt、valid.txt、test.txt指针文件；比例之和不为1时不写出任何文件
func (g *GdalToolbox) CreatePointerFiles(dataPath, outDir string) (sets PointerSets, err error) {
	cfg := g.cfg
	if err = cfg.Split.Validate(); err != nil {
		return
	}
	pairs, err := ListDataPairs(dataPath)
	if err != nil {
		return
	}
	if cfg.Shuffle {
		ShufflePairs(pairs, cfg.Seed)
	}
	if sets, err = SplitPairs(pairs, cfg.Split); err != nil {
		return
	}
	if err = os.MkdirAll(outDir, os.ModePerm); err != nil {
		return
	}
	for i, ps := range [3][]PathPair{sets.Train, sets.Valid, sets.Test} {
		if e := writePointerFile(filepath.Join(outDir, pointerFiles[i]), ps); e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", pointerFiles[i], e))
		}
	}
	if err != nil {
		log.Error(g.logTag+"write pointer files failed", zap.String("out", outDir), zap.Error(err))
		return
	}
	log.Info(g.logTag+"wrote pointer files", zap.String("data", dataPath), zap.String("out", outDir),
		zap.Int("train", len(sets.Train)), zap.Int("valid", len(sets.Valid)), zap.Int("test", len(sets.Test)))
	return
}
