package gdalabel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wgdzlh/gdalabel/log"
	"github.com/wgdzlh/gdalabel/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// 由标签目录配对影像路径（标签文件名去掉label前缀即影像文件名）
func PairLabelImages(labelDir, imageDir string) (images, labels []string, err error) {
	if labels, err = utils.ListFiles(labelDir, utils.FILE_EXT_TIF); err != nil {
		return
	}
	images = make([]string, len(labels))
	for i, l := range labels {
		images[i] = ImagePathFor(l, imageDir)
	}
	return
}

// 读取影像及其标签栅格并切分
func (g *GdalToolbox) DivideImage(imagePath, labelPath string) (seq *TileSeq, err error) {
	image, err := g.ReadRaster(imagePath)
	if err != nil {
		return
	}
	label, err := g.ReadRaster(labelPath)
	if err != nil {
		return
	}
	if seq, err = g.Tiler().Divide(image, label, utils.GetFilenameWithoutExt(imagePath)); err != nil {
		log.Error(g.logTag+"divide image failed", zap.String("img", imagePath), zap.String("label", labelPath), zap.Error(err))
		err = fmt.Errorf("%s, %s: %w", imagePath, labelPath, err)
	}
	return
}

func checkPathPairs(imagePaths, labelPaths []string) error {
	if len(imagePaths) != len(labelPaths) {
		return fmt.Errorf("%w: %d != %d", ErrPathCountMismatch, len(imagePaths), len(labelPaths))
	}
	return nil
}

// 切分全部影像，瓦片保留在内存中
func (g *GdalToolbox) DivideImages(imagePaths, labelPaths []string) (tiles []*TrainingTile, err error) {
	if err = checkPathPairs(imagePaths, labelPaths); err != nil {
		return
	}
	var (
		seq   *TileSeq
		batch []*TrainingTile
	)
	for i := range imagePaths {
		if seq, err = g.DivideImage(imagePaths[i], labelPaths[i]); err != nil {
			return
		}
		if batch, err = seq.Collect(); err != nil {
			return
		}
		tiles = append(tiles, batch...)
	}
	return
}

// 瓦片写出路径
func TilePaths(outDir, name string) (dataPath, labelPath string) {
	dataPath = filepath.Join(outDir, IMAGES_SUBDIR, name+utils.FILE_EXT_TIF)
	labelPath = filepath.Join(outDir, LABELS_SUBDIR, name+utils.FILE_EXT_TIF)
	return
}

func (g *GdalToolbox) WriteTile(t *TrainingTile, outDir string) (err error) {
	dataPath, labelPath := TilePaths(outDir, t.Name)
	if err = g.WriteRaster(dataPath, t.DataRaster()); err != nil {
		return
	}
	return g.WriteRaster(labelPath, t.LabelRaster())
}

// 切分全部影像并并行写出瓦片：outDir/images、outDir/labels及瓦片索引outDir/index.geojson
func (g *GdalToolbox) DivideAndSaveImages(imagePaths, labelPaths []string, outDir string) (written int, err error) {
	if err = checkPathPairs(imagePaths, labelPaths); err != nil {
		return
	}
	for _, sub := range []string{IMAGES_SUBDIR, LABELS_SUBDIR} {
		if err = os.MkdirAll(filepath.Join(outDir, sub), os.ModePerm); err != nil {
			return
		}
	}
	var (
		start   = time.Now()
		index   = NewTileIndex()
		eg, ctx = errgroup.WithContext(context.Background())
	)
	eg.SetLimit(max(g.cfg.Workers, 1))
	// 主协程顺序切分，写出交给工作协程；SetLimit限制了在途瓦片数量
	produce := func() error {
		for i := range imagePaths {
			seq, err := g.DivideImage(imagePaths[i], labelPaths[i])
			if err != nil {
				return err
			}
			n := 0
			for tile, err := range seq.All() {
				if err != nil {
					return err
				}
				if ctx.Err() != nil {
					return nil
				}
				dataPath, labelPath := TilePaths(outDir, tile.Name)
				index.Add(tile, dataPath, labelPath)
				eg.Go(func() error {
					return g.WriteTile(tile, outDir)
				})
				n++
			}
			log.Info(g.logTag+"divided image", zap.String("img", imagePaths[i]), zap.Int("tiles", n))
		}
		return nil
	}
	perr := produce()
	werr := eg.Wait()
	if perr != nil {
		err = perr
		return
	}
	if err = werr; err != nil {
		return
	}
	if err = index.Write(filepath.Join(outDir, TILE_INDEX_FILE)); err != nil {
		return
	}
	written = index.Len()
	log.Info(g.logTag+"done divide and save images", zap.Int("images", len(imagePaths)), zap.Int("tiles", written),
		zap.String("out", outDir), zap.Duration("cost", time.Since(start)))
	return
}
