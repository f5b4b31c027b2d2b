package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wgdzlh/gdalabel"
	"github.com/wgdzlh/gdalabel/log"

	"go.uber.org/zap"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "rasterize":
		err = handleRasterize(args)
	case "tile":
		err = handleTile(args)
	case "pointers":
		err = handlePointers(args)
	case "stats":
		err = handleStats(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	log.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", command, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`gdalabel - label raster synthesis and tiling for remote-sensing training data

Usage: gdalabel <command> [options]

Commands:
  rasterize  Burn per-class shapefiles into fused label rasters
  tile       Cut (image, label) raster pairs into fixed-size tiles
  pointers   Write train/valid/test pointer files for a tile folder
  stats      Report class frequencies and balancing weights of label rasters
  help       Show this help message

Common Flags:
  -config <file>   JSON configuration file (defaults are used when omitted)`)
}

// 各子命令共用的-config参数
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath := fs.String("config", "", "JSON configuration file")
	return fs, cfgPath
}

func loadToolbox(cfgPath string) (*gdalabel.GdalToolbox, error) {
	cfg := gdalabel.DefaultConfig()
	if cfgPath != "" {
		var err error
		if cfg, err = gdalabel.LoadConfig(cfgPath); err != nil {
			return nil, err
		}
	}
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		log.Warn("invalid log level, keep default", zap.String("level", cfg.LogLevel), zap.Error(err))
	}
	return gdalabel.NewGdalToolbox(cfg), nil
}

func requireFlags(fs *flag.FlagSet, values map[string]string) error {
	for name, v := range values {
		if v == "" {
			fs.Usage()
			return fmt.Errorf("-%s is required", name)
		}
	}
	return nil
}

func handleRasterize(args []string) error {
	fs, cfgPath := newFlagSet("rasterize")
	images := fs.String("images", "", "folder of source *.tif images")
	polygons := fs.String("polygons", "", "folder of per-class *.shp files named <prefix>_<class>.shp")
	out := fs.String("out", "", "destination folder of label rasters")
	unclassified := fs.String("unclassified", "", "optional folder to export polygons of unmapped class names")
	fs.Parse(args)
	if err := requireFlags(fs, map[string]string{"images": *images, "polygons": *polygons, "out": *out}); err != nil {
		return err
	}
	g, err := loadToolbox(*cfgPath)
	if err != nil {
		return err
	}
	written, err := g.CreateLabelsForFolder(*images, *polygons, *out)
	fmt.Printf("wrote %d label rasters to %s\n", written, *out)
	if err != nil {
		return err
	}
	if *unclassified == "" {
		return nil
	}
	polys, err := g.LoadPolygons(*polygons)
	if err != nil {
		return err
	}
	defer polys.Destroy()
	if err = os.MkdirAll(*unclassified, os.ModePerm); err != nil {
		return err
	}
	paths, err := g.ExportUnclassified(polys, *unclassified)
	fmt.Printf("exported %d unclassified shapefiles to %s\n", len(paths), *unclassified)
	return err
}

func handleTile(args []string) error {
	fs, cfgPath := newFlagSet("tile")
	labels := fs.String("labels", "", "folder of label rasters (label<image>.tif)")
	images := fs.String("images", "", "folder of source images")
	out := fs.String("out", "", "output folder, receives images/, labels/ and index.geojson")
	fs.Parse(args)
	if err := requireFlags(fs, map[string]string{"labels": *labels, "images": *images, "out": *out}); err != nil {
		return err
	}
	g, err := loadToolbox(*cfgPath)
	if err != nil {
		return err
	}
	imagePaths, labelPaths, err := gdalabel.PairLabelImages(*labels, *images)
	if err != nil {
		return err
	}
	written, err := g.DivideAndSaveImages(imagePaths, labelPaths, *out)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d tiles from %d images to %s\n", written, len(imagePaths), *out)
	return nil
}

func handlePointers(args []string) error {
	fs, cfgPath := newFlagSet("pointers")
	data := fs.String("data", "", "tile folder containing images/ and labels/")
	out := fs.String("out", "", "folder for train.txt, valid.txt and test.txt")
	fs.Parse(args)
	if err := requireFlags(fs, map[string]string{"data": *data, "out": *out}); err != nil {
		return err
	}
	g, err := loadToolbox(*cfgPath)
	if err != nil {
		return err
	}
	sets, err := g.CreatePointerFiles(*data, *out)
	if err != nil {
		return err
	}
	fmt.Printf("train=%d valid=%d test=%d\n", len(sets.Train), len(sets.Valid), len(sets.Test))
	return nil
}

func handleStats(args []string) error {
	fs, cfgPath := newFlagSet("stats")
	labels := fs.String("labels", "", "folder of label rasters")
	fs.Parse(args)
	if err := requireFlags(fs, map[string]string{"labels": *labels}); err != nil {
		return err
	}
	g, err := loadToolbox(*cfgPath)
	if err != nil {
		return err
	}
	st, err := g.LabelStatistics(filepath.Clean(*labels))
	if err != nil {
		return err
	}
	fmt.Printf("%d label rasters\n", st.Files)
	fmt.Printf("%-6s %-22s %14s %10s %10s\n", "id", "class", "pixels", "freq", "weight")
	for c := range st.Histogram {
		name, ok := g.Classes().Name(gdalabel.ClassID(c))
		if !ok {
			name = "-"
		}
		fmt.Printf("%-6d %-22s %14.0f %10.4f %10.4f\n", c, name, st.Histogram[c], st.Frequencies[c], st.Weights[c])
	}
	return nil
}
