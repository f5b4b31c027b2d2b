package utils

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	FILE_EXT_SHP = ".shp"
	FILE_EXT_TIF = ".tif"
	FILE_EXT_TXT = ".txt"

	tmpInfix = ".tmp-"
)

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// 取文件名中最后一个'_'之后的部分作为后缀，无'_'时返回整个文件名
func GetNameSuffix(path string) string {
	name := GetFilenameWithoutExt(path)
	if i := strings.LastIndexByte(name, '_'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func FileExists(path string) (exists bool, err error) {
	_, err = os.Stat(path)
	if err == nil {
		exists = true
		return
	}
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	return
}

// 按扩展名列出目录下文件（字典序）
func ListFiles(dir, ext string) (paths []string, err error) {
	paths, err = filepath.Glob(filepath.Join(dir, "*"+ext))
	sort.Strings(paths)
	return
}

// 与目标文件同目录的临时文件路径，保留扩展名以便驱动识别
func GetTmpPath(dst string) string {
	ext := filepath.Ext(dst)
	return strings.TrimSuffix(dst, ext) + tmpInfix + uuid.NewString() + ext
}

func IsTmpPath(path string) bool {
	return strings.Contains(filepath.Base(path), tmpInfix)
}

// 将临时文件发布到目标路径
func PublishFile(tmp, dst string) (err error) {
	if err = os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
	}
	return
}

// 写入临时文件后原子替换为目标文件
func WriteFileAtomic(dst string, data []byte) (err error) {
	tmp := GetTmpPath(dst)
	if err = os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return
	}
	return PublishFile(tmp, dst)
}
