package gdalabel

import (
	"slices"

	"github.com/wgdzlh/gdalabel/utils"
)

// 类别名 -> 类别ID（名称已规范化）
type ClassTable map[string]ClassID

func DefaultClassTable() map[string]ClassID {
	return map[string]ClassID{
		"water":               ClassWater,
		"gravel":              ClassGravel,
		"vegetation":          ClassVegetation,
		"farmland":            ClassFarmland,
		"human-constructions": ClassHumanConstructions,
		"human-construction":  ClassHumanConstructions,
		"undefined":           ClassUnknown,
	}
}

func NewClassTable(names map[string]ClassID) ClassTable {
	t := make(ClassTable, len(names))
	for k, v := range names {
		t[utils.NormalizeName(k)] = v
	}
	return t
}

func (t ClassTable) Lookup(name string) (id ClassID, ok bool) {
	id, ok = t[utils.NormalizeName(name)]
	return
}

// 类别ID对应的名称，多个别名时取字典序最小者
func (t ClassTable) Name(id ClassID) (name string, ok bool) {
	var names []string
	for k, v := range t {
		if v == id {
			names = append(names, k)
		}
	}
	if len(names) == 0 {
		return
	}
	slices.Sort(names)
	return names[0], true
}

// 类别表中最大ID+1，用于统计直方图长度
func (t ClassTable) Len() (n int) {
	for _, v := range t {
		if int(v)+1 > n {
			n = int(v) + 1
		}
	}
	return
}
