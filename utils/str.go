package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// 类别名规范化：去除首尾空白并转小写（支持非ASCII字符，如"Lærdal"）
// Caser有状态，不能跨goroutine共享，故每次新建
func NormalizeName(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}
