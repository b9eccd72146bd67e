package utils

import (
	"regexp"
	"strings"
)

var slugInvalidRe = regexp.MustCompile(`[^a-z0-9\p{L}]+`)

// Slugify 生成 URL slug：小写、非字母数字折叠成连字符
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugInvalidRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
