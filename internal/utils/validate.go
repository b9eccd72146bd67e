package utils

import (
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// 内容长度上限
const (
	MaxPostBodyLength    = 500
	MaxCommentBodyLength = 2000
	MinUserAge           = 13
	MaxUserAge           = 120
	MinArtistAge         = 15
	MaxArtistAge         = 100
)

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)
	// # 开头的词字符序列，要求至少含一个字母（支持 Unicode）
	hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	letterRe  = regexp.MustCompile(`\p{L}`)
	// @ 后跟 1-15 个词字符
	mentionRe = regexp.MustCompile(`@(\w{1,15})`)
)

// ValidUsername 用户名：1-15 位字母数字下划线
func ValidUsername(username string) bool {
	return usernameRe.MatchString(username)
}

// ValidAge 生日是否落在 [min, max] 周岁区间
func ValidAge(birth time.Time, min, max int) bool {
	age := AgeAt(birth, time.Now())
	return age >= min && age <= max
}

// AgeAt 计算在某一天的周岁年龄
func AgeAt(birth, at time.Time) int {
	years := at.Year() - birth.Year()
	anniversary := birth.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	return years
}

// ExtractHashtags 从正文提取话题（去 # 去重，保持出现顺序）
func ExtractHashtags(body string) []string {
	matches := hashtagRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]bool)
	var tags []string
	for _, m := range matches {
		tag := m[1]
		// 纯数字下划线不算话题
		if !letterRe.MatchString(tag) {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
	}
	return tags
}

// ExtractMentions 从正文提取 @ 到的用户名（去重，保持出现顺序）
func ExtractMentions(body string) []string {
	matches := mentionRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]bool)
	var names []string
	for _, m := range matches {
		key := strings.ToLower(m[1])
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, m[1])
	}
	return names
}

// CanonicalExt 把 content-type 规范化成扩展名，jpeg → jpg
func CanonicalExt(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "video/mp4":
		return "mp4"
	case "video/quicktime":
		return "mov"
	default:
		parts := strings.SplitN(mediaType, "/", 2)
		if len(parts) == 2 {
			return parts[1]
		}
		return ""
	}
}

// FileExt 取文件名扩展名（去点，小写）
func FileExt(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// ExtMatchesContentType 文件扩展名必须与 content-type 的规范扩展名一致
func ExtMatchesContentType(filename, contentType string) bool {
	ext := FileExt(filename)
	canonical := CanonicalExt(contentType)
	if canonical == "jpg" && ext == "jpeg" {
		ext = "jpg"
	}
	return canonical != "" && ext == canonical
}
