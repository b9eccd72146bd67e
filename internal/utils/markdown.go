package utils

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy = bluemonday.UGCPolicy()
)

func init() {
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// RenderBody 把帖子/评论正文渲染成消毒后的 HTML
func RenderBody(source string) string {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		// 渲染失败退回纯文本消毒
		return string(policy.SanitizeBytes([]byte(source)))
	}
	return string(policy.SanitizeBytes(buf.Bytes()))
}

// SanitizeText 去除正文里的全部标签，通知描述等纯文本场景用
func SanitizeText(source string) string {
	return bluemonday.StrictPolicy().Sanitize(source)
}
