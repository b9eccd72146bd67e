package utils

import (
	"crypto/rand"
)

// URL 安全字符表，去掉了易混淆字符之外的全部 64 个可用字符
const shortUUIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// ShortUUIDLength 对外短标识的固定长度
const ShortUUIDLength = 20

// NewShortUUID 生成 20 位 URL 安全的随机短标识
// 字符表 64 个字符，用 crypto/rand 保证均匀分布；
// 入库撞唯一索引时由调用方换一个重试
func NewShortUUID() string {
	buf := make([]byte, ShortUUIDLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand 失败说明系统熵源坏了，没有降级的意义
		panic(err)
	}
	for i, b := range buf {
		// 64 = 2^6，取模不引入偏差
		buf[i] = shortUUIDAlphabet[b%64]
	}
	return string(buf)
}
