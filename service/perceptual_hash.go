package service

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	hashSampleBytes = 1024
	hashHexLength   = 16
)

// PerceptualHash 取内容前 1KiB 的 SHA-256 前 16 位十六进制，只能识别完全相同的文件头
func PerceptualHash(content []byte) string {
	if len(content) > hashSampleBytes {
		content = content[:hashSampleBytes]
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:hashHexLength]
}
