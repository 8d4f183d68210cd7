// Package contentid 由文件字节派生内容标识.
//
// 标识形如 "<base64 前 50 位>_<crc32 8 位十六进制>"，与存储文件名相互独立.
// 只保证唯一，不用于去重：同一字节序列被重复上传时由调用方追加 Disambiguate 后缀.
package contentid

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/oklog/ulid"
)

// PrefixLength base64 前缀长度.
const PrefixLength = 50

// ErrEmptyPayload 空输入.
var ErrEmptyPayload = errors.New("contentid: empty payload")

// Generate 计算 data 的内容标识.
func Generate(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}

	// 只编码前缀所需的字节, 每 3 字节对应 4 个字符
	head := data
	if n := (PrefixLength/4 + 1) * 3; len(head) > n {
		head = head[:n]
	}

	prefix := base64.StdEncoding.EncodeToString(head)
	if len(prefix) > PrefixLength {
		prefix = prefix[:PrefixLength]
	}

	return fmt.Sprintf("%s_%08x", prefix, crc32.ChecksumIEEE(data)), nil
}

// Disambiguate 在标识后追加 ULID 后缀.
func Disambiguate(token string) string {
	return token + "-" + ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
