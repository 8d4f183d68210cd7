package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // 注册解码器
	_ "image/jpeg" // 注册解码器
	_ "image/png"  // 注册解码器
	"mime"
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/errcode"
)

type payloadInfo struct {
	ext         string
	contentType string
}

// validatePayload 检查大小、扩展名、声明类型与实际内容，图片类型还要求可以完整解码.
func validatePayload(r configs.FileTypeRule, req CreateRequest) (payloadInfo, error) {
	if len(req.Data) == 0 {
		return payloadInfo{}, errcode.Validation("empty payload")
	}

	if int64(len(req.Data)) > r.MaxSizeBytes {
		return payloadInfo{}, errcode.Validation("payload exceeds the %d byte limit for %s", r.MaxSizeBytes, req.ResourceType)
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(req.FileName), "."))
	if ext == "" || !r.AllowsExtension(ext) {
		return payloadInfo{}, errcode.Validation("extension %q is not allowed for %s", ext, req.ResourceType)
	}

	declared, _, err := mime.ParseMediaType(req.ContentType)
	if err != nil {
		return payloadInfo{}, errcode.Validation("invalid content type %q", req.ContentType)
	}

	if !r.AllowsMime(declared) {
		return payloadInfo{}, errcode.Validation("content type %q is not allowed for %s", declared, req.ResourceType)
	}

	sniffed := mimetype.Detect(req.Data)
	if !sniffed.Is(declared) {
		return payloadInfo{}, errcode.Validation("content does not match declared type %q", declared)
	}

	if byExt := mime.TypeByExtension("." + ext); byExt != "" {
		if base, _, err := mime.ParseMediaType(byExt); err == nil && !sniffed.Is(base) {
			return payloadInfo{}, errcode.Validation("extension %q does not match content", ext)
		}
	}

	if r.IsImage {
		if _, _, err := image.Decode(bytes.NewReader(req.Data)); err != nil {
			return payloadInfo{}, errcode.Validation("payload is not a well-formed image")
		}
	}

	return payloadInfo{ext: ext, contentType: declared}, nil
}

// storageName {related_id|unknown}_{xxhash8}_{uuid8}.{ext}，单实例类型为 {related_id}.{ext}.
func storageName(r configs.FileTypeRule, relatedID, ext string, data []byte) string {
	if r.SingleInstance {
		return r.RelatedTable + "_" + relatedID + "." + ext
	}

	owner := relatedID
	if owner == "" {
		owner = "unknown"
	}

	hash := fmt.Sprintf("%016x", xxhash.Sum64(data))[:8]
	disambiguator := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	return fmt.Sprintf("%s_%s_%s.%s", owner, hash, disambiguator, ext)
}
