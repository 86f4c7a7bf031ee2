// Package storage 上传文件存储（MinIO或本地磁盘）
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// URLPrefix 文件对外访问前缀
const URLPrefix = "/uploads/"

var (
	ErrNotFound   = errors.New("file not found")
	ErrInvalidKey = errors.New("invalid file key")
)

// ObjectInfo 文件元信息
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// FileStore 文件存储
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadSeekCloser, *ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName 清理文件名，只保留安全字符
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	if len(name) > 120 {
		ext := filepath.Ext(name)
		if len(ext) > 20 {
			ext = ""
		}
		name = name[:120-len(ext)] + ext
	}
	return name
}

// NewKey 生成存储路径 <prefix>/YYYY/MM/<id>_<name>
func NewKey(prefix, fileName string) string {
	now := time.Now()
	return path.Join(prefix, now.Format("2006"), now.Format("01"),
		fmt.Sprintf("%s_%s", uuid.New().String()[:8], SanitizeName(fileName)))
}

// URL 存储路径对应的访问地址
func URL(key string) string {
	return URLPrefix + strings.TrimPrefix(key, "/")
}

// CleanKey 校验并规范化存储路径，拒绝目录穿越
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.ReplaceAll(key, "\\", "/"), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
