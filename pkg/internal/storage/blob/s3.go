package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	minio "github.com/minio/minio-go/v7"
)

// S3Store 基于 MinIO 客户端的实现，对象键即存储名.
type S3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store 创建 S3Store.
func NewS3Store(client *minio.Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)

	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

// Put 上传对象.
func (s *S3Store) Put(ctx context.Context, name string, data []byte, contentType string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", name, err)
	}

	return nil
}

// Get 下载对象.
func (s *S3Store) Get(ctx context.Context, name string) ([]byte, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
		}

		return nil, fmt.Errorf("get object %s: %w", name, err)
	}
	defer obj.Close()

	// GetObject 是惰性的，错误在首次读取时出现
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
		}

		return nil, fmt.Errorf("read object %s: %w", name, err)
	}

	return data, nil
}

// Exists 通过 StatObject 判断对象是否存在.
func (s *S3Store) Exists(ctx context.Context, name string) (bool, error) {
	name, err := CleanName(name)
	if err != nil {
		return false, err
	}

	if _, err := s.client.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}

		return false, fmt.Errorf("stat object %s: %w", name, err)
	}

	return true, nil
}

// Remove 删除对象，S3 对不存在的键同样返回成功.
func (s *S3Store) Remove(ctx context.Context, name string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", name, err)
	}

	return nil
}
