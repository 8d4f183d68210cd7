package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/spf13/afero"
)

// FsStore 基于 afero 文件系统的实现.
type FsStore struct {
	fs afero.Fs
}

// NewFsStore 使用给定 afero.Fs，测试中通常传入 afero.NewMemMapFs().
func NewFsStore(fsys afero.Fs) *FsStore {
	return &FsStore{fs: fsys}
}

// NewOsFsStore 以 root 为根目录的本地文件系统存储，root 不存在时创建.
func NewOsFsStore(root string) (*FsStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root %s: %w", root, err)
	}

	return NewFsStore(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

// Put 写入文件，父目录不存在时创建.
func (s *FsStore) Put(_ context.Context, name string, data []byte, _ string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}

	if dir := path.Dir(name); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	if err := afero.WriteFile(s.fs, name, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}

// Get 读取文件.
func (s *FsStore) Get(_ context.Context, name string) ([]byte, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return data, nil
}

// Exists 检查文件是否存在.
func (s *FsStore) Exists(_ context.Context, name string) (bool, error) {
	name, err := CleanName(name)
	if err != nil {
		return false, err
	}

	return afero.Exists(s.fs, name)
}

// Remove 删除文件.
func (s *FsStore) Remove(_ context.Context, name string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}

	if err := s.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}

	return nil
}
