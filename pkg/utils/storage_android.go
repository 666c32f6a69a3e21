//go:build android

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureStorageDir 确保 Android 上 gdata 的存储目录存在并可写
// gdata 使用 /data/data/{package}/ 作为根目录，但不会预先创建子目录
func EnsureStorageDir() error {
	root := GetStoragePath()
	if root == "" {
		return fmt.Errorf("failed to detect Android package name")
	}

	dir := filepath.Join(root, "saves")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("storage directory %s is not writable: %w", dir, err)
	}
	os.Remove(testFile)
	return nil
}

// GetStoragePath 返回 /data/data/{package}，包名取自 /proc/self/cmdline
func GetStoragePath() string {
	data, err := os.ReadFile("/proc/self/cmdline")
	if err != nil {
		return ""
	}
	pkg := strings.Map(func(r rune) rune {
		if r == 0 || r == '\n' {
			return -1
		}
		return r
	}, string(data))
	if pkg == "" {
		return ""
	}
	return filepath.Join("/data/data", pkg)
}
