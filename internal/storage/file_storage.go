// internal/storage/file_storage.go
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileStorage 提供文件存储服务：原子写入、文件级锁、读缓存
type FileStorage struct {
	BaseDir string

	// 并发控制
	fileLocks sync.Map // 文件级别锁 path -> *sync.RWMutex

	// 简单缓存
	cache        map[string]*CacheEntry
	cacheMutex   sync.RWMutex
	cacheExpiry  time.Duration
	maxCacheSize int

	stop     chan struct{}
	stopOnce sync.Once
}

// CacheEntry 缓存条目
type CacheEntry struct {
	Data      []byte
	Timestamp time.Time
}

// NewFileStorage 创建文件存储服务
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}

	fs := &FileStorage{
		BaseDir:      baseDir,
		cache:        make(map[string]*CacheEntry),
		cacheExpiry:  5 * time.Minute,
		maxCacheSize: 100,
		stop:         make(chan struct{}),
	}

	go fs.cacheCleanupLoop(2 * time.Minute)

	return fs, nil
}

// Close 停止后台缓存清理
func (fs *FileStorage) Close() {
	fs.stopOnce.Do(func() { close(fs.stop) })
}

// 获取文件锁
func (fs *FileStorage) getFileLock(fullPath string) *sync.RWMutex {
	value, _ := fs.fileLocks.LoadOrStore(fullPath, &sync.RWMutex{})
	return value.(*sync.RWMutex)
}

// SaveTextFile 原子写入文件（先写临时文件再重命名）
func (fs *FileStorage) SaveTextFile(dirPath, filename string, content []byte) error {
	fullDirPath := filepath.Join(fs.BaseDir, dirPath)
	fullPath := filepath.Join(fullDirPath, filename)

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(fullDirPath, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return fmt.Errorf("保存临时文件失败: %w", err)
	}

	if err := os.Rename(tempPath, fullPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("保存文件失败: %w", err)
	}

	fs.invalidateCache(fullPath)
	return nil
}

// SaveJSONFile 保存JSON文件
func (fs *FileStorage) SaveJSONFile(dirPath, filename string, data interface{}) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	return fs.SaveTextFile(dirPath, filename, content)
}

// LoadTextFile 读取文本文件；文件不存在时错误链中包含 os.ErrNotExist
func (fs *FileStorage) LoadTextFile(dirPath, filename string) ([]byte, error) {
	fullPath := filepath.Join(fs.BaseDir, dirPath, filename)

	if data, ok := fs.cached(fullPath); ok {
		return data, nil
	}

	lock := fs.getFileLock(fullPath)
	lock.RLock()
	defer lock.RUnlock()

	// 双重检查缓存
	if data, ok := fs.cached(fullPath); ok {
		return data, nil
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}

	fs.updateCache(fullPath, content)
	return content, nil
}

// LoadJSONFile 读取并解析JSON文件
func (fs *FileStorage) LoadJSONFile(dirPath, filename string, v interface{}) error {
	content, err := fs.LoadTextFile(dirPath, filename)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("解析JSON失败: %w", err)
	}
	return nil
}

// FileExists 检查文件是否存在
func (fs *FileStorage) FileExists(dirPath, filename string) bool {
	_, err := os.Stat(filepath.Join(fs.BaseDir, dirPath, filename))
	return err == nil
}

// DeleteFile 删除文件
func (fs *FileStorage) DeleteFile(dirPath, filename string) error {
	fullPath := filepath.Join(fs.BaseDir, dirPath, filename)

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("删除文件失败: %w", err)
	}

	fs.invalidateCache(fullPath)
	return nil
}

// ListFiles 列出目录下指定扩展名的文件名（已排序），目录不存在时返回空列表
func (fs *FileStorage) ListFiles(dirPath, ext string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(fs.BaseDir, dirPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("读取目录失败: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// 缓存管理
func (fs *FileStorage) cached(path string) ([]byte, bool) {
	fs.cacheMutex.RLock()
	defer fs.cacheMutex.RUnlock()

	entry, exists := fs.cache[path]
	if !exists || time.Since(entry.Timestamp) >= fs.cacheExpiry {
		return nil, false
	}
	return entry.Data, true
}

func (fs *FileStorage) updateCache(path string, data []byte) {
	fs.cacheMutex.Lock()
	defer fs.cacheMutex.Unlock()

	fs.cache[path] = &CacheEntry{
		Data:      data,
		Timestamp: time.Now(),
	}
	fs.enforceMaxCacheSizeLocked()
}

func (fs *FileStorage) cacheCleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-fs.stop:
			return
		case <-ticker.C:
			fs.cleanupExpiredCache()
		}
	}
}

// 清理过期缓存
func (fs *FileStorage) cleanupExpiredCache() {
	fs.cacheMutex.Lock()
	defer fs.cacheMutex.Unlock()

	now := time.Now()
	for path, entry := range fs.cache {
		if now.Sub(entry.Timestamp) > fs.cacheExpiry {
			delete(fs.cache, path)
		}
	}
}

// enforceMaxCacheSizeLocked 超出上限时按时间淘汰最旧条目，调用方持有写锁
func (fs *FileStorage) enforceMaxCacheSizeLocked() {
	if len(fs.cache) <= fs.maxCacheSize {
		return
	}

	type cacheEntryWithTime struct {
		key       string
		timestamp time.Time
	}

	entries := make([]cacheEntryWithTime, 0, len(fs.cache))
	for key, entry := range fs.cache {
		entries = append(entries, cacheEntryWithTime{key: key, timestamp: entry.Timestamp})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].timestamp.Before(entries[j].timestamp)
	})

	for i := 0; i < len(entries)-fs.maxCacheSize; i++ {
		delete(fs.cache, entries[i].key)
	}
}

// invalidateCache 清除指定路径的缓存
func (fs *FileStorage) invalidateCache(path string) {
	fs.cacheMutex.Lock()
	defer fs.cacheMutex.Unlock()

	delete(fs.cache, path)
}
