// internal/services/lock_manager.go
package services

import (
	"sync"
	"time"
)

// LockManager 按会话ID分配互斥锁，串行化同一会话的读改写
type LockManager struct {
	locks      map[string]*lockInfo
	globalLock sync.Mutex
	idleTTL    time.Duration
	maxIdle    int
}

// lockInfo 包装锁和引用计数，使用中的锁不会被清理
type lockInfo struct {
	mu       sync.Mutex
	refs     int
	lastUsed time.Time
}

// NewLockManager 创建锁管理器
func NewLockManager() *LockManager {
	return &LockManager{
		locks:   make(map[string]*lockInfo),
		idleTTL: 30 * time.Minute,
		maxIdle: 200,
	}
}

func (lm *LockManager) acquire(id string) *lockInfo {
	lm.globalLock.Lock()
	info, exists := lm.locks[id]
	if !exists {
		info = &lockInfo{}
		lm.locks[id] = info
	}
	info.refs++
	lm.globalLock.Unlock()

	info.mu.Lock()
	return info
}

func (lm *LockManager) release(info *lockInfo) {
	info.mu.Unlock()

	lm.globalLock.Lock()
	defer lm.globalLock.Unlock()
	info.refs--
	info.lastUsed = time.Now()
	lm.cleanupLocked()
}

// WithLock 在会话锁保护下执行操作
func (lm *LockManager) WithLock(id string, fn func() error) error {
	info := lm.acquire(id)
	defer lm.release(info)
	return fn()
}

// cleanupLocked 锁数量过多时清理长时间未使用的锁，调用方持有 globalLock
func (lm *LockManager) cleanupLocked() {
	if len(lm.locks) <= lm.maxIdle {
		return
	}
	now := time.Now()
	for id, info := range lm.locks {
		if info.refs == 0 && now.Sub(info.lastUsed) > lm.idleTTL {
			delete(lm.locks, id)
		}
	}
}

// size 当前持有的锁数量
func (lm *LockManager) size() int {
	lm.globalLock.Lock()
	defer lm.globalLock.Unlock()
	return len(lm.locks)
}
