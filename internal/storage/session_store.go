// internal/storage/session_store.go
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Corphon/VisualMediaTool/internal/models"
)

const sessionsDir = "sessions"

// ErrSessionNotFound 会话不存在
var ErrSessionNotFound = errors.New("session not found")

// SessionStore 基于 FileStorage 的会话存储，每个会话一个 <id>.json
type SessionStore struct {
	fs  *FileStorage
	now func() time.Time
}

// NewSessionStore 创建会话存储
func NewSessionStore(fs *FileStorage) *SessionStore {
	return &SessionStore{fs: fs, now: time.Now}
}

// Save 保存新会话并返回其 ID
func (s *SessionStore) Save(session models.Session) (string, error) {
	id := uuid.NewString()
	if _, err := s.put(id, session); err != nil {
		return "", err
	}
	return id, nil
}

// Update 覆盖已有会话
func (s *SessionStore) Update(id string, session models.Session) (*models.StoredSession, error) {
	if _, err := s.Load(id); err != nil {
		return nil, err
	}
	return s.put(id, session)
}

func (s *SessionStore) put(id string, session models.Session) (*models.StoredSession, error) {
	session.Normalize()
	stored := &models.StoredSession{
		ID:        id,
		UpdatedAt: s.now().UTC(),
		Session:   session,
	}
	if err := s.fs.SaveJSONFile(sessionsDir, id+".json", stored); err != nil {
		return nil, fmt.Errorf("保存会话失败: %w", err)
	}
	return stored, nil
}

// Load 读取会话
func (s *SessionStore) Load(id string) (*models.StoredSession, error) {
	if !validID(id) {
		return nil, ErrSessionNotFound
	}

	var stored models.StoredSession
	if err := s.fs.LoadJSONFile(sessionsDir, id+".json", &stored); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	stored.Session.Normalize()
	return &stored, nil
}

// List 返回所有会话，最近更新的在前
func (s *SessionStore) List() ([]models.StoredSession, error) {
	files, err := s.fs.ListFiles(sessionsDir, ".json")
	if err != nil {
		return nil, err
	}

	sessions := make([]models.StoredSession, 0, len(files))
	for _, name := range files {
		stored, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			// 跳过损坏的文件
			continue
		}
		sessions = append(sessions, *stored)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// Delete 删除会话
func (s *SessionStore) Delete(id string) error {
	if !validID(id) || !s.fs.FileExists(sessionsDir, id+".json") {
		return ErrSessionNotFound
	}
	return s.fs.DeleteFile(sessionsDir, id+".json")
}

// Select 记录某个查询选中的素材
func (s *SessionStore) Select(id, query string, result models.MediaResult) (*models.StoredSession, error) {
	stored, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	stored.Session.Selected[query] = result
	return s.put(id, stored.Session)
}

// validID 只接受 UUID，防止路径穿越
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// SaveSessionFile 将会话按外部格式原样写到指定路径
func SaveSessionFile(path string, session models.Session) error {
	session.Normalize()
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化会话失败: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// LoadSessionFile 读取外部格式的会话文件
func LoadSessionFile(path string) (models.Session, error) {
	var session models.Session
	data, err := os.ReadFile(path)
	if err != nil {
		return session, fmt.Errorf("读取会话文件失败: %w", err)
	}
	if err := json.Unmarshal(data, &session); err != nil {
		return session, fmt.Errorf("解析会话文件失败: %w", err)
	}
	session.Normalize()
	return session, nil
}
