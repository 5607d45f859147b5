// internal/config/settings.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/Corphon/VisualMediaTool/internal/errors"
)

// Settings 运行时可修改的设置，持久化到 settings.json
type Settings struct {
	AIEnabled  bool            `json:"ai_enabled"`
	AIProvider string          `json:"ai_provider"`
	AIModel    string          `json:"ai_model,omitempty"`
	Providers  map[string]bool `json:"providers"`
}

func (s Settings) clone() Settings {
	out := s
	out.Providers = make(map[string]bool, len(s.Providers))
	for k, v := range s.Providers {
		out.Providers[k] = v
	}
	return out
}

// ProviderEnabled 未出现在开关表中的提供商默认启用
func (s Settings) ProviderEnabled(name string) bool {
	enabled, ok := s.Providers[name]
	return !ok || enabled
}

// Manager 管理运行时设置
type Manager struct {
	mu       sync.RWMutex
	file     string
	settings Settings
}

// NewManager 以基础配置初始化设置，并合并已保存的文件
func NewManager(cfg *Config) (*Manager, error) {
	m := &Manager{
		file: filepath.Join(cfg.DataDir, "settings.json"),
		settings: Settings{
			AIEnabled:  cfg.AIEnabled,
			AIProvider: cfg.AIProvider,
			AIModel:    cfg.AIModel,
			Providers:  map[string]bool{},
		},
	}

	// 尝试从文件加载已保存的设置
	data, err := os.ReadFile(m.file)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("读取设置失败: %w", err)
	}

	var saved Settings
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("解析设置失败: %w", err)
	}
	if saved.AIProvider == "" {
		saved.AIProvider = cfg.AIProvider
	}
	if saved.Providers == nil {
		saved.Providers = map[string]bool{}
	}
	m.settings = saved
	return m, nil
}

// NewMemoryManager 不落盘的设置，用于命令行等一次性运行
func NewMemoryManager(s Settings) *Manager {
	if s.Providers == nil {
		s.Providers = map[string]bool{}
	}
	return &Manager{settings: s.clone()}
}

// Get 返回当前设置的副本
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings.clone()
}

// Update 修改设置并保存到文件
func (m *Manager) Update(fn func(*Settings)) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.settings.clone()
	fn(&next)

	switch next.AIProvider {
	case ProviderGoogle, ProviderAnthropic, ProviderOpenAI:
	default:
		return m.settings.clone(), apperrors.NewValidationError(fmt.Sprintf("不支持的AI提供商: %s", next.AIProvider), nil)
	}

	m.settings = next
	if err := m.save(); err != nil {
		return next.clone(), err
	}
	return next.clone(), nil
}

// SetProviderEnabled 切换单个素材提供商
func (m *Manager) SetProviderEnabled(name string, enabled bool) error {
	_, err := m.Update(func(s *Settings) {
		s.Providers[name] = enabled
	})
	return err
}

// save 保存当前设置到文件，调用方持有写锁
func (m *Manager) save() error {
	if m.file == "" {
		return nil
	}

	// 确保目录存在
	if err := os.MkdirAll(filepath.Dir(m.file), 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(m.settings, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化设置失败: %w", err)
	}

	return os.WriteFile(m.file, data, 0644)
}
