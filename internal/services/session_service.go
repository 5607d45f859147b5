// internal/services/session_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/Corphon/VisualMediaTool/internal/errors"
	"github.com/Corphon/VisualMediaTool/internal/export"
	"github.com/Corphon/VisualMediaTool/internal/models"
	"github.com/Corphon/VisualMediaTool/internal/storage"
	"github.com/Corphon/VisualMediaTool/internal/utils"
)

// SessionService 会话的增删改查与导出
type SessionService struct {
	store     *storage.SessionStore
	exportDir string
	uploader  export.Uploader
	locks     *LockManager
	metrics   *utils.MetricsCollector
	logger    *utils.Logger
}

// NewSessionService 创建会话服务；uploader 可以为 nil
func NewSessionService(store *storage.SessionStore, exportDir string, uploader export.Uploader, metrics *utils.MetricsCollector) *SessionService {
	return &SessionService{
		store:     store,
		exportDir: exportDir,
		uploader:  uploader,
		locks:     NewLockManager(),
		metrics:   metrics,
		logger:    utils.GetLogger(),
	}
}

func notFound(id string, err error) error {
	if errors.Is(err, storage.ErrSessionNotFound) {
		return apperrors.NewNotFoundError(fmt.Sprintf("会话不存在: %s", id), err)
	}
	return err
}

// Create 保存新会话
func (s *SessionService) Create(session models.Session) (*models.StoredSession, error) {
	id, err := s.store.Save(session)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementCounter(utils.MetricSessionsSaved)
	return s.Get(id)
}

// Get 读取会话
func (s *SessionService) Get(id string) (*models.StoredSession, error) {
	stored, err := s.store.Load(id)
	if err != nil {
		return nil, notFound(id, err)
	}
	return stored, nil
}

// List 列出会话
func (s *SessionService) List() ([]models.StoredSession, error) {
	return s.store.List()
}

// Update 覆盖会话
func (s *SessionService) Update(id string, session models.Session) (*models.StoredSession, error) {
	var stored *models.StoredSession
	err := s.locks.WithLock(id, func() (err error) {
		stored, err = s.store.Update(id, session)
		return err
	})
	if err != nil {
		return nil, notFound(id, err)
	}
	s.metrics.IncrementCounter(utils.MetricSessionsSaved)
	return stored, nil
}

// Delete 删除会话
func (s *SessionService) Delete(id string) error {
	return notFound(id, s.locks.WithLock(id, func() error {
		return s.store.Delete(id)
	}))
}

// Select 为查询选定素材
func (s *SessionService) Select(id, query string, result models.MediaResult) (*models.StoredSession, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewValidationError("query is required", nil)
	}
	if result.Error {
		return nil, apperrors.NewValidationError("placeholder records cannot be selected", nil)
	}
	var stored *models.StoredSession
	err := s.locks.WithLock(id, func() (err error) {
		stored, err = s.store.Select(id, query, result)
		return err
	})
	if err != nil {
		return nil, notFound(id, err)
	}
	return stored, nil
}

// Export 将会话写成文件，配置了上传器时同时上传
func (s *SessionService) Export(ctx context.Context, id, format string) (*models.ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = models.ExportCSV
	}
	switch format {
	case models.ExportCSV, models.ExportJSON, models.ExportShotlist:
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("不支持的导出格式: %s", format), nil)
	}

	stored, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	rows := export.SelectionRows(stored.Session)
	path := filepath.Join(s.exportDir, id+export.Extension(format))
	switch format {
	case models.ExportJSON:
		err = export.JSON(rows, path)
	case models.ExportShotlist:
		err = export.Shotlist(stored.Session, path)
	default:
		err = export.CSV(rows, path)
	}
	if err != nil {
		return nil, apperrors.NewProcessingError("导出失败", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.NewProcessingError("导出失败", err)
	}

	result := &models.ExportResult{
		SessionID:   id,
		Format:      format,
		FilePath:    path,
		FileSize:    info.Size(),
		RowCount:    len(rows),
		GeneratedAt: time.Now(),
	}
	s.metrics.IncrementCounter(utils.MetricExports)

	if s.uploader != nil {
		key := "exports/" + filepath.Base(path)
		location, err := s.uploader.Upload(ctx, path, key)
		if err != nil {
			// 上传失败不影响本地导出
			s.logger.Error("export upload failed", map[string]interface{}{
				"session_id": id,
				"error":      err.Error(),
			})
		} else {
			result.RemoteURL = location
		}
	}

	return result, nil
}
