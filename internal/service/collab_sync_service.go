package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"campus-works/config"
	"campus-works/internal/collab"
	"campus-works/internal/dto"
	"campus-works/internal/metrics"
	"campus-works/internal/model"
	"campus-works/internal/repository"
	pkgerrors "campus-works/pkg/errors"
)

// ── 协作同步模块业务错误 ──

var (
	ErrSyncEventPayload = fmt.Errorf("同步事件载荷无法解析: %w", pkgerrors.ErrValidation)
	// errSyncNotRetryable 外部调用已成功但回写失败，重试会在平台上产生重复资源
	errSyncNotRetryable = errors.New("外部操作已完成但结果回写失败")
)

const (
	defaultSyncTimeout    = 5 * time.Second
	defaultRetryBatchSize = 20
)

// CollabSyncService 协作同步查询与运维接口
//
// 同步事件与业务变更在同一事务内写入 collab_sync_events，
// 事务提交后由发起请求的协程同步派发，不持有任何数据库事务。
// 派发失败只记录在事件上，不向调用方报告；管理员可通过 RetryFailed 重新派发。
type CollabSyncService interface {
	ListEvents(ctx context.Context, projectID string) ([]dto.CollabSyncEventResponse, error)
	RetryFailed(ctx context.Context, req *dto.RetrySyncRequest) (*dto.RetrySyncResponse, error)
}

type collabSyncService struct {
	repo     *repository.Repository
	provider collab.Provider
	cfg      *config.CollabConfig
	logger   *zap.Logger
}

func newCollabSyncService(repo *repository.Repository, provider collab.Provider, cfg *config.CollabConfig, logger *zap.Logger) *collabSyncService {
	return &collabSyncService{repo: repo, provider: provider, cfg: cfg, logger: logger}
}

// NewCollabSyncService 创建 CollabSyncService 实例
func NewCollabSyncService(repo *repository.Repository, provider collab.Provider, cfg *config.CollabConfig, logger *zap.Logger) CollabSyncService {
	return newCollabSyncService(repo, provider, cfg, logger)
}

// ────────────────────── 事务内写入 ──────────────────────

func (s *collabSyncService) enqueueCreateRepository(ctx context.Context, tx *repository.Repository, project *model.Project, callerID string) (*model.CollabSyncEvent, error) {
	return s.enqueue(ctx, tx, project.ProjectID, model.SyncCreateRepository, model.CreateRepositoryPayload{
		Name:        collab.RepositoryName(project.Title, project.ProjectID),
		Description: project.Title,
	}, callerID)
}

func (s *collabSyncService) enqueueAddCollaborator(ctx context.Context, tx *repository.Repository, project *model.Project, studentID, handle, callerID string) (*model.CollabSyncEvent, error) {
	return s.enqueue(ctx, tx, project.ProjectID, model.SyncAddCollaborator, model.AddCollaboratorPayload{
		Owner:     deref(project.RepoOwner),
		RepoName:  deref(project.RepoName),
		Handle:    handle,
		StudentID: studentID,
	}, callerID)
}

func (s *collabSyncService) enqueue(ctx context.Context, tx *repository.Repository, projectID string, kind model.SyncKind, payload interface{}, callerID string) (*model.CollabSyncEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	event := &model.CollabSyncEvent{
		ProjectID: projectID,
		Kind:      kind,
		Payload:   datatypes.JSON(raw),
		Status:    model.SyncPending,
	}
	event.StampCreated(callerID)

	if err := tx.CollabSync.Create(ctx, event); err != nil {
		s.logger.Error("写入协作同步事件失败",
			zap.String("project_id", projectID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, err
	}
	return event, nil
}

// ────────────────────── 提交后派发 ──────────────────────

// dispatch 依次派发事件，失败只记录不返回
func (s *collabSyncService) dispatch(ctx context.Context, events ...*model.CollabSyncEvent) {
	for _, e := range events {
		if e != nil {
			s.process(ctx, e)
		}
	}
}

// process 执行单个事件（有界重试），回写结果，返回是否成功
func (s *collabSyncService) process(ctx context.Context, event *model.CollabSyncEvent) bool {
	// 请求结束不应打断已开始的外部调用，单次调用由 Timeout 约束
	ctx = context.WithoutCancel(ctx)

	maxAttempts := s.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 && s.cfg.RetryBackoff > 0 {
			time.Sleep(s.cfg.RetryBackoff)
		}

		event.Attempts++
		err = s.execute(ctx, event)
		if err == nil || !retryable(err) {
			break
		}
		s.logger.Warn("协作同步失败，准备重试",
			zap.String("event_id", event.EventID),
			zap.String("kind", string(event.Kind)),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	now := time.Now()
	event.ProcessedAt = &now
	result := "succeeded"
	if err != nil {
		result = "failed"
		event.Status = model.SyncFailed
		event.LastError = err.Error()
		s.logger.Warn("协作同步失败，业务操作不受影响",
			zap.String("event_id", event.EventID),
			zap.String("project_id", event.ProjectID),
			zap.String("kind", string(event.Kind)),
			zap.Int("attempts", event.Attempts),
			zap.Error(err),
		)
	} else {
		event.Status = model.SyncSucceeded
		event.LastError = ""
	}
	metrics.CollabSyncDispatches.WithLabelValues(string(event.Kind), result).Inc()

	if uerr := s.repo.CollabSync.Update(ctx, event); uerr != nil {
		s.logger.Error("回写协作同步结果失败", zap.String("event_id", event.EventID), zap.Error(uerr))
	}
	return err == nil
}

func retryable(err error) bool {
	return !collab.IsDisabled(err) &&
		!errors.Is(err, ErrSyncEventPayload) &&
		!errors.Is(err, errSyncNotRetryable) &&
		!errors.Is(err, ErrProjectNotFound)
}

func (s *collabSyncService) execute(ctx context.Context, event *model.CollabSyncEvent) error {
	switch event.Kind {
	case model.SyncCreateRepository:
		return s.createRepository(ctx, event)
	case model.SyncAddCollaborator:
		return s.addCollaborator(ctx, event)
	default:
		return fmt.Errorf("%w: 未知事件类型 %s", ErrSyncEventPayload, event.Kind)
	}
}

func (s *collabSyncService) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSyncTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *collabSyncService) createRepository(ctx context.Context, event *model.CollabSyncEvent) error {
	var payload model.CreateRepositoryPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrSyncEventPayload, err)
	}

	project, err := s.repo.Project.GetByID(ctx, event.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	// 之前的事件已经建好仓库
	if project.HasRepository() {
		return nil
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	repo, err := s.provider.CreateRepository(callCtx, payload.Name, payload.Description)
	if err != nil {
		return err
	}

	if err := s.repo.Project.UpdateRepository(ctx, project.ProjectID, repo.URL, repo.Name, repo.Owner); err != nil {
		s.logger.Error("仓库已创建但回写项目失败",
			zap.String("project_id", project.ProjectID),
			zap.String("repo_url", repo.URL),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", errSyncNotRetryable, err)
	}
	project.RepoURL, project.RepoName, project.RepoOwner = &repo.URL, &repo.Name, &repo.Owner

	s.logger.Info("项目仓库已创建",
		zap.String("project_id", project.ProjectID),
		zap.String("repo_url", repo.URL),
	)

	s.addExistingMembers(ctx, project)
	return nil
}

// addExistingMembers 仓库晚于录用创建时，为已在团队中的成员补发协作者邀请
func (s *collabSyncService) addExistingMembers(ctx context.Context, project *model.Project) {
	members, err := s.repo.TeamMember.ListByProject(ctx, project.ProjectID)
	if err != nil {
		s.logger.Warn("查询团队成员失败，跳过补加协作者", zap.String("project_id", project.ProjectID), zap.Error(err))
		return
	}

	for _, m := range members {
		profile, err := s.repo.StudentProfile.GetByUserID(ctx, m.StudentID)
		if err != nil || profile.CollabHandle() == "" {
			continue
		}
		event, err := s.enqueueAddCollaborator(ctx, s.repo, project, m.StudentID, profile.CollabHandle(), "")
		if err != nil {
			continue
		}
		s.process(ctx, event)
	}
}

func (s *collabSyncService) addCollaborator(ctx context.Context, event *model.CollabSyncEvent) error {
	var payload model.AddCollaboratorPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrSyncEventPayload, err)
	}
	if payload.Owner == "" || payload.RepoName == "" || payload.Handle == "" {
		return fmt.Errorf("%w: 缺少仓库或协作账号", ErrSyncEventPayload)
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	if err := s.provider.AddCollaborator(callCtx, payload.Owner, payload.RepoName, payload.Handle); err != nil {
		return err
	}

	s.logger.Info("已添加仓库协作者",
		zap.String("project_id", event.ProjectID),
		zap.String("student_id", payload.StudentID),
		zap.String("handle", payload.Handle),
	)
	return nil
}

// ────────────────────── ListEvents ──────────────────────

func (s *collabSyncService) ListEvents(ctx context.Context, projectID string) ([]dto.CollabSyncEventResponse, error) {
	if _, err := s.repo.Project.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	events, err := s.repo.CollabSync.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("查询协作同步事件失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.CollabSyncEventResponse, 0, len(events))
	for i := range events {
		result = append(result, *toSyncEventResponse(&events[i]))
	}
	return result, nil
}

// ────────────────────── RetryFailed ──────────────────────

func (s *collabSyncService) RetryFailed(ctx context.Context, req *dto.RetrySyncRequest) (*dto.RetrySyncResponse, error) {
	limit := defaultRetryBatchSize
	if req != nil && req.Limit > 0 {
		limit = req.Limit
	}

	events, err := s.repo.CollabSync.ListByStatus(ctx, model.SyncFailed, limit)
	if err != nil {
		s.logger.Error("查询失败的同步事件失败", zap.Error(err))
		return nil, err
	}

	result := &dto.RetrySyncResponse{}
	for i := range events {
		result.Retried++
		if s.process(ctx, &events[i]) {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	s.logger.Info("重试协作同步事件完成",
		zap.Int("retried", result.Retried),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func toSyncEventResponse(e *model.CollabSyncEvent) *dto.CollabSyncEventResponse {
	return &dto.CollabSyncEventResponse{
		ID:          e.EventID,
		ProjectID:   e.ProjectID,
		Kind:        string(e.Kind),
		Status:      string(e.Status),
		Attempts:    e.Attempts,
		LastError:   e.LastError,
		ProcessedAt: formatTimePtr(e.ProcessedAt),
		CreatedAt:   formatTime(e.CreatedAt),
	}
}
