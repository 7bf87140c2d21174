// Package collab 封装外部代码托管平台：为项目建仓、为学生添加协作者。
// 调用方只区分成功与失败，失败原因（重名、鉴权、限流等）对编排层不透明。
package collab

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"campus-works/config"
	pkgerrors "campus-works/pkg/errors"
)

var (
	// ErrSyncFailed 外部平台调用失败
	ErrSyncFailed = fmt.Errorf("协作平台调用失败: %w", pkgerrors.ErrExternalSync)
	// ErrSyncDisabled 未启用协作同步
	ErrSyncDisabled = fmt.Errorf("协作同步未启用: %w", pkgerrors.ErrExternalSync)
)

// Repository 建仓结果
type Repository struct {
	URL   string `json:"url"`
	Name  string `json:"name"`  // 平台最终采用的仓库名（重名时可能带后缀）
	Owner string `json:"owner"` // 仓库所属用户或组织
}

// Provider 代码托管平台接口
type Provider interface {
	CreateRepository(ctx context.Context, name, description string) (*Repository, error)
	AddCollaborator(ctx context.Context, owner, repoName, handle string) error
}

// NewProvider 按配置返回 GitHub 实现；未启用时返回空实现
func NewProvider(cfg *config.CollabConfig, logger *zap.Logger) Provider {
	if !cfg.Enabled {
		logger.Info("协作同步未启用，仓库与协作者操作将被跳过")
		return noopProvider{}
	}
	return NewGitHubProvider(cfg, logger)
}

type noopProvider struct{}

func (noopProvider) CreateRepository(context.Context, string, string) (*Repository, error) {
	return nil, ErrSyncDisabled
}

func (noopProvider) AddCollaborator(context.Context, string, string, string) error {
	return ErrSyncDisabled
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// RepositoryName 由项目标题生成仓库名，标题无可用字符时退回 project-<id 前 8 位>
func RepositoryName(title, projectID string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	if slug == "" {
		id := projectID
		if len(id) > 8 {
			id = id[:8]
		}
		return "project-" + id
	}
	return slug
}

// IsDisabled 判断错误是否来自未启用的同步
func IsDisabled(err error) bool {
	return errors.Is(err, ErrSyncDisabled)
}
