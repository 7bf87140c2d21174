package collab

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"campus-works/config"
)

// githubProvider 基于 GitHub REST API 的 Provider 实现
type githubProvider struct {
	client  *resty.Client
	org     string
	private bool
	logger  *zap.Logger
}

// NewGitHubProvider 创建 GitHub Provider
func NewGitHubProvider(cfg *config.CollabConfig, logger *zap.Logger) Provider {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.Token).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28")

	return &githubProvider{
		client:  client,
		org:     cfg.Org,
		private: cfg.Private,
		logger:  logger,
	}
}

type createRepoRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private"`
	AutoInit    bool   `json:"auto_init"`
}

type repoResponse struct {
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
	Owner   struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// CreateRepository 建仓；重名时改用带随机后缀的名称重试一次
func (p *githubProvider) CreateRepository(ctx context.Context, name, description string) (*Repository, error) {
	repo, resp, err := p.createRepository(ctx, name, description)
	if err == nil {
		return repo, nil
	}
	if resp == nil || !isNameCollision(resp) {
		return nil, err
	}

	renamed := fmt.Sprintf("%s-%s", name, uuid.New().String()[:6])
	p.logger.Warn("仓库名已被占用，改名重试",
		zap.String("name", name),
		zap.String("renamed", renamed),
	)
	repo, _, err = p.createRepository(ctx, renamed, description)
	return repo, err
}

func (p *githubProvider) createRepository(ctx context.Context, name, description string) (*Repository, *resty.Response, error) {
	path := "/user/repos"
	if p.org != "" {
		path = "/orgs/" + p.org + "/repos"
	}

	var out repoResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(createRepoRequest{
			Name:        name,
			Description: description,
			Private:     p.private,
			AutoInit:    true,
		}).
		SetResult(&out).
		ForceContentType("application/json").
		Post(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: 创建仓库 %s: %v", ErrSyncFailed, name, err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, resp, fmt.Errorf("%w: 创建仓库 %s: status=%d body=%s", ErrSyncFailed, name, resp.StatusCode(), resp.String())
	}

	if out.HTMLURL == "" || out.Name == "" || out.Owner.Login == "" {
		return nil, nil, fmt.Errorf("%w: 创建仓库 %s: 响应缺少仓库坐标 body=%s", ErrSyncFailed, name, resp.String())
	}

	return &Repository{
		URL:   out.HTMLURL,
		Name:  out.Name,
		Owner: out.Owner.Login,
	}, resp, nil
}

// AddCollaborator 以 push 权限邀请协作者；已是协作者时平台返回 204，同样视为成功
func (p *githubProvider) AddCollaborator(ctx context.Context, owner, repoName, handle string) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"owner":    owner,
			"repo":     repoName,
			"username": handle,
		}).
		SetBody(map[string]string{"permission": "push"}).
		Put("/repos/{owner}/{repo}/collaborators/{username}")
	if err != nil {
		return fmt.Errorf("%w: 添加协作者 %s: %v", ErrSyncFailed, handle, err)
	}
	switch resp.StatusCode() {
	case http.StatusCreated, http.StatusNoContent:
		return nil
	default:
		return fmt.Errorf("%w: 添加协作者 %s: status=%d body=%s", ErrSyncFailed, handle, resp.StatusCode(), resp.String())
	}
}

func isNameCollision(resp *resty.Response) bool {
	return resp.StatusCode() == http.StatusUnprocessableEntity &&
		strings.Contains(resp.String(), "already exists")
}
