package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"campus-works/internal/dto"
	"campus-works/internal/service"
	pkgerrors "campus-works/pkg/errors"
	"campus-works/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testRoleID = "8a3c1f52-6f7e-4a43-9a1b-2c1d5e7f9b10"

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ProjectService ──

type mockProjectService struct {
	createResult *dto.ProjectResponse
	createErr    error
	getErr       error
	listResult   *dto.PageResponse[dto.ProjectResponse]
	approveErr   error
	deleteErr    error
	provisionErr error

	gotCallerRole string
}

func (m *mockProjectService) Create(_ context.Context, _ *dto.CreateProjectRequest, _, callerRole string) (*dto.ProjectResponse, error) {
	m.gotCallerRole = callerRole
	return m.createResult, m.createErr
}
func (m *mockProjectService) Get(_ context.Context, id, _, _ string) (*dto.ProjectResponse, error) {
	return &dto.ProjectResponse{ID: id}, m.getErr
}
func (m *mockProjectService) List(_ context.Context, _ *dto.ProjectListRequest, _, _ string) (*dto.PageResponse[dto.ProjectResponse], error) {
	return m.listResult, nil
}
func (m *mockProjectService) Approve(_ context.Context, id, _ string) (*dto.ProjectResponse, error) {
	return &dto.ProjectResponse{ID: id, Status: "OPEN"}, m.approveErr
}
func (m *mockProjectService) Reject(_ context.Context, id, _ string) (*dto.ProjectResponse, error) {
	return &dto.ProjectResponse{ID: id, Status: "REJECTED"}, m.approveErr
}
func (m *mockProjectService) UpdateStatus(_ context.Context, id string, req *dto.UpdateProjectStatusRequest, _, _ string) (*dto.ProjectResponse, error) {
	return &dto.ProjectResponse{ID: id, Status: req.Status}, nil
}
func (m *mockProjectService) Delete(_ context.Context, _, _ string) error {
	return m.deleteErr
}
func (m *mockProjectService) ProvisionRepository(_ context.Context, id, _ string) (*dto.CollabSyncEventResponse, error) {
	return &dto.CollabSyncEventResponse{ProjectID: id}, m.provisionErr
}

// ── Mock RoleService ──

type mockRoleService struct {
	createErr  error
	listResult []dto.RoleResponse
	listErr    error
	deleteErr  error
}

func (m *mockRoleService) CreateRole(_ context.Context, projectID string, req *dto.CreateRoleRequest, _ string) (*dto.RoleResponse, error) {
	return &dto.RoleResponse{ProjectID: projectID, Name: req.Name}, m.createErr
}
func (m *mockRoleService) ListRoles(_ context.Context, _ string) ([]dto.RoleResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockRoleService) DeleteRole(_ context.Context, _, _ string) error {
	return m.deleteErr
}

// ── Mock ApplicationService ──

type mockApplicationService struct {
	submitResult *dto.ApplicationResponse
	submitErr    error
	updateErr    error
	mineResult   []dto.ApplicationResponse

	gotStudentID string
}

func (m *mockApplicationService) Submit(_ context.Context, studentID string, _ *dto.SubmitApplicationRequest) (*dto.ApplicationResponse, error) {
	m.gotStudentID = studentID
	return m.submitResult, m.submitErr
}
func (m *mockApplicationService) UpdateStatus(_ context.Context, id string, req *dto.UpdateApplicationStatusRequest, _ string) (*dto.ApplicationResponse, error) {
	return &dto.ApplicationResponse{ID: id, Status: req.Status}, m.updateErr
}
func (m *mockApplicationService) ListMine(_ context.Context, _ string) ([]dto.ApplicationResponse, error) {
	return m.mineResult, nil
}
func (m *mockApplicationService) ListByProject(_ context.Context, _ string) ([]dto.ApplicationResponse, error) {
	return nil, nil
}

// ── Mock TeamService ──

type mockTeamService struct {
	getErr    error
	addErr    error
	removeErr error
}

func (m *mockTeamService) EnsureTeam(_ context.Context, projectID string) (*dto.TeamResponse, error) {
	return &dto.TeamResponse{ProjectID: projectID}, nil
}
func (m *mockTeamService) GetTeam(_ context.Context, projectID string) (*dto.TeamResponse, error) {
	return &dto.TeamResponse{ProjectID: projectID}, m.getErr
}
func (m *mockTeamService) AddMember(_ context.Context, _ string, req *dto.AddMemberRequest) (*dto.TeamMemberResponse, error) {
	return &dto.TeamMemberResponse{StudentID: req.StudentID, RoleID: req.RoleID}, m.addErr
}
func (m *mockTeamService) RemoveMember(_ context.Context, _, _ string) error {
	return m.removeErr
}

// ── Mock TaskService ──

type mockTaskService struct {
	updateErr error
	submitErr error
	reviewErr error
}

func (m *mockTaskService) Create(_ context.Context, projectID string, req *dto.CreateTaskRequest, _ string) (*dto.TaskResponse, error) {
	return &dto.TaskResponse{ProjectID: projectID, Title: req.Title}, nil
}
func (m *mockTaskService) ListByProject(_ context.Context, _ string) ([]dto.TaskResponse, error) {
	return nil, nil
}
func (m *mockTaskService) ListMine(_ context.Context, _ string) ([]dto.TaskResponse, error) {
	return nil, nil
}
func (m *mockTaskService) UpdateStatus(_ context.Context, id string, req *dto.UpdateTaskStatusRequest, _ string) (*dto.TaskResponse, error) {
	return &dto.TaskResponse{ID: id, Status: req.Status}, m.updateErr
}
func (m *mockTaskService) SubmitWork(_ context.Context, taskID string, _ *dto.SubmitWorkRequest, _ string) (*dto.SubmissionResponse, error) {
	return &dto.SubmissionResponse{TaskID: taskID}, m.submitErr
}
func (m *mockTaskService) ReviewSubmission(_ context.Context, id string, _ *dto.ReviewSubmissionRequest, _ string) (*dto.SubmissionResponse, error) {
	return &dto.SubmissionResponse{ID: id}, m.reviewErr
}

// ── Mock SalaryService ──

type mockSalaryService struct {
	fundErr       error
	distResult    []dto.DistributionResponse
	distErr       error
	confirmResult *dto.PaymentResponse
	confirmErr    error
	buf           *bytes.Buffer
	filename      string
	exportErr     error
}

func (m *mockSalaryService) Fund(_ context.Context, projectID, _ string) (*dto.PaymentResponse, error) {
	return &dto.PaymentResponse{ProjectID: projectID, Type: "PROJECT_BUDGET"}, m.fundErr
}
func (m *mockSalaryService) Distribute(_ context.Context, _, _ string) ([]dto.DistributionResponse, error) {
	return m.distResult, m.distErr
}
func (m *mockSalaryService) Confirm(_ context.Context, _ string, _ *dto.ConfirmPaymentRequest, _ string) (*dto.PaymentResponse, error) {
	return m.confirmResult, m.confirmErr
}
func (m *mockSalaryService) ListPayments(_ context.Context, _ string) ([]dto.PaymentResponse, error) {
	return nil, nil
}
func (m *mockSalaryService) ExportDistribution(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.exportErr
}

// ── Mock CollabSyncService ──

type mockCollabSyncService struct {
	listErr     error
	retryResult *dto.RetrySyncResponse
	gotLimit    int
}

func (m *mockCollabSyncService) ListEvents(_ context.Context, _ string) ([]dto.CollabSyncEventResponse, error) {
	return nil, m.listErr
}
func (m *mockCollabSyncService) RetryFailed(_ context.Context, req *dto.RetrySyncRequest) (*dto.RetrySyncResponse, error) {
	m.gotLimit = req.Limit
	return m.retryResult, nil
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupGin() (*gin.Engine, *gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, r := gin.CreateTestContext(w)
	return r, c, w
}

func setAuth(c *gin.Context) {
	setAuthAs(c, "test-user-id", "admin")
}

func setAuthAs(c *gin.Context, userID, role string) {
	c.Set("user_id", userID)
	c.Set("role", role)
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// serve 注册单个路由并以已认证身份发起请求
func serve(method, route, target string, body io.Reader, h gin.HandlerFunc) *httptest.ResponseRecorder {
	_, _, w := setupGin()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r := gin.New()
	r.Handle(method, route, func(c *gin.Context) {
		setAuth(c)
		h(c)
	})
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// ProjectHandler Tests
// ═══════════════════════════════════════════════════════════

func TestProjectHandler_CreateProject_Success(t *testing.T) {
	mock := &mockProjectService{createResult: &dto.ProjectResponse{ID: "p1", Status: "PENDING"}}
	h := NewProjectHandler(mock, &mockRoleService{})

	w := serve("POST", "/projects", "/projects", jsonBody(map[string]interface{}{
		"title":    "校园二手平台",
		"budget":   "5000",
		"deadline": "2026-12-01T00:00:00Z",
	}), h.CreateProject)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if mock.gotCallerRole != "admin" {
		t.Errorf("调用方角色应透传给服务层，实际 %q", mock.gotCallerRole)
	}
}

func TestProjectHandler_CreateProject_BadJSON(t *testing.T) {
	h := NewProjectHandler(&mockProjectService{}, &mockRoleService{})

	w := serve("POST", "/projects", "/projects", strings.NewReader("invalid json"), h.CreateProject)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 10001 {
		t.Errorf("expected error code 10001, got %d", resp.Code)
	}
}

func TestProjectHandler_CreateProject_Unauthenticated(t *testing.T) {
	h := NewProjectHandler(&mockProjectService{}, &mockRoleService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/projects", jsonBody(map[string]string{"title": "校园二手平台"}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/projects", h.CreateProject)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 10002 {
		t.Errorf("expected error code 10002, got %d", resp.Code)
	}
}

func TestProjectHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"项目不存在", service.ErrProjectNotFound, http.StatusNotFound, 20001},
		{"非所属客户", service.ErrNotProjectOwner, http.StatusForbidden, 20006},
		{"状态不允许", service.ErrInvalidProjectTransition, http.StatusConflict, 20007},
		{"存在依赖", service.ErrProjectHasDependents, http.StatusConflict, 20008},
		{"未归类错误", errors.New("db down"), http.StatusInternalServerError, 50000},
		{"类别兜底", fmt.Errorf("其他约束: %w", pkgerrors.ErrInvariantViolation), http.StatusConflict, 10006},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewProjectHandler(&mockProjectService{deleteErr: tt.err}, &mockRoleService{})

			w := serve("DELETE", "/projects/:id", "/projects/p1", nil, h.DeleteProject)

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected error code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestProjectHandler_ApproveProject(t *testing.T) {
	h := NewProjectHandler(&mockProjectService{}, &mockRoleService{})

	w := serve("PUT", "/projects/:id/approve", "/projects/p1/approve", nil, h.ApproveProject)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data dto.ProjectResponse `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Status != "OPEN" {
		t.Errorf("expected status OPEN, got %s", body.Data.Status)
	}
}

func TestProjectHandler_ProvisionRepository_Exists(t *testing.T) {
	h := NewProjectHandler(&mockProjectService{provisionErr: service.ErrRepositoryExists}, &mockRoleService{})

	w := serve("POST", "/projects/:id/repository", "/projects/p1/repository", nil, h.ProvisionRepository)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 20011 {
		t.Errorf("expected error code 20011, got %d", resp.Code)
	}
}

func TestProjectHandler_CreateRole_SplitExceeded(t *testing.T) {
	h := NewProjectHandler(&mockProjectService{}, &mockRoleService{createErr: service.ErrSalarySplitExceeded})

	w := serve("POST", "/projects/:id/roles", "/projects/p1/roles", jsonBody(map[string]string{
		"name":         "后端",
		"salary_split": "60",
	}), h.CreateRole)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 21003 {
		t.Errorf("expected error code 21003, got %d", resp.Code)
	}
}

func TestProjectHandler_ListRoles_WrapsList(t *testing.T) {
	mock := &mockRoleService{listResult: []dto.RoleResponse{{ID: "r1"}, {ID: "r2"}}}
	h := NewProjectHandler(&mockProjectService{}, mock)

	w := serve("GET", "/projects/:id/roles", "/projects/p1/roles", nil, h.ListRoles)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data struct {
			List []dto.RoleResponse `json:"list"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Data.List) != 2 {
		t.Errorf("expected 2 roles, got %d", len(body.Data.List))
	}
}

func TestProjectHandler_DeleteRole_Staffed(t *testing.T) {
	h := NewProjectHandler(&mockProjectService{}, &mockRoleService{deleteErr: service.ErrRoleStaffed})

	w := serve("DELETE", "/roles/:id", "/roles/r1", nil, h.DeleteRole)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 21004 {
		t.Errorf("expected error code 21004, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ApplicationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestApplicationHandler_Submit_Success(t *testing.T) {
	mock := &mockApplicationService{submitResult: &dto.ApplicationResponse{ID: "a1", Status: "PENDING"}}
	h := NewApplicationHandler(mock)

	w := serve("POST", "/applications", "/applications", jsonBody(dto.SubmitApplicationRequest{RoleID: testRoleID}), h.SubmitApplication)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if mock.gotStudentID != "test-user-id" {
		t.Errorf("学生ID应取自认证上下文，实际 %q", mock.gotStudentID)
	}
}

func TestApplicationHandler_Submit_InvalidRoleID(t *testing.T) {
	h := NewApplicationHandler(&mockApplicationService{})

	w := serve("POST", "/applications", "/applications", jsonBody(dto.SubmitApplicationRequest{RoleID: "not-a-uuid"}), h.SubmitApplication)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestApplicationHandler_Submit_EngagementConflict(t *testing.T) {
	conflict := &service.EngagementConflictError{ProjectID: "p1", ProjectTitle: "校园二手平台"}
	h := NewApplicationHandler(&mockApplicationService{submitErr: conflict})

	w := serve("POST", "/applications", "/applications", jsonBody(dto.SubmitApplicationRequest{RoleID: testRoleID}), h.SubmitApplication)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 22003 {
		t.Errorf("expected error code 22003, got %d", resp.Code)
	}
	details, ok := resp.Details.(map[string]interface{})
	if !ok || details["project_id"] != "p1" || details["project_title"] != "校园二手平台" {
		t.Errorf("details 应包含占用方项目，实际 %v", resp.Details)
	}
}

func TestApplicationHandler_Submit_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"未完善档案", service.ErrProfileMissing, http.StatusBadRequest, 22002},
		{"岗位已满", service.ErrRoleFilled, http.StatusConflict, 22004},
		{"重复投递", service.ErrDuplicateApplication, http.StatusConflict, 22005},
		{"岗位不存在", service.ErrRoleNotFound, http.StatusNotFound, 21001},
		{"项目未开放", service.ErrProjectNotOpen, http.StatusConflict, 20009},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewApplicationHandler(&mockApplicationService{submitErr: tt.err})

			w := serve("POST", "/applications", "/applications", jsonBody(dto.SubmitApplicationRequest{RoleID: testRoleID}), h.SubmitApplication)

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected error code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestApplicationHandler_UpdateStatus(t *testing.T) {
	h := NewApplicationHandler(&mockApplicationService{})

	w := serve("PUT", "/applications/:id/status", "/applications/a1/status", jsonBody(dto.UpdateApplicationStatusRequest{Status: "ACCEPTED"}), h.UpdateApplicationStatus)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	// PENDING 不是合法的审核目标
	w = serve("PUT", "/applications/:id/status", "/applications/a1/status", jsonBody(dto.UpdateApplicationStatusRequest{Status: "PENDING"}), h.UpdateApplicationStatus)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestApplicationHandler_UpdateStatus_InvalidTransition(t *testing.T) {
	h := NewApplicationHandler(&mockApplicationService{updateErr: service.ErrInvalidApplicationTransition})

	w := serve("PUT", "/applications/:id/status", "/applications/a1/status", jsonBody(dto.UpdateApplicationStatusRequest{Status: "REJECTED"}), h.UpdateApplicationStatus)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 22007 {
		t.Errorf("expected error code 22007, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// TeamHandler / TaskHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTeamHandler_GetTeam_NotFound(t *testing.T) {
	h := NewTeamHandler(&mockTeamService{getErr: service.ErrTeamNotFound})

	w := serve("GET", "/projects/:id/team", "/projects/p1/team", nil, h.GetTeam)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 23001 {
		t.Errorf("expected error code 23001, got %d", resp.Code)
	}
}

func TestTeamHandler_AddMember_AlreadyStaffed(t *testing.T) {
	h := NewTeamHandler(&mockTeamService{addErr: service.ErrRoleAlreadyStaffed})

	w := serve("POST", "/projects/:id/team/members", "/projects/p1/team/members", jsonBody(dto.AddMemberRequest{
		StudentID: "0b6e2d8c-7c55-4c1e-8d0f-5d9a7d1e3a21",
		RoleID:    testRoleID,
	}), h.AddMember)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 23005 {
		t.Errorf("expected error code 23005, got %d", resp.Code)
	}
}

func TestTeamHandler_RemoveMember(t *testing.T) {
	h := NewTeamHandler(&mockTeamService{})

	w := serve("DELETE", "/projects/:id/team/members/:student_id", "/projects/p1/team/members/stu-1", nil, h.RemoveMember)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestTaskHandler_UpdateStatus_NotAssignee(t *testing.T) {
	h := NewTaskHandler(&mockTaskService{updateErr: service.ErrNotTaskAssignee})

	w := serve("PUT", "/tasks/:id/status", "/tasks/t1/status", jsonBody(dto.UpdateTaskStatusRequest{Status: "IN_PROGRESS"}), h.UpdateTaskStatus)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 24003 {
		t.Errorf("expected error code 24003, got %d", resp.Code)
	}
}

func TestTaskHandler_ReviewSubmission(t *testing.T) {
	h := NewTaskHandler(&mockTaskService{reviewErr: service.ErrSubmissionReviewed})

	// approved 缺失时参数校验失败
	w := serve("PUT", "/submissions/:id/review", "/submissions/s1/review", jsonBody(map[string]string{"feedback": "ok"}), h.ReviewSubmission)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	w = serve("PUT", "/submissions/:id/review", "/submissions/s1/review", jsonBody(map[string]bool{"approved": true}), h.ReviewSubmission)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 24005 {
		t.Errorf("expected error code 24005, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// SalaryHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSalaryHandler_Distribute_AlreadyDistributed(t *testing.T) {
	h := NewSalaryHandler(&mockSalaryService{distErr: service.ErrSalaryAlreadyDistributed})

	w := serve("POST", "/projects/:id/salary/distribute", "/projects/p1/salary/distribute", nil, h.DistributeSalary)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 25003 {
		t.Errorf("expected error code 25003, got %d", resp.Code)
	}
}

func TestSalaryHandler_ConfirmPayment(t *testing.T) {
	mock := &mockSalaryService{confirmResult: &dto.PaymentResponse{ID: "pay-1", Status: "COMPLETED", ReferenceID: "REF1"}}
	h := NewSalaryHandler(mock)

	w := serve("PUT", "/payments/:id/confirm", "/payments/pay-1/confirm", jsonBody(dto.ConfirmPaymentRequest{ReferenceID: "REF1"}), h.ConfirmPayment)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	w = serve("PUT", "/payments/:id/confirm", "/payments/pay-1/confirm", jsonBody(dto.ConfirmPaymentRequest{}), h.ConfirmPayment)
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺少流水号 expected 400, got %d", w.Code)
	}

	mock.confirmErr = service.ErrPaymentNotFound
	w = serve("PUT", "/payments/:id/confirm", "/payments/missing/confirm", jsonBody(dto.ConfirmPaymentRequest{ReferenceID: "REF1"}), h.ConfirmPayment)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestSalaryHandler_ExportDistribution_Success(t *testing.T) {
	mock := &mockSalaryService{
		buf:      bytes.NewBufferString("fake-excel-content"),
		filename: "薪酬分配_校园二手平台.xlsx",
	}
	h := NewSalaryHandler(mock)

	w := serve("GET", "/projects/:id/salary/export", "/projects/p1/salary/export", nil, h.ExportDistribution)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename*=UTF-8''") {
		t.Errorf("unexpected content disposition %s", cd)
	}
	if w.Body.String() != "fake-excel-content" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestSalaryHandler_ExportDistribution_NoDistribution(t *testing.T) {
	h := NewSalaryHandler(&mockSalaryService{exportErr: service.ErrNoDistribution})

	w := serve("GET", "/projects/:id/salary/export", "/projects/p1/salary/export", nil, h.ExportDistribution)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 25004 {
		t.Errorf("expected error code 25004, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// CollabSyncHandler Tests
// ═══════════════════════════════════════════════════════════

func TestCollabSyncHandler_RetryFailed(t *testing.T) {
	mock := &mockCollabSyncService{retryResult: &dto.RetrySyncResponse{Retried: 2, Succeeded: 1, Failed: 1}}
	h := NewCollabSyncHandler(mock)

	w := serve("POST", "/sync-events/retry", "/sync-events/retry", nil, h.RetryFailed)
	if w.Code != http.StatusOK {
		t.Fatalf("空请求体 expected 200, got %d", w.Code)
	}
	if mock.gotLimit != 0 {
		t.Errorf("空请求体应使用默认 limit，实际 %d", mock.gotLimit)
	}

	w = serve("POST", "/sync-events/retry", "/sync-events/retry", jsonBody(dto.RetrySyncRequest{Limit: 5}), h.RetryFailed)
	if w.Code != http.StatusOK || mock.gotLimit != 5 {
		t.Errorf("expected 200 with limit 5, got %d / %d", w.Code, mock.gotLimit)
	}

	w = serve("POST", "/sync-events/retry", "/sync-events/retry", jsonBody(dto.RetrySyncRequest{Limit: 1000}), h.RetryFailed)
	if w.Code != http.StatusBadRequest {
		t.Errorf("limit 超限 expected 400, got %d", w.Code)
	}
}

func TestCollabSyncHandler_ListEvents_ProjectNotFound(t *testing.T) {
	h := NewCollabSyncHandler(&mockCollabSyncService{listErr: service.ErrProjectNotFound})

	w := serve("GET", "/projects/:id/sync-events", "/projects/missing/sync-events", nil, h.ListEvents)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRespondByCategory(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   int
		wantMsg    string
	}{
		{fmt.Errorf("名称过长: %w", pkgerrors.ErrValidation), http.StatusBadRequest, 10001, "名称过长"},
		{fmt.Errorf("记录缺失: %w", pkgerrors.ErrNotFound), http.StatusNotFound, 10005, "记录缺失"},
		{fmt.Errorf("状态不对: %w", pkgerrors.ErrInvalidTransition), http.StatusConflict, 10006, "状态不对"},
		{fmt.Errorf("越权: %w", pkgerrors.ErrUnauthorized), http.StatusForbidden, 10003, "越权"},
		{fmt.Errorf("同步失败: %w", pkgerrors.ErrExternalSync), http.StatusInternalServerError, 50000, "服务器内部错误"},
	}

	for _, tt := range tests {
		_, c, w := setupGin()
		respondByCategory(c, tt.err)

		if w.Code != tt.wantStatus {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.wantStatus, w.Code)
		}
		resp := parseResponse(w)
		if resp.Code != tt.wantCode || resp.Message != tt.wantMsg {
			t.Errorf("%v: expected %d/%s, got %d/%s", tt.err, tt.wantCode, tt.wantMsg, resp.Code, resp.Message)
		}
	}
}
