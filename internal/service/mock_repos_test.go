package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-works/config"
	"campus-works/internal/collab"
	"campus-works/internal/model"
	"campus-works/internal/repository"
)

// ── 内存存储 ──
// 各 mock Repository 共享同一份数据，联表查询（如进行中任职）才能得到与数据库一致的结果

// 与开启 TranslateError 的 GORM 行为一致
var errMockDuplicateKey = gorm.ErrDuplicatedKey

type memStore struct {
	seq         int
	users       map[string]*model.User
	profiles    map[string]*model.StudentProfile // key: user_id
	projects    map[string]*model.Project
	deleted     map[string]bool
	roles       map[string]*model.ProjectRole
	apps        map[string]*model.Application
	teams       map[string]*model.Team // key: team_id
	members     map[string]*model.TeamMember
	tasks       map[string]*model.Task
	submissions map[string]*model.Submission
	payments    map[string]*model.Payment
	events      map[string]*model.CollabSyncEvent

	claimErr       error
	projectReadErr error // 仅作用于非加锁的项目查询
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]*model.User),
		profiles:    make(map[string]*model.StudentProfile),
		projects:    make(map[string]*model.Project),
		deleted:     make(map[string]bool),
		roles:       make(map[string]*model.ProjectRole),
		apps:        make(map[string]*model.Application),
		teams:       make(map[string]*model.Team),
		members:     make(map[string]*model.TeamMember),
		tasks:       make(map[string]*model.Task),
		submissions: make(map[string]*model.Submission),
		payments:    make(map[string]*model.Payment),
		events:      make(map[string]*model.CollabSyncEvent),
	}
}

// stamp 分配 ID 与递增的创建时间，列表按创建时间排序
func (s *memStore) stamp(prefix string, id *string, base *model.BaseModel) {
	s.seq++
	if *id == "" {
		*id = fmt.Sprintf("%s-%d", prefix, s.seq)
	}
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Second)
	base.CreatedAt = ts
	base.UpdatedAt = ts
}

func newTestRepo(st *memStore) *repository.Repository {
	return &repository.Repository{
		User:           &mockUserRepo{st},
		StudentProfile: &mockProfileRepo{st},
		Project:        &mockProjectRepo{st},
		ProjectRole:    &mockRoleRepo{st},
		Application:    &mockApplicationRepo{st},
		Team:           &mockTeamRepo{st},
		TeamMember:     &mockTeamMemberRepo{st},
		Task:           &mockTaskRepo{st},
		Submission:     &mockSubmissionRepo{st},
		Payment:        &mockPaymentRepo{st},
		CollabSync:     &mockCollabSyncRepo{st},
	}
}

// ── 种子数据 ──

func (s *memStore) addUser(id, role string) *model.User {
	u := &model.User{UserID: id, Name: "name-" + id, Email: id + "@example.com", Role: role}
	s.users[id] = u
	return u
}

func (s *memStore) addStudent(id, handle string) *model.User {
	u := s.addUser(id, model.RoleStudent)
	p := &model.StudentProfile{ProfileID: "profile-" + id, UserID: id}
	if handle != "" {
		p.GithubUsername = &handle
	}
	s.profiles[id] = p
	return u
}

func (s *memStore) addProject(id, clientID string, status model.ProjectStatus, budget string) *model.Project {
	p := &model.Project{
		ProjectID: id,
		ClientID:  clientID,
		Title:     "title-" + id,
		Status:    status,
		Budget:    decimal.RequireFromString(budget),
		Deadline:  time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	s.stamp("project", &p.ProjectID, &p.BaseModel)
	s.projects[p.ProjectID] = p
	return p
}

func (s *memStore) addRole(id, projectID, split string) *model.ProjectRole {
	r := &model.ProjectRole{RoleID: id, ProjectID: projectID, Name: "role-" + id, SalarySplit: decimal.RequireFromString(split)}
	s.stamp("role", &r.RoleID, &r.BaseModel)
	s.roles[r.RoleID] = r
	return r
}

func (s *memStore) addApplication(id, studentID, roleID string, status model.ApplicationStatus) *model.Application {
	a := &model.Application{ApplicationID: id, StudentID: studentID, RoleID: roleID, Status: status}
	s.stamp("app", &a.ApplicationID, &a.BaseModel)
	s.apps[a.ApplicationID] = a
	return a
}

func (s *memStore) addTask(projectID string, assignedTo *string) *model.Task {
	t := &model.Task{ProjectID: projectID, Title: "task", Status: model.TaskTodo, AssignedTo: assignedTo}
	s.stamp("task", &t.TaskID, &t.BaseModel)
	s.tasks[t.TaskID] = t
	return t
}

func (s *memStore) setRepository(projectID, owner, name string) {
	url := "https://github.com/" + owner + "/" + name
	p := s.projects[projectID]
	p.RepoURL, p.RepoOwner, p.RepoName = &url, &owner, &name
}

func (s *memStore) membersOf(projectID string) []model.TeamMember {
	var out []model.TeamMember
	for _, t := range s.teams {
		if t.ProjectID != projectID {
			continue
		}
		for _, m := range s.members {
			if m.TeamID == t.TeamID {
				out = append(out, *m)
			}
		}
	}
	return out
}

func (s *memStore) paymentsOf(projectID string, typ model.PaymentType) []*model.Payment {
	var out []*model.Payment
	for _, p := range s.payments {
		if p.ProjectID == projectID && (typ == "" || p.Type == typ) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ── 关联装配（返回副本，模拟数据库读取） ──

func (s *memStore) roleWithProject(id string) (*model.ProjectRole, bool) {
	r, ok := s.roles[id]
	if !ok {
		return nil, false
	}
	cp := *r
	if p, ok := s.projects[r.ProjectID]; ok && !s.deleted[p.ProjectID] {
		pc := *p
		cp.Project = &pc
	}
	return &cp, true
}

func (s *memStore) appWithDetails(a *model.Application) *model.Application {
	cp := *a
	if u, ok := s.users[a.StudentID]; ok {
		uc := *u
		cp.Student = &uc
	}
	if r, ok := s.roleWithProject(a.RoleID); ok {
		cp.Role = r
	}
	return &cp
}

// ── Mock UserRepository ──

type mockUserRepo struct{ st *memStore }

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.st.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock StudentProfileRepository ──

type mockProfileRepo struct{ st *memStore }

func (m *mockProfileRepo) GetByUserID(_ context.Context, userID string) (*model.StudentProfile, error) {
	p, ok := m.st.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	if u, ok := m.st.users[userID]; ok {
		uc := *u
		cp.User = &uc
	}
	return &cp, nil
}

func (m *mockProfileRepo) LockByUserID(ctx context.Context, userID string) (*model.StudentProfile, error) {
	return m.GetByUserID(ctx, userID)
}

// ── Mock ProjectRepository ──

type mockProjectRepo struct{ st *memStore }

func (m *mockProjectRepo) Create(_ context.Context, project *model.Project) error {
	m.st.stamp("project", &project.ProjectID, &project.BaseModel)
	cp := *project
	cp.Client = nil
	m.st.projects[project.ProjectID] = &cp
	return nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	if m.st.projectReadErr != nil {
		return nil, m.st.projectReadErr
	}
	return m.get(id)
}

func (m *mockProjectRepo) get(id string) (*model.Project, error) {
	p, ok := m.st.projects[id]
	if !ok || m.st.deleted[id] {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	if u, ok := m.st.users[p.ClientID]; ok {
		uc := *u
		cp.Client = &uc
	}
	return &cp, nil
}

func (m *mockProjectRepo) GetByIDForUpdate(_ context.Context, id string) (*model.Project, error) {
	return m.get(id)
}

func (m *mockProjectRepo) GetWithRoles(ctx context.Context, id string) (*model.Project, error) {
	p, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	roles, _ := (&mockRoleRepo{m.st}).ListByProject(ctx, id)
	p.Roles = roles
	return p, nil
}

func (m *mockProjectRepo) List(_ context.Context, filters *repository.ProjectListFilters, offset, limit int) ([]model.Project, int64, error) {
	var all []model.Project
	for id, p := range m.st.projects {
		if m.st.deleted[id] {
			continue
		}
		if filters != nil && filters.Status != "" && string(p.Status) != filters.Status {
			continue
		}
		if filters != nil && filters.ClientID != "" && p.ClientID != filters.ClientID {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.Project{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockProjectRepo) Update(_ context.Context, project *model.Project) error {
	cp := *project
	cp.Client, cp.Roles = nil, nil
	m.st.projects[project.ProjectID] = &cp
	return nil
}

func (m *mockProjectRepo) UpdateRepository(_ context.Context, id, url, name, owner string) error {
	p, ok := m.st.projects[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.RepoURL, p.RepoName, p.RepoOwner = &url, &name, &owner
	return nil
}

func (m *mockProjectRepo) Delete(_ context.Context, id string, _ string) error {
	m.st.deleted[id] = true
	return nil
}

// ── Mock ProjectRoleRepository ──

type mockRoleRepo struct{ st *memStore }

func (m *mockRoleRepo) Create(_ context.Context, role *model.ProjectRole) error {
	m.st.stamp("role", &role.RoleID, &role.BaseModel)
	cp := *role
	m.st.roles[role.RoleID] = &cp
	return nil
}

func (m *mockRoleRepo) GetByID(_ context.Context, id string) (*model.ProjectRole, error) {
	if r, ok := m.st.roleWithProject(id); ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoleRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.ProjectRole, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRoleRepo) ListByProject(_ context.Context, projectID string) ([]model.ProjectRole, error) {
	var out []model.ProjectRole
	for _, r := range m.st.roles {
		if r.ProjectID == projectID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockRoleRepo) SumSalarySplit(_ context.Context, projectID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, r := range m.st.roles {
		if r.ProjectID == projectID {
			sum = sum.Add(r.SalarySplit)
		}
	}
	return sum, nil
}

func (m *mockRoleRepo) Delete(_ context.Context, id string) error {
	delete(m.st.roles, id)
	for appID, a := range m.st.apps {
		if a.RoleID == id {
			delete(m.st.apps, appID)
		}
	}
	return nil
}

// ── Mock ApplicationRepository ──

type mockApplicationRepo struct{ st *memStore }

func (m *mockApplicationRepo) Create(_ context.Context, app *model.Application) error {
	for _, a := range m.st.apps {
		if a.StudentID == app.StudentID && a.RoleID == app.RoleID {
			return errMockDuplicateKey
		}
	}
	m.st.stamp("app", &app.ApplicationID, &app.BaseModel)
	cp := *app
	cp.Student, cp.Role = nil, nil
	m.st.apps[app.ApplicationID] = &cp
	return nil
}

func (m *mockApplicationRepo) GetByID(_ context.Context, id string) (*model.Application, error) {
	if a, ok := m.st.apps[id]; ok {
		return m.st.appWithDetails(a), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Application, error) {
	return m.GetByID(ctx, id)
}

func (m *mockApplicationRepo) UpdateStatus(_ context.Context, id string, status model.ApplicationStatus, updatedBy string) error {
	a, ok := m.st.apps[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status == model.ApplicationAccepted {
		for _, other := range m.st.apps {
			if other.ApplicationID != id && other.RoleID == a.RoleID && other.Status == model.ApplicationAccepted {
				return errMockDuplicateKey
			}
		}
	}
	a.Status = status
	a.UpdatedBy = &updatedBy
	return nil
}

func (m *mockApplicationRepo) FindAcceptedByRole(_ context.Context, roleID string) (*model.Application, error) {
	for _, a := range m.st.apps {
		if a.RoleID == roleID && a.Status == model.ApplicationAccepted {
			return m.st.appWithDetails(a), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) FindByStudentAndRole(_ context.Context, studentID, roleID string) (*model.Application, error) {
	for _, a := range m.st.apps {
		if a.StudentID == studentID && a.RoleID == roleID {
			return m.st.appWithDetails(a), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) FindActiveEngagement(_ context.Context, studentID string) (*model.Application, error) {
	for _, a := range m.st.apps {
		if a.StudentID != studentID || a.Status != model.ApplicationAccepted {
			continue
		}
		full := m.st.appWithDetails(a)
		if full.Role == nil || full.Role.Project == nil || full.Role.Project.Status.IsTerminal() {
			continue
		}
		return full, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) list(match func(*model.Application) bool) []model.Application {
	var out []model.Application
	for _, a := range m.st.apps {
		full := m.st.appWithDetails(a)
		if match(full) {
			out = append(out, *full)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *mockApplicationRepo) ListByStudent(_ context.Context, studentID string) ([]model.Application, error) {
	return m.list(func(a *model.Application) bool { return a.StudentID == studentID }), nil
}

func (m *mockApplicationRepo) ListByProject(_ context.Context, projectID string) ([]model.Application, error) {
	return m.list(func(a *model.Application) bool { return a.Role != nil && a.Role.ProjectID == projectID }), nil
}

func (m *mockApplicationRepo) CountAcceptedByRole(_ context.Context, roleID string) (int64, error) {
	var n int64
	for _, a := range m.st.apps {
		if a.RoleID == roleID && a.Status == model.ApplicationAccepted {
			n++
		}
	}
	return n, nil
}

// ── Mock TeamRepository ──

type mockTeamRepo struct{ st *memStore }

func (m *mockTeamRepo) GetByProject(_ context.Context, projectID string) (*model.Team, error) {
	for _, t := range m.st.teams {
		if t.ProjectID != projectID {
			continue
		}
		cp := *t
		cp.Members = nil
		for _, mem := range m.st.membersOf(projectID) {
			mc := mem
			if u, ok := m.st.users[mc.StudentID]; ok {
				uc := *u
				mc.Student = &uc
			}
			if r, ok := m.st.roles[mc.RoleID]; ok {
				rc := *r
				mc.Role = &rc
			}
			cp.Members = append(cp.Members, mc)
		}
		sort.Slice(cp.Members, func(i, j int) bool { return cp.Members[i].CreatedAt.Before(cp.Members[j].CreatedAt) })
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeamRepo) CreateIfAbsent(_ context.Context, team *model.Team) error {
	for _, t := range m.st.teams {
		if t.ProjectID == team.ProjectID {
			return nil
		}
	}
	m.st.stamp("team", &team.TeamID, &team.BaseModel)
	cp := *team
	m.st.teams[team.TeamID] = &cp
	return nil
}

// ── Mock TeamMemberRepository ──

type mockTeamMemberRepo struct{ st *memStore }

func (m *mockTeamMemberRepo) Create(_ context.Context, member *model.TeamMember) error {
	for _, existing := range m.st.members {
		if existing.TeamID == member.TeamID && existing.RoleID == member.RoleID {
			return errMockDuplicateKey
		}
	}
	m.st.stamp("member", &member.MemberID, &member.BaseModel)
	cp := *member
	m.st.members[member.MemberID] = &cp
	return nil
}

func (m *mockTeamMemberRepo) find(match func(*model.TeamMember) bool) (*model.TeamMember, error) {
	for _, mem := range m.st.members {
		if match(mem) {
			cp := *mem
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeamMemberRepo) FindByTeamAndRole(_ context.Context, teamID, roleID string) (*model.TeamMember, error) {
	return m.find(func(mem *model.TeamMember) bool { return mem.TeamID == teamID && mem.RoleID == roleID })
}

func (m *mockTeamMemberRepo) FindByTeamAndStudent(_ context.Context, teamID, studentID string) (*model.TeamMember, error) {
	return m.find(func(mem *model.TeamMember) bool { return mem.TeamID == teamID && mem.StudentID == studentID })
}

func (m *mockTeamMemberRepo) ListByProject(_ context.Context, projectID string) ([]model.TeamMember, error) {
	return m.st.membersOf(projectID), nil
}

func (m *mockTeamMemberRepo) CountByProject(_ context.Context, projectID string) (int64, error) {
	return int64(len(m.st.membersOf(projectID))), nil
}

func (m *mockTeamMemberRepo) CountByRole(_ context.Context, roleID string) (int64, error) {
	var n int64
	for _, mem := range m.st.members {
		if mem.RoleID == roleID {
			n++
		}
	}
	return n, nil
}

func (m *mockTeamMemberRepo) Delete(_ context.Context, memberID string) error {
	delete(m.st.members, memberID)
	return nil
}

// ── Mock TaskRepository ──

type mockTaskRepo struct{ st *memStore }

func (m *mockTaskRepo) Create(_ context.Context, task *model.Task) error {
	m.st.stamp("task", &task.TaskID, &task.BaseModel)
	cp := *task
	m.st.tasks[task.TaskID] = &cp
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id string) (*model.Task, error) {
	if t, ok := m.st.tasks[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTaskRepo) list(match func(*model.Task) bool) []model.Task {
	var out []model.Task
	for _, t := range m.st.tasks {
		if match(t) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *mockTaskRepo) ListByProject(_ context.Context, projectID string) ([]model.Task, error) {
	return m.list(func(t *model.Task) bool { return t.ProjectID == projectID }), nil
}

func (m *mockTaskRepo) ListByAssignee(_ context.Context, studentID string) ([]model.Task, error) {
	return m.list(func(t *model.Task) bool { return t.AssignedTo != nil && *t.AssignedTo == studentID }), nil
}

func (m *mockTaskRepo) Update(_ context.Context, task *model.Task) error {
	cp := *task
	cp.Assignee = nil
	m.st.tasks[task.TaskID] = &cp
	return nil
}

func (m *mockTaskRepo) ClaimUnassigned(_ context.Context, projectID, studentID string) (int64, error) {
	if m.st.claimErr != nil {
		return 0, m.st.claimErr
	}
	var n int64
	for _, t := range m.st.tasks {
		if t.ProjectID == projectID && t.AssignedTo == nil {
			id := studentID
			t.AssignedTo = &id
			n++
		}
	}
	return n, nil
}

// ── Mock SubmissionRepository ──

type mockSubmissionRepo struct{ st *memStore }

func (m *mockSubmissionRepo) Create(_ context.Context, submission *model.Submission) error {
	m.st.stamp("submission", &submission.SubmissionID, &submission.BaseModel)
	cp := *submission
	m.st.submissions[submission.SubmissionID] = &cp
	return nil
}

func (m *mockSubmissionRepo) GetByID(_ context.Context, id string) (*model.Submission, error) {
	if s, ok := m.st.submissions[id]; ok {
		cp := *s
		if t, ok := m.st.tasks[s.TaskID]; ok {
			tc := *t
			cp.Task = &tc
		}
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubmissionRepo) Update(_ context.Context, submission *model.Submission) error {
	cp := *submission
	cp.Task = nil
	m.st.submissions[submission.SubmissionID] = &cp
	return nil
}

// ── Mock PaymentRepository ──

type mockPaymentRepo struct{ st *memStore }

func (m *mockPaymentRepo) Create(_ context.Context, payment *model.Payment) error {
	m.st.stamp("payment", &payment.PaymentID, &payment.BaseModel)
	cp := *payment
	m.st.payments[payment.PaymentID] = &cp
	return nil
}

func (m *mockPaymentRepo) GetByID(_ context.Context, id string) (*model.Payment, error) {
	if p, ok := m.st.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepo) ListByProject(_ context.Context, projectID string, paymentType model.PaymentType) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range m.st.paymentsOf(projectID, paymentType) {
		cp := *p
		if cp.ToUserID != nil {
			if u, ok := m.st.users[*cp.ToUserID]; ok {
				uc := *u
				cp.ToUser = &uc
			}
		}
		if cp.RoleID != nil {
			if r, ok := m.st.roles[*cp.RoleID]; ok {
				rc := *r
				cp.Role = &rc
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

func (m *mockPaymentRepo) CountByProjectAndType(_ context.Context, projectID string, paymentType model.PaymentType) (int64, error) {
	return int64(len(m.st.paymentsOf(projectID, paymentType))), nil
}

func (m *mockPaymentRepo) CountPendingByProject(_ context.Context, projectID string) (int64, error) {
	var n int64
	for _, p := range m.st.paymentsOf(projectID, "") {
		if p.Status == model.PaymentPending {
			n++
		}
	}
	return n, nil
}

func (m *mockPaymentRepo) Update(_ context.Context, payment *model.Payment) error {
	cp := *payment
	cp.ToUser, cp.Role = nil, nil
	m.st.payments[payment.PaymentID] = &cp
	return nil
}

// ── Mock CollabSyncRepository ──

type mockCollabSyncRepo struct{ st *memStore }

func (m *mockCollabSyncRepo) Create(_ context.Context, event *model.CollabSyncEvent) error {
	m.st.stamp("event", &event.EventID, &event.BaseModel)
	cp := *event
	m.st.events[event.EventID] = &cp
	return nil
}

func (m *mockCollabSyncRepo) list(match func(*model.CollabSyncEvent) bool) []model.CollabSyncEvent {
	var out []model.CollabSyncEvent
	for _, e := range m.st.events {
		if match(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *mockCollabSyncRepo) ListByProject(_ context.Context, projectID string) ([]model.CollabSyncEvent, error) {
	return m.list(func(e *model.CollabSyncEvent) bool { return e.ProjectID == projectID }), nil
}

func (m *mockCollabSyncRepo) ListByStatus(_ context.Context, status model.SyncStatus, limit int) ([]model.CollabSyncEvent, error) {
	out := m.list(func(e *model.CollabSyncEvent) bool { return e.Status == status })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockCollabSyncRepo) Update(_ context.Context, event *model.CollabSyncEvent) error {
	cp := *event
	m.st.events[event.EventID] = &cp
	return nil
}

// ── Mock collab.Provider ──

type mockProvider struct {
	createErr error
	addErr    error
	owner     string

	createCalls int
	addCalls    int
	added       []string // handle
}

func (p *mockProvider) CreateRepository(_ context.Context, name, _ string) (*collab.Repository, error) {
	p.createCalls++
	if p.createErr != nil {
		return nil, p.createErr
	}
	owner := p.owner
	if owner == "" {
		owner = "campus"
	}
	return &collab.Repository{URL: "https://github.com/" + owner + "/" + name, Name: name, Owner: owner}, nil
}

func (p *mockProvider) AddCollaborator(_ context.Context, _, _, handle string) error {
	p.addCalls++
	if p.addErr != nil {
		return p.addErr
	}
	p.added = append(p.added, handle)
	return nil
}

// ── 测试装配 ──

type testEnv struct {
	st       *memStore
	provider *mockProvider
	svc      *Service
}

// setupTestService 以内存存储装配全部 Service，collab 重试次数默认为 2
func setupTestService(opts ...func(*config.Config)) *testEnv {
	cfg := &config.Config{Collab: config.CollabConfig{MaxAttempts: 2}}
	for _, opt := range opts {
		opt(cfg)
	}
	st := newMemStore()
	provider := &mockProvider{}
	return &testEnv{
		st:       st,
		provider: provider,
		svc:      NewService(cfg, newTestRepo(st), provider, zap.NewNop()),
	}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
