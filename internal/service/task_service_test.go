package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"campus-works/internal/dto"
	"campus-works/internal/model"
)

func TestCreateTask(t *testing.T) {
	env := setupTestService()
	ctx := context.Background()
	seedOpenProject(env.st, "p1")
	env.st.addProject("p-done", "client-1", model.ProjectCompleted, "100")

	resp, err := env.svc.Task.Create(ctx, "p1", &dto.CreateTaskRequest{Title: "搭建 CI"}, "admin-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Status != string(model.TaskTodo) || resp.AssignedTo != "" {
		t.Errorf("新任务应为 TODO 且未认领，实际 %+v", resp)
	}

	if _, err := env.svc.Task.Create(ctx, "p-done", &dto.CreateTaskRequest{Title: "x"}, "admin-1"); !errors.Is(err, ErrProjectClosed) {
		t.Errorf("已完成项目期望 ErrProjectClosed，实际 %v", err)
	}
	if _, err := env.svc.Task.Create(ctx, "missing", &dto.CreateTaskRequest{Title: "x"}, "admin-1"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("期望 ErrProjectNotFound，实际 %v", err)
	}
}

func TestClaimUnassigned_RerunIsNoop(t *testing.T) {
	env := setupTestService()
	ctx := context.Background()
	env.st.addTask("p1", nil)
	env.st.addTask("p1", nil)
	repo := newTestRepo(env.st)
	ts := newTaskService(repo, zap.NewNop())

	n, err := ts.claimUnassigned(ctx, repo, "p1", "stu-1")
	if err != nil || n != 2 {
		t.Fatalf("首次认领期望 2 条，实际 n=%d err=%v", n, err)
	}
	n, err = ts.claimUnassigned(ctx, repo, "p1", "stu-2")
	if err != nil || n != 0 {
		t.Fatalf("再次认领应为空操作，实际 n=%d err=%v", n, err)
	}

	mine, _ := env.svc.Task.ListMine(ctx, "stu-1")
	if len(mine) != 2 {
		t.Errorf("stu-1 应持有 2 个任务，实际 %d", len(mine))
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    model.TaskStatus
		to      string
		caller  string
		wantErr error
	}{
		{name: "TODO→IN_PROGRESS", from: model.TaskTodo, to: "IN_PROGRESS", caller: "stu-1"},
		{name: "IN_PROGRESS→TODO", from: model.TaskInProgress, to: "TODO", caller: "stu-1"},
		{name: "相同状态为空操作", from: model.TaskTodo, to: "TODO", caller: "stu-1"},
		{name: "评审中不能手动变更", from: model.TaskInReview, to: "IN_PROGRESS", caller: "stu-1", wantErr: ErrInvalidTaskTransition},
		{name: "已完成不能重开", from: model.TaskCompleted, to: "TODO", caller: "stu-1", wantErr: ErrInvalidTaskTransition},
		{name: "非认领人", from: model.TaskTodo, to: "IN_PROGRESS", caller: "stu-2", wantErr: ErrNotTaskAssignee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestService()
			task := env.st.addTask("p1", strPtr("stu-1"))
			task.Status = tt.from

			resp, err := env.svc.Task.UpdateStatus(context.Background(), task.TaskID, &dto.UpdateTaskStatusRequest{Status: tt.to}, tt.caller)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("期望 %v，实际 %v", tt.wantErr, err)
			}
			if tt.wantErr == nil && resp.Status != tt.to {
				t.Errorf("期望状态 %s，实际 %s", tt.to, resp.Status)
			}
		})
	}
}

func TestSubmitAndReview(t *testing.T) {
	env := setupTestService()
	ctx := context.Background()
	task := env.st.addTask("p1", strPtr("stu-1"))

	if _, err := env.svc.Task.SubmitWork(ctx, task.TaskID, &dto.SubmitWorkRequest{Content: "PR #1"}, "stu-2"); !errors.Is(err, ErrNotTaskAssignee) {
		t.Errorf("非认领人提交期望 ErrNotTaskAssignee，实际 %v", err)
	}

	sub, err := env.svc.Task.SubmitWork(ctx, task.TaskID, &dto.SubmitWorkRequest{Content: "PR #1"}, "stu-1")
	if err != nil {
		t.Fatalf("SubmitWork 应成功: %v", err)
	}
	if env.st.tasks[task.TaskID].Status != model.TaskInReview {
		t.Errorf("提交后任务应为 IN_REVIEW，实际 %s", env.st.tasks[task.TaskID].Status)
	}
	if _, err := env.svc.Task.SubmitWork(ctx, task.TaskID, &dto.SubmitWorkRequest{Content: "again"}, "stu-1"); !errors.Is(err, ErrInvalidTaskTransition) {
		t.Errorf("评审中再次提交期望 ErrInvalidTaskTransition，实际 %v", err)
	}

	// 驳回退回 IN_PROGRESS
	reviewed, err := env.svc.Task.ReviewSubmission(ctx, sub.ID, &dto.ReviewSubmissionRequest{Approved: boolPtr(false), Feedback: "缺少测试"}, "admin-1")
	if err != nil {
		t.Fatalf("ReviewSubmission 应成功: %v", err)
	}
	if reviewed.Status != string(model.SubmissionRejected) || reviewed.ReviewedAt == "" {
		t.Errorf("驳回结果不正确，实际 %+v", reviewed)
	}
	if env.st.tasks[task.TaskID].Status != model.TaskInProgress {
		t.Errorf("驳回后任务应为 IN_PROGRESS，实际 %s", env.st.tasks[task.TaskID].Status)
	}
	if _, err := env.svc.Task.ReviewSubmission(ctx, sub.ID, &dto.ReviewSubmissionRequest{Approved: boolPtr(true)}, "admin-1"); !errors.Is(err, ErrSubmissionReviewed) {
		t.Errorf("重复审核期望 ErrSubmissionReviewed，实际 %v", err)
	}

	// 重新提交并通过
	sub, err = env.svc.Task.SubmitWork(ctx, task.TaskID, &dto.SubmitWorkRequest{Content: "PR #2"}, "stu-1")
	if err != nil {
		t.Fatalf("再次提交应成功: %v", err)
	}
	if _, err := env.svc.Task.ReviewSubmission(ctx, sub.ID, &dto.ReviewSubmissionRequest{Approved: boolPtr(true)}, "admin-1"); err != nil {
		t.Fatalf("审核通过应成功: %v", err)
	}
	if env.st.tasks[task.TaskID].Status != model.TaskCompleted {
		t.Errorf("通过后任务应为 COMPLETED，实际 %s", env.st.tasks[task.TaskID].Status)
	}

	if _, err := env.svc.Task.ReviewSubmission(ctx, "missing", &dto.ReviewSubmissionRequest{Approved: boolPtr(true)}, "admin-1"); !errors.Is(err, ErrSubmissionNotFound) {
		t.Errorf("期望 ErrSubmissionNotFound，实际 %v", err)
	}
}

func TestListTasksByProject(t *testing.T) {
	env := setupTestService()
	env.st.addTask("p1", nil)
	env.st.addTask("p1", strPtr("stu-1"))
	env.st.addTask("p2", nil)

	tasks, err := env.svc.Task.ListByProject(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ListByProject 应成功: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("期望 2 个任务，实际 %d", len(tasks))
	}
}
