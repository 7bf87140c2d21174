package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-works/internal/dto"
	"campus-works/internal/metrics"
	"campus-works/internal/model"
	"campus-works/internal/repository"
	pkgerrors "campus-works/pkg/errors"
)

// ── 薪酬模块业务错误 ──

var (
	ErrPaymentNotFound          = fmt.Errorf("付款记录不存在: %w", pkgerrors.ErrNotFound)
	ErrProjectAlreadyFunded     = fmt.Errorf("项目预算已入账: %w", pkgerrors.ErrInvariantViolation)
	ErrSalaryAlreadyDistributed = fmt.Errorf("项目薪酬已分配: %w", pkgerrors.ErrInvariantViolation)
	ErrNoDistribution           = fmt.Errorf("项目尚未分配薪酬: %w", pkgerrors.ErrNotFound)
	ErrExportGenerateFail       = errors.New("生成 Excel 文件失败")
)

// SalaryService 项目付款与薪酬分配业务接口（账本模拟，不接入真实支付）
type SalaryService interface {
	// Fund 客户为项目入账预算，每个项目一次
	Fund(ctx context.Context, projectID, clientID string) (*dto.PaymentResponse, error)
	// Distribute 按岗位分成生成待确认的薪酬付款，未录用的岗位跳过
	Distribute(ctx context.Context, projectID, callerID string) ([]dto.DistributionResponse, error)
	// Confirm 标记付款完成并记录外部流水号；重复确认覆盖流水号
	Confirm(ctx context.Context, paymentID string, req *dto.ConfirmPaymentRequest, callerID string) (*dto.PaymentResponse, error)
	ListPayments(ctx context.Context, projectID string) ([]dto.PaymentResponse, error)
	// ExportDistribution 导出薪酬分配表为 Excel
	ExportDistribution(ctx context.Context, projectID string) (*bytes.Buffer, string, error)
}

type salaryService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSalaryService 创建 SalaryService 实例
func NewSalaryService(repo *repository.Repository, logger *zap.Logger) SalaryService {
	return &salaryService{repo: repo, logger: logger}
}

// computeSalary 预算 × 分成百分比，四舍五入到分
func computeSalary(budget, split decimal.Decimal) decimal.Decimal {
	return budget.Mul(split).Div(hundred).Round(2)
}

// ────────────────────── Fund ──────────────────────

func (s *salaryService) Fund(ctx context.Context, projectID, clientID string) (*dto.PaymentResponse, error) {
	var payment *model.Payment

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		project, err := tx.Project.GetByIDForUpdate(ctx, projectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}
		if project.ClientID != clientID {
			return ErrNotProjectOwner
		}
		if project.Status.IsTerminal() || project.Status == model.ProjectRejected {
			return ErrProjectClosed
		}

		funded, err := tx.Payment.CountByProjectAndType(ctx, projectID, model.PaymentProjectBudget)
		if err != nil {
			return err
		}
		if funded > 0 {
			return ErrProjectAlreadyFunded
		}

		payment = &model.Payment{
			ProjectID:  projectID,
			Type:       model.PaymentProjectBudget,
			Status:     model.PaymentPending,
			Amount:     project.Budget,
			FromUserID: &clientID,
		}
		payment.StampCreated(clientID)
		return tx.Payment.Create(ctx, payment)
	})
	if err != nil {
		if pkgerrors.Category(err) == nil {
			s.logger.Error("项目预算入账失败", zap.String("project_id", projectID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("项目预算已入账",
		zap.String("project_id", projectID),
		zap.String("amount", payment.Amount.StringFixed(2)),
	)
	return toPaymentResponse(payment), nil
}

// ═══════════════════════════════════════════════════════════
// Distribute：薪酬分配
// ═══════════════════════════════════════════════════════════
//
// salary = round2(budget × salarySplit / 100)
// 每个已录用岗位写入一条 SALARY_DISTRIBUTION / PENDING 付款。
// 项目行加锁后检查是否已分配过，避免并发或重复分配产生双份付款。

func (s *salaryService) Distribute(ctx context.Context, projectID, callerID string) ([]dto.DistributionResponse, error) {
	var result []dto.DistributionResponse

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		project, err := tx.Project.GetByIDForUpdate(ctx, projectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}

		distributed, err := tx.Payment.CountByProjectAndType(ctx, projectID, model.PaymentSalaryDistribution)
		if err != nil {
			return err
		}
		if distributed > 0 {
			return ErrSalaryAlreadyDistributed
		}

		roles, err := tx.ProjectRole.ListByProject(ctx, projectID)
		if err != nil {
			return err
		}

		memberByRole := make(map[string]*model.TeamMember)
		team, err := tx.Team.GetByProject(ctx, projectID)
		switch {
		case err == nil:
			for i := range team.Members {
				memberByRole[team.Members[i].RoleID] = &team.Members[i]
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		result = make([]dto.DistributionResponse, 0, len(roles))
		for i := range roles {
			role := &roles[i]
			member, ok := memberByRole[role.RoleID]
			if !ok {
				continue
			}

			payment := &model.Payment{
				ProjectID: projectID,
				RoleID:    &role.RoleID,
				Type:      model.PaymentSalaryDistribution,
				Status:    model.PaymentPending,
				Amount:    computeSalary(project.Budget, role.SalarySplit),
				ToUserID:  &member.StudentID,
			}
			payment.StampCreated(callerID)
			if err := tx.Payment.Create(ctx, payment); err != nil {
				return err
			}

			row := dto.DistributionResponse{
				PaymentID: payment.PaymentID,
				Amount:    payment.Amount.StringFixed(2),
				RoleName:  role.Name,
				Status:    string(payment.Status),
			}
			if member.Student != nil {
				row.StudentName = member.Student.Name
				row.StudentEmail = member.Student.Email
			}
			result = append(result, row)
		}
		return nil
	})
	if err != nil {
		if pkgerrors.Category(err) == nil {
			s.logger.Error("薪酬分配失败", zap.String("project_id", projectID), zap.Error(err))
		}
		return nil, err
	}

	metrics.SalaryPaymentsWritten.Add(float64(len(result)))
	s.logger.Info("薪酬分配完成",
		zap.String("project_id", projectID),
		zap.Int("payments", len(result)),
	)
	return result, nil
}

// ────────────────────── Confirm ──────────────────────

func (s *salaryService) Confirm(ctx context.Context, paymentID string, req *dto.ConfirmPaymentRequest, callerID string) (*dto.PaymentResponse, error) {
	payment, err := s.repo.Payment.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		s.logger.Error("查询付款记录失败", zap.String("payment_id", paymentID), zap.Error(err))
		return nil, err
	}

	previous := deref(payment.ReferenceID)
	ref := req.ReferenceID
	payment.Status = model.PaymentCompleted
	payment.ReferenceID = &ref
	payment.StampUpdated(callerID)

	if err := s.repo.Payment.Update(ctx, payment); err != nil {
		s.logger.Error("确认付款失败", zap.String("payment_id", paymentID), zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{
		zap.String("payment_id", paymentID),
		zap.String("reference_id", ref),
	}
	if previous != "" && previous != ref {
		fields = append(fields, zap.String("previous_reference_id", previous))
	}
	s.logger.Info("付款已确认", fields...)
	return toPaymentResponse(payment), nil
}

// ────────────────────── ListPayments ──────────────────────

func (s *salaryService) ListPayments(ctx context.Context, projectID string) ([]dto.PaymentResponse, error) {
	if _, err := s.repo.Project.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	payments, err := s.repo.Payment.ListByProject(ctx, projectID, "")
	if err != nil {
		s.logger.Error("列出项目付款失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		result = append(result, *toPaymentResponse(&payments[i]))
	}
	return result, nil
}

// ────────────────────── ExportDistribution ──────────────────────

func (s *salaryService) ExportDistribution(ctx context.Context, projectID string) (*bytes.Buffer, string, error) {
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrProjectNotFound
		}
		return nil, "", err
	}

	payments, err := s.repo.Payment.ListByProject(ctx, projectID, model.PaymentSalaryDistribution)
	if err != nil {
		s.logger.Error("查询薪酬付款失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, "", err
	}
	if len(payments) == 0 {
		return nil, "", ErrNoDistribution
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "薪酬分配"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []interface{}{"付款ID", "岗位", "分成比例(%)", "学生", "邮箱", "金额", "状态", "流水号"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		s.logger.Error("写入表头失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "H1", headerStyle)

	total := decimal.Zero
	for i, p := range payments {
		roleName, split := "", ""
		if p.Role != nil {
			roleName = p.Role.Name
			split = p.Role.SalarySplit.StringFixed(2)
		}
		name, email := "", ""
		if p.ToUser != nil {
			name, email = p.ToUser.Name, p.ToUser.Email
		}
		amount, _ := p.Amount.Float64()
		row := []interface{}{p.PaymentID, roleName, split, name, email, amount, string(p.Status), deref(p.ReferenceID)}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			s.logger.Error("写入数据行失败", zap.Int("row", i+2), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		total = total.Add(p.Amount)
	}

	totalRow := len(payments) + 2
	totalAmount, _ := total.Float64()
	_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", totalRow), "合计")
	_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", totalRow), totalAmount)

	numStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	_ = f.SetCellStyle(sheet, "F2", fmt.Sprintf("F%d", totalRow), numStyle)
	_ = f.SetColWidth(sheet, "A", "A", 38)
	_ = f.SetColWidth(sheet, "B", "E", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("生成 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("薪酬分配_%s.xlsx", project.Title)
	return buf, filename, nil
}

func toPaymentResponse(p *model.Payment) *dto.PaymentResponse {
	resp := &dto.PaymentResponse{
		ID:          p.PaymentID,
		ProjectID:   p.ProjectID,
		RoleID:      deref(p.RoleID),
		Type:        string(p.Type),
		Status:      string(p.Status),
		Amount:      p.Amount.StringFixed(2),
		FromUserID:  deref(p.FromUserID),
		ToUserID:    deref(p.ToUserID),
		ToUser:      toUserBrief(p.ToUser),
		ReferenceID: deref(p.ReferenceID),
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
	if p.Role != nil {
		resp.RoleName = p.Role.Name
	}
	return resp
}
