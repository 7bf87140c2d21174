package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"campus-works/internal/dto"
	"campus-works/internal/service"
	"campus-works/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SalaryHandler 薪酬与付款 HTTP 处理器
type SalaryHandler struct {
	salarySvc service.SalaryService
}

// NewSalaryHandler 创建 SalaryHandler
func NewSalaryHandler(salarySvc service.SalaryService) *SalaryHandler {
	return &SalaryHandler{salarySvc: salarySvc}
}

// FundProject 客户为项目入账预算
// POST /api/v1/projects/:id/fund
func (h *SalaryHandler) FundProject(c *gin.Context) {
	projectID, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}
	clientID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	payment, err := h.salarySvc.Fund(c.Request.Context(), projectID, clientID)
	if err != nil {
		h.handleSalaryError(c, err)
		return
	}

	response.Created(c, payment)
}

// DistributeSalary 按岗位分成生成薪酬付款
// POST /api/v1/projects/:id/salary/distribute
func (h *SalaryHandler) DistributeSalary(c *gin.Context) {
	projectID, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rows, err := h.salarySvc.Distribute(c.Request.Context(), projectID, callerID)
	if err != nil {
		h.handleSalaryError(c, err)
		return
	}

	response.List(c, rows)
}

// ListPayments 列出项目付款记录
// GET /api/v1/projects/:id/payments
func (h *SalaryHandler) ListPayments(c *gin.Context) {
	projectID, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}

	payments, err := h.salarySvc.ListPayments(c.Request.Context(), projectID)
	if err != nil {
		h.handleSalaryError(c, err)
		return
	}

	response.List(c, payments)
}

// ConfirmPayment 确认付款完成
// PUT /api/v1/payments/:id/confirm
func (h *SalaryHandler) ConfirmPayment(c *gin.Context) {
	id, ok := mustParam(c, "id", "付款ID")
	if !ok {
		return
	}

	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	payment, err := h.salarySvc.Confirm(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleSalaryError(c, err)
		return
	}

	response.OK(c, payment)
}

// ExportDistribution 导出薪酬分配表
// GET /api/v1/projects/:id/salary/export
func (h *SalaryHandler) ExportDistribution(c *gin.Context) {
	projectID, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}

	buf, filename, err := h.salarySvc.ExportDistribution(c.Request.Context(), projectID)
	if err != nil {
		h.handleSalaryError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// handleSalaryError 统一处理薪酬模块业务错误
func (h *SalaryHandler) handleSalaryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPaymentNotFound):
		response.NotFound(c, 25001, "付款记录不存在")
	case errors.Is(err, service.ErrProjectAlreadyFunded):
		response.Conflict(c, 25002, "项目预算已入账")
	case errors.Is(err, service.ErrSalaryAlreadyDistributed):
		response.Conflict(c, 25003, "项目薪酬已分配")
	case errors.Is(err, service.ErrNoDistribution):
		response.NotFound(c, 25004, "项目尚未分配薪酬")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 20001, "项目不存在")
	case errors.Is(err, service.ErrNotProjectOwner):
		response.Forbidden(c, 20006, "只有项目所属客户可以执行该操作")
	case errors.Is(err, service.ErrProjectClosed):
		response.Conflict(c, 20010, "项目已结束或已驳回")
	default:
		respondByCategory(c, err)
	}
}
