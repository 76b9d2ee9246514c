package api

import (
	"errors"
	"strconv"
	"strings"

	"budgetbook/database"
	"budgetbook/middleware"
	"budgetbook/models"
	"budgetbook/service"

	"github.com/gin-gonic/gin"
)

// BudgetHandler 预算处理器
type BudgetHandler struct{}

// NewBudgetHandler 创建预算处理器
func NewBudgetHandler() *BudgetHandler {
	return &BudgetHandler{}
}

// BudgetRequest 创建/更新预算请求
// amount 用指针以区分“未传”和“传了 0”：零额度预算是合法的
type BudgetRequest struct {
	Name   string   `json:"name" binding:"required,max=255" example:"餐饮"`
	Amount *float64 `json:"amount" binding:"required,gte=0" example:"500"`
}

// CreateOrUpdate 创建或更新预算
// @Summary 创建或更新预算
// @Description 为某个类别设置预算。类别不存在时自动创建；该类别已有预算时只更新额度并重算剩余额度（已花费保持不变）
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BudgetRequest true "预算信息"
// @Success 200 {object} Response{data=models.Budget} "更新成功"
// @Success 201 {object} Response{data=models.Budget} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets [post]
func (h *BudgetHandler) CreateOrUpdate(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "类别名称不能为空")
		return
	}

	ledger := service.NewBudgetLedger(database.DB, reconcileEnabled())
	budget, created, err := ledger.CreateOrUpdateBudget(userID, req.Name, *req.Amount)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "创建或更新预算失败"))
		return
	}

	if created {
		Created(c, "预算创建成功", budget)
		return
	}
	SuccessWithMessage(c, "预算更新成功", budget)
}

// List 获取类别及预算列表
// @Summary 获取类别及预算列表
// @Description 返回当前用户的全部类别，每个类别内嵌其预算（没有预算时为 null）
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var categories []models.Category
	if err := database.DB.Where("user_id = ?", userID).
		Preload("Budget", "user_id = ?", userID).
		Order("id ASC").
		Find(&categories).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, categories)
}

// Delete 删除预算
// @Summary 删除预算
// @Description 删除指定预算；该类别下没有其他预算时类别一并删除，引用该类别的消费记录会变为未分类
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "无效的ID"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	ledger := service.NewBudgetLedger(database.DB, reconcileEnabled())
	if err := ledger.DeleteBudget(userID, uint(id)); err != nil {
		if errors.Is(err, service.ErrBudgetNotFound) {
			NotFound(c, "预算不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "删除预算失败"))
		return
	}

	SuccessWithMessage(c, "预算及关联类别删除成功", nil)
}
