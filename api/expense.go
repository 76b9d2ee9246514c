package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"budgetbook/config"
	"budgetbook/database"
	"budgetbook/middleware"
	"budgetbook/models"
	"budgetbook/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ExpenseHandler 消费记录处理器
type ExpenseHandler struct{}

// NewExpenseHandler 创建消费记录处理器
func NewExpenseHandler() *ExpenseHandler {
	return &ExpenseHandler{}
}

// reconcileEnabled 消费记录修改/删除时是否冲正预算
func reconcileEnabled() bool {
	return config.GlobalConfig != nil && config.GlobalConfig.Budget.ReconcileOnExpenseChange
}

// CreateExpenseRequest 创建消费记录请求
// amount 用指针以区分“未传”和“传了 0”
type CreateExpenseRequest struct {
	Category    string   `json:"category" binding:"required,max=255" example:"餐饮"`
	Amount      *float64 `json:"amount" binding:"required,gte=0" example:"99.99"`
	ExpenseDate string   `json:"expense_date" binding:"required" example:"2024-01-15"`
	Description string   `json:"description" example:"午餐"`
}

// UpdateExpenseRequest 更新消费记录请求（全部字段可选，但至少提供一个）
type UpdateExpenseRequest struct {
	Category    string   `json:"category" binding:"omitempty,max=255" example:"餐饮"`
	Amount      *float64 `json:"amount" binding:"omitempty,gte=0" example:"99.99"`
	ExpenseDate string   `json:"expense_date" example:"2024-01-15"`
	Description string   `json:"description" example:"午餐"`
}

// ExpenseListRequest 消费记录列表请求
type ExpenseListRequest struct {
	Page     int `form:"page" example:"1"`
	PageSize int `form:"page_size" example:"10"`
}

// Create 创建消费记录
// @Summary 创建消费记录
// @Description 记一笔消费。类别不存在时自动创建；该类别设有预算时先检查剩余额度并原子扣减，超出剩余额度则拒绝
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "消费记录信息"
// @Success 201 {object} Response{data=models.Expense} "创建成功"
// @Failure 400 {object} Response "请求参数错误或预算余额不足"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		BadRequest(c, "类别不能为空")
		return
	}

	expenseDate, err := time.ParseInLocation("2006-01-02", req.ExpenseDate, time.Local)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2006-01-02")
		return
	}

	ledger := service.NewBudgetLedger(database.DB, reconcileEnabled())

	var expense models.Expense
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		cat, err := ledger.ResolveCategory(tx, userID, req.Category)
		if err != nil {
			return err
		}

		// 有预算时检查并扣减，无预算时不受约束
		if err := ledger.ApplyExpenseDelta(tx, userID, cat.ID, *req.Amount); err != nil {
			return err
		}

		expense = models.Expense{
			UserID:      userID,
			CategoryID:  &cat.ID,
			Amount:      *req.Amount,
			ExpenseDate: expenseDate,
			Description: req.Description,
		}
		return tx.Create(&expense).Error
	})
	if err != nil {
		if errors.Is(err, service.ErrInsufficientBudget) {
			BadRequest(c, "该类别预算余额不足")
			return
		}
		InternalError(c, SafeErrorMessage(err, "创建消费记录失败"))
		return
	}

	Created(c, "消费记录创建成功", expense)
}

// List 获取消费记录列表
// @Summary 获取消费记录列表
// @Description 分页获取当前用户的消费记录（含类别信息），按ID升序。一条记录都没有时返回 404 空结果
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} Response{data=PageResponse{list=[]models.Expense}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "暂无消费记录"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 默认分页参数
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := database.DB.Model(&models.Expense{}).Where("user_id = ?", userID)

	// 获取总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	if total == 0 {
		// 空结果信号，区别于带空数组的成功响应
		EmptyResult(c, "暂无消费记录")
		return
	}

	// 获取列表（按ID升序保证稳定分页）
	var expenses []models.Expense
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Category").Order("id ASC").Offset(offset).Limit(req.PageSize).Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     expenses,
	})
}

// Get 获取单条消费记录
// @Summary 获取单条消费记录
// @Description 根据ID获取消费记录详情（含类别信息）
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response{data=models.Expense} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Preload("Category").Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	Success(c, expense)
}

// Update 更新消费记录
// @Summary 更新消费记录
// @Description 部分更新指定的消费记录，至少提供一个字段。默认不回滚此前的预算扣减（可通过 budget.reconcile_on_expense_change 开启冲正）
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Param request body UpdateExpenseRequest true "消费记录信息"
// @Success 200 {object} Response{data=models.Expense} "更新成功"
// @Failure 400 {object} Response "请求参数错误或未提供任何字段"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" && req.Amount == nil && req.ExpenseDate == "" && req.Description == "" {
		BadRequest(c, "没有可更新的字段")
		return
	}

	var expenseDate time.Time
	if req.ExpenseDate != "" {
		expenseDate, err = time.ParseInLocation("2006-01-02", req.ExpenseDate, time.Local)
		if err != nil {
			BadRequest(c, "日期格式错误，应为: 2006-01-02")
			return
		}
	}

	ledger := service.NewBudgetLedger(database.DB, reconcileEnabled())

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}

		newAmount := expense.Amount
		if req.Amount != nil {
			newAmount = *req.Amount
			updates["amount"] = newAmount
		}

		newCategoryID := expense.CategoryID
		if req.Category != "" {
			cat, err := ledger.ResolveCategory(tx, userID, req.Category)
			if err != nil {
				return err
			}
			newCategoryID = &cat.ID
			updates["category_id"] = cat.ID
		}

		if req.ExpenseDate != "" {
			updates["expense_date"] = expenseDate
		}
		if req.Description != "" {
			updates["description"] = req.Description
		}

		// 冲正开关开启时，金额或类别变化要先回滚旧扣减再按新值扣减。
		// 孤儿记录（类别已随预算删除，category_id 为 NULL）没有可调整的预算，两边都跳过
		amountChanged := req.Amount != nil && newAmount != expense.Amount
		categoryChanged := newCategoryID != nil && (expense.CategoryID == nil || *newCategoryID != *expense.CategoryID)
		if ledger.ReconcileEnabled() && (amountChanged || categoryChanged) {
			if expense.CategoryID != nil {
				if err := ledger.ReverseExpenseDelta(tx, userID, *expense.CategoryID, expense.Amount); err != nil {
					return err
				}
			}
			if newCategoryID != nil {
				if err := ledger.ApplyExpenseDelta(tx, userID, *newCategoryID, newAmount); err != nil {
					return err
				}
			}
		}

		return tx.Model(&expense).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, service.ErrInsufficientBudget) {
			BadRequest(c, "该类别预算余额不足")
			return
		}
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}

	// 重新获取更新后的记录
	if err := database.DB.Preload("Category").First(&expense, expense.ID).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询更新后的记录失败"))
		return
	}
	SuccessWithMessage(c, "更新成功", expense)
}

// Delete 删除消费记录
// @Summary 删除消费记录
// @Description 删除指定的消费记录。默认不回滚此前的预算扣减（可通过 budget.reconcile_on_expense_change 开启冲正）
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	ledger := service.NewBudgetLedger(database.DB, reconcileEnabled())

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if ledger.ReconcileEnabled() && expense.CategoryID != nil {
			if err := ledger.ReverseExpenseDelta(tx, userID, *expense.CategoryID, expense.Amount); err != nil {
				return err
			}
		}
		return tx.Delete(&expense).Error
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
