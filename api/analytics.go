package api

import (
	"sort"

	"budgetbook/database"
	"budgetbook/middleware"
	"budgetbook/models"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler 统计分析处理器
type AnalyticsHandler struct{}

// NewAnalyticsHandler 创建统计分析处理器
func NewAnalyticsHandler() *AnalyticsHandler {
	return &AnalyticsHandler{}
}

// CategoryAnalytics 单个类别的统计
// 预算三项在该类别没有预算时为 null；类别已被删除的孤儿记录归入空名称分组
type CategoryAnalytics struct {
	Category        string           `json:"category"`
	TotalAmount     float64          `json:"total_amount"`
	ExpenseCount    int              `json:"expense_count"`
	BudgetAmount    *float64         `json:"budget_amount"`
	SpentBudget     *float64         `json:"spent_budget"`
	RemainingBudget *float64         `json:"remaining_budget"`
	Expenses        []models.Expense `json:"expenses"`
}

// AnalyticsResponse 统计分析响应
type AnalyticsResponse struct {
	Data                   []CategoryAnalytics `json:"data"`
	OverallTotalExpense    float64             `json:"overall_total_expense"`
	OverallTotalBudget     float64             `json:"overall_total_budget"`
	OverallRemainingBudget float64             `json:"overall_remaining_budget"`
	OverallSpentBudget     float64             `json:"overall_spent_budget"`
}

// Summarize 消费统计分析
// @Summary 消费统计分析
// @Description 按类别汇总当前用户的全部消费：每个类别的消费总额、笔数、预算额度/已花费/剩余（无预算时为 null），以及跨类别的整体汇总（无预算按 0 计）
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=AnalyticsResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "查询失败"
// @Router /api/v1/analytics [get]
func (h *AnalyticsHandler) Summarize(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var expenses []models.Expense
	if err := database.DB.Preload("Category").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询消费记录失败"))
		return
	}

	var budgets []models.Budget
	if err := database.DB.Where("user_id = ?", userID).Find(&budgets).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询预算失败"))
		return
	}
	budgetByCategory := make(map[uint]*models.Budget, len(budgets))
	for i := range budgets {
		budgetByCategory[budgets[i].CategoryID] = &budgets[i]
	}

	// 按类别名称分组（同一用户下名称唯一，名称分组等价于ID分组）
	groups := make(map[string][]models.Expense)
	for _, e := range expenses {
		groups[e.CategoryName()] = append(groups[e.CategoryName()], e)
	}

	resp := AnalyticsResponse{Data: make([]CategoryAnalytics, 0, len(groups))}
	for name, list := range groups {
		item := CategoryAnalytics{
			Category:     name,
			ExpenseCount: len(list),
			Expenses:     list,
		}
		for _, e := range list {
			item.TotalAmount += e.Amount
		}
		resp.OverallTotalExpense += item.TotalAmount

		// 该类别的预算（可能不存在）
		if categoryID := list[0].CategoryID; categoryID != nil {
			if budget, ok := budgetByCategory[*categoryID]; ok {
				item.BudgetAmount = &budget.Amount
				item.SpentBudget = &budget.Spent
				item.RemainingBudget = &budget.Remaining
				resp.OverallTotalBudget += budget.Amount
				resp.OverallSpentBudget += budget.Spent
				resp.OverallRemainingBudget += budget.Remaining
			}
		}

		resp.Data = append(resp.Data, item)
	}

	// map 遍历无序，按类别名称排序保证输出稳定
	sort.Slice(resp.Data, func(i, j int) bool {
		return resp.Data[i].Category < resp.Data[j].Category
	})

	Success(c, resp)
}
