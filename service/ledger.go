package service

import (
	"errors"

	"budgetbook/models"

	"gorm.io/gorm"
)

// 预算账本错误，由接口层映射为对应的 HTTP 状态
var (
	// ErrInsufficientBudget 消费金额超过该类别预算的剩余额度
	ErrInsufficientBudget = errors.New("该类别预算余额不足")
	// ErrBudgetNotFound 预算不存在或不属于当前用户
	ErrBudgetNotFound = errors.New("预算不存在")
)

// BudgetLedger 预算账本
// 维护每个 (用户, 类别) 预算的核心不变式 remaining == amount - spent：
// 创建/更新预算、记账扣减、冲正、删除预算及类别清理都经过这里。
type BudgetLedger struct {
	db        *gorm.DB
	reconcile bool
}

// NewBudgetLedger 创建预算账本
// reconcile 控制消费记录修改/删除时是否冲正预算（见配置 budget.reconcile_on_expense_change）
func NewBudgetLedger(db *gorm.DB, reconcile bool) *BudgetLedger {
	return &BudgetLedger{db: db, reconcile: reconcile}
}

// ReconcileEnabled 是否开启消费变更冲正
func (l *BudgetLedger) ReconcileEnabled() bool {
	return l.reconcile
}

// ResolveCategory 按 (用户, 名称) 解析类别，不存在则创建
// 并发下两个请求可能同时观察到“不存在”，创建撞到唯一键时回读已存在的行，
// 保证同名类别永远只有一条。
func (l *BudgetLedger) ResolveCategory(tx *gorm.DB, userID uint, name string) (*models.Category, error) {
	var cat models.Category
	err := tx.Where("user_id = ? AND name = ?", userID, name).First(&cat).Error
	if err == nil {
		return &cat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cat = models.Category{UserID: userID, Name: name}
	if createErr := tx.Create(&cat).Error; createErr != nil {
		// 唯一键冲突：另一个请求抢先创建，回读即可
		var existing models.Category
		if err := tx.Where("user_id = ? AND name = ?", userID, name).First(&existing).Error; err == nil {
			return &existing, nil
		}
		return nil, createErr
	}
	return &cat, nil
}

// CreateOrUpdateBudget 创建或更新某类别的预算，返回预算和是否新建
// 已有预算时只重设 amount 并按 remaining = amount - spent 重算，spent 保持不变；
// 没有预算时以 {amount, spent: 0, remaining: amount} 新建。
func (l *BudgetLedger) CreateOrUpdateBudget(userID uint, categoryName string, amount float64) (*models.Budget, bool, error) {
	var budget models.Budget
	var created bool

	err := l.db.Transaction(func(tx *gorm.DB) error {
		cat, err := l.ResolveCategory(tx, userID, categoryName)
		if err != nil {
			return err
		}

		err = tx.Where("user_id = ? AND category_id = ?", userID, cat.ID).First(&budget).Error
		if err == nil {
			budget.Amount = amount
			budget.Remaining = amount - budget.Spent
			return tx.Model(&budget).Updates(map[string]interface{}{
				"amount":    budget.Amount,
				"remaining": budget.Remaining,
			}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		budget = models.Budget{
			UserID:     userID,
			CategoryID: cat.ID,
			Amount:     amount,
			Spent:      0,
			Remaining:  amount,
		}
		created = true
		return tx.Create(&budget).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &budget, created, nil
}

// ApplyExpenseDelta 记一笔消费时扣减对应类别的预算
// 没有预算的类别不受约束；有预算时余额不足返回 ErrInsufficientBudget。
// 扣减用条件更新（WHERE remaining >= delta）原子完成，
// 并发的两笔消费不可能都用同一份旧余额通过检查。
func (l *BudgetLedger) ApplyExpenseDelta(tx *gorm.DB, userID, categoryID uint, delta float64) error {
	var budget models.Budget
	err := tx.Where("user_id = ? AND category_id = ?", userID, categoryID).First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if delta > budget.Remaining {
		return ErrInsufficientBudget
	}

	res := tx.Model(&models.Budget{}).
		Where("id = ? AND remaining >= ?", budget.ID, delta).
		Updates(map[string]interface{}{
			"spent":     gorm.Expr("spent + ?", delta),
			"remaining": gorm.Expr("remaining - ?", delta),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// 读检查通过后被并发消费抢走了余额
		return ErrInsufficientBudget
	}
	return nil
}

// ReverseExpenseDelta 冲正一笔消费对预算的扣减（仅冲正开关开启时由调用方使用）
// 预算在消费之后被重建过时 spent 可能小于 delta，此时只冲正到 0。
func (l *BudgetLedger) ReverseExpenseDelta(tx *gorm.DB, userID, categoryID uint, delta float64) error {
	var budget models.Budget
	err := tx.Where("user_id = ? AND category_id = ?", userID, categoryID).First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if delta > budget.Spent {
		delta = budget.Spent
	}
	if delta == 0 {
		return nil
	}

	return tx.Model(&models.Budget{}).
		Where("id = ? AND spent >= ?", budget.ID, delta).
		Updates(map[string]interface{}{
			"spent":     gorm.Expr("spent - ?", delta),
			"remaining": gorm.Expr("remaining + ?", delta),
		}).Error
}

// DeleteBudget 删除预算，并清理不再被任何预算引用的类别
// 历史行为：清理类别时只看同用户下是否还有其他预算引用它，不检查消费记录；
// 类别被删后，引用它的消费记录经外键 ON DELETE SET NULL 变为孤儿记录。
func (l *BudgetLedger) DeleteBudget(userID, budgetID uint) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var budget models.Budget
		if err := tx.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBudgetNotFound
			}
			return err
		}

		if err := tx.Delete(&budget).Error; err != nil {
			return err
		}

		var siblings int64
		if err := tx.Model(&models.Budget{}).
			Where("user_id = ? AND category_id = ?", userID, budget.CategoryID).
			Count(&siblings).Error; err != nil {
			return err
		}
		if siblings == 0 {
			if err := tx.Where("id = ? AND user_id = ?", budget.CategoryID, userID).
				Delete(&models.Category{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
