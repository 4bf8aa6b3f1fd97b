package repository

import (
	"context"
	"time"

	"farmer-admin/internal/model"

	"gorm.io/gorm"
)

type DashboardRepository interface {
	GetDashboardStats(ctx context.Context, day time.Time) (*DashboardStats, error)
}

// DashboardStats feeds the overview cards.
type DashboardStats struct {
	TotalFarmers           int64 `json:"totalFarmers"`
	CompletedInstallations int64 `json:"completedInstallations"`
	PendingInstallations   int64 `json:"pendingInstallations"`
	DispatchedToday        int64 `json:"dispatchedToday"`
	PendingTasks           int64 `json:"pendingTasks"`
	LowStockCount          int64 `json:"lowStockCount"`
}

type dashboardRepo struct {
	db *gorm.DB
}

func NewDashboardRepo(db *gorm.DB) DashboardRepository {
	return &dashboardRepo{db}
}

func (r *dashboardRepo) GetDashboardStats(ctx context.Context, day time.Time) (*DashboardStats, error) {
	db := r.db.WithContext(ctx)
	var stats DashboardStats

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	counts := []struct {
		target *int64
		query  *gorm.DB
	}{
		{&stats.TotalFarmers, db.Model(&model.Farmer{})},
		{&stats.CompletedInstallations, db.Model(&model.Farmer{}).
			Where("installation_status = ?", model.InstallationDone)},
		{&stats.PendingInstallations, db.Model(&model.Farmer{}).
			Where("installation_status IN ?", []string{model.InstallationNotStarted, model.InstallationInProgress})},
		{&stats.DispatchedToday, db.Model(&model.FarmerDispatch{}).
			Where("dispatch_date >= ? AND dispatch_date < ?", start, end)},
		{&stats.PendingTasks, db.Model(&model.Task{}).
			Where("status IN ?", []model.TaskStatus{model.TaskPending, model.TaskInProgress})},
		{&stats.LowStockCount, db.Model(&model.InventoryItem{}).
			Where("quantity <= min_stock_level")},
	}
	for _, c := range counts {
		if err := c.query.Count(c.target).Error; err != nil {
			return nil, translateError(err)
		}
	}
	return &stats, nil
}
