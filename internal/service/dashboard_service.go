package service

import (
	"context"
	"time"

	"farmer-admin/internal/repository"
)

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
}

type dashboardService struct {
	dashRepo repository.DashboardRepository
	txRepo   repository.InventoryTransactionRepository
	now      func() time.Time
}

func NewDashboardService(dashRepo repository.DashboardRepository, txRepo repository.InventoryTransactionRepository) DashboardService {
	return &dashboardService{dashRepo: dashRepo, txRepo: txRepo, now: time.Now}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 || days > 365 {
		return nil, &ValidationError{Field: "days", Reason: "must be between 1 and 365"}
	}
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.txRepo.GetStockMovement(ctx, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.dashRepo.GetDashboardStats(ctx, s.now())
}
