// AngelaMos | 2026
// service.go

package admin

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/storefront/internal/order"
)

const (
	dashboardMonths = 12
	latestOrders    = 5
)

type RecentOrders interface {
	ListAll(ctx context.Context, limit, offset int) ([]order.Order, error)
}

type Dashboard struct {
	TotalRevenue   decimal.Decimal  `json:"total_revenue"`
	TotalOrders    int              `json:"total_orders"`
	PendingOrders  int              `json:"pending_orders"`
	TotalProducts  int              `json:"total_products"`
	TotalUsers     int              `json:"total_users"`
	Subscribers    int              `json:"newsletter_subscribers"`
	RevenueByMonth []MonthlyRevenue `json:"revenue_by_month"`
	LatestOrders   []order.Order    `json:"latest_orders"`
}

type Service struct {
	repo   Repository
	orders RecentOrders
}

func NewService(repo Repository, orders RecentOrders) *Service {
	return &Service{repo: repo, orders: orders}
}

// Dashboard gathers the figures concurrently. Revenue excludes cancelled
// orders.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		orderTotals OrderTotals
		storeTotals StoreTotals
		monthly     []MonthlyRevenue
		latest      []order.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orderTotals, err = s.repo.OrderTotals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		storeTotals, err = s.repo.StoreTotals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		monthly, err = s.repo.RevenueByMonth(gctx, dashboardMonths)
		return err
	})
	g.Go(func() error {
		var err error
		latest, err = s.orders.ListAll(gctx, latestOrders, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalRevenue:   orderTotals.Revenue.Round(2),
		TotalOrders:    orderTotals.Orders,
		PendingOrders:  orderTotals.Pending,
		TotalProducts:  storeTotals.Products,
		TotalUsers:     storeTotals.Users,
		Subscribers:    storeTotals.Subscribers,
		RevenueByMonth: monthly,
		LatestOrders:   latest,
	}, nil
}
