package services

import (
	"context"
	"time"

	"bazaar/internal/models"
	"bazaar/internal/repositories"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const recentOrderCount = 5

// Earnings is what a seller has earned and is still owed, at base price.
type Earnings struct {
	Total   decimal.Decimal
	Pending decimal.Decimal
}

// ComputeEarnings sums UnitBasePrice * Quantity over orders. Orders whose
// status is in earned count towards Total; cancelled orders count nowhere;
// everything else counts towards Pending.
func ComputeEarnings(orders []models.Order, earned []models.OrderStatus) Earnings {
	isEarned := make(map[models.OrderStatus]bool, len(earned))
	for _, s := range earned {
		isEarned[s] = true
	}

	e := Earnings{Total: decimal.Zero, Pending: decimal.Zero}
	for _, o := range orders {
		if o.Status == models.StatusCancelled {
			continue
		}
		amount := decimal.Zero
		for _, item := range o.Items {
			amount = amount.Add(item.UnitBasePrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		if isEarned[o.Status] {
			e.Total = e.Total.Add(amount)
		} else {
			e.Pending = e.Pending.Add(amount)
		}
	}
	return e
}

// Dashboard is the seller's summary view.
type Dashboard struct {
	ShopID          string
	TotalProducts   int64
	PendingOrders   int
	TodayOrders     int
	TotalEarnings   decimal.Decimal
	PendingEarnings decimal.Decimal
	RecentOrders    []models.Order
}

// DashboardService projects a seller's orders into dashboard figures.
type DashboardService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	shopRepo    repositories.ShopRepository
	earned      []models.OrderStatus
	now         func() time.Time
}

// NewDashboardService creates a new DashboardService. earned lists the
// statuses whose orders count as earned; it defaults to delivered.
func NewDashboardService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, shopRepo repositories.ShopRepository, earned []models.OrderStatus) *DashboardService {
	if len(earned) == 0 {
		earned = []models.OrderStatus{models.StatusDelivered}
	}
	return &DashboardService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		shopRepo:    shopRepo,
		earned:      earned,
		now:         time.Now,
	}
}

// Dashboard computes the dashboard of the seller's shop from a full scan of
// its orders.
func (s *DashboardService) Dashboard(ctx context.Context, sellerID string) (*Dashboard, error) {
	shop, err := sellerShop(ctx, s.shopRepo, sellerID)
	if err != nil {
		return nil, err
	}

	var (
		productCount int64
		orders       []models.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.productRepo.CountActiveByShop(gctx, shop.ID)
		productCount = n
		return err
	})
	g.Go(func() error {
		list, err := s.orderRepo.ListByShop(gctx, shop.ID, repositories.OrderFilter{})
		orders = list
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, ErrInternal.Wrap(err)
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	d := &Dashboard{
		ShopID:        shop.ID,
		TotalProducts: productCount,
		RecentOrders:  make([]models.Order, 0, recentOrderCount),
	}
	for _, o := range orders {
		if o.Status == models.StatusPlaced {
			d.PendingOrders++
		}
		if !o.CreatedAt.Before(midnight) {
			d.TodayOrders++
		}
		if len(d.RecentOrders) < recentOrderCount {
			d.RecentOrders = append(d.RecentOrders, o)
		}
	}
	earnings := ComputeEarnings(orders, s.earned)
	d.TotalEarnings = earnings.Total
	d.PendingEarnings = earnings.Pending
	return d, nil
}
