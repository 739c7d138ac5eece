package deliveries

import (
	"context"
	"time"

	"github.com/burrowbot/burrow/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type ListDeliveriesOptions struct {
	UserID *int64
	Status *string
	Limit  *int
	Offset *int

	includeTotal bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateDelivery(ctx context.Context, delivery *models.Delivery) error {
	if delivery.CreatedAt.IsZero() {
		delivery.CreatedAt = time.Now()
	}

	_, err := svc.db.
		NewInsert().
		Model(delivery).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) ListDeliveries(ctx context.Context, opts ListDeliveriesOptions) ([]*models.Delivery, error) {
	deliveries, _, err := svc.listDeliveriesWithTotal(ctx, opts)
	return deliveries, errors.WithStack(err)
}

func (svc *Service) ListDeliveriesWithTotal(ctx context.Context, opts ListDeliveriesOptions) ([]*models.Delivery, int, error) {
	opts.includeTotal = true
	return svc.listDeliveriesWithTotal(ctx, opts)
}

func (svc *Service) listDeliveriesWithTotal(ctx context.Context, opts ListDeliveriesOptions) ([]*models.Delivery, int, error) {
	deliveries := []*models.Delivery{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&deliveries).
		Order("d.created_at DESC", "d.id DESC")

	if opts.UserID != nil {
		q = q.Where("d.user_id = ?", *opts.UserID)
	}
	if opts.Status != nil {
		q = q.Where("d.status = ?", *opts.Status)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return deliveries, total, nil
}

// DeleteAllDeliveries is only reachable through the test routes.
func (svc *Service) DeleteAllDeliveries(ctx context.Context) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.Delivery)(nil)).
		Where("1 = 1").
		Exec(ctx)
	return errors.WithStack(err)
}
