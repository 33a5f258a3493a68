package stock

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain/registers/inventory"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/pkg/logger"
)

var tracer = otel.Tracer("stockledger/stock")

// Service provides business operations over the Inventory Store and Stock Ledger.
type Service struct {
	inventory  inventory.Repository
	ledger     *ledger.Service
	products   ProductLookup
	txManager  tx.Manager
	categories *inventory.Categories
	locker     Locker
	now        func() time.Time
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithLocker sets the distributed locker. The default is NoopLocker.
func WithLocker(l Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithClock overrides the time source used for default event dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new stock service.
func NewService(
	inv inventory.Repository,
	led *ledger.Service,
	products ProductLookup,
	txManager tx.Manager,
	categories *inventory.Categories,
	opts ...Option,
) *Service {
	s := &Service{
		inventory:  inv,
		ledger:     led,
		products:   products,
		txManager:  txManager,
		categories: categories,
		locker:     NoopLocker{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) eventDate(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validateCommon(ownerID string, productID id.ID, quantity int64) error {
	if ownerID == "" {
		return apperror.NewUnauthorized("caller identity is required")
	}
	if id.IsNil(productID) {
		return apperror.NewInvalidArgument("product_id is required").WithDetail("field", "product_id")
	}
	if quantity <= 0 {
		return apperror.NewInvalidArgument("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", quantity)
	}
	return nil
}

// withLocks holds the locks for keys for the duration of fn.
func (s *Service) withLocks(ctx context.Context, keys []inventory.Key, fn func() error) error {
	release, err := s.locker.Acquire(ctx, lockKeys(keys...)...)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (s *Service) ensureProduct(ctx context.Context, ownerID string, productID id.ID) error {
	if _, err := s.products.GetByID(ctx, ownerID, productID); err != nil {
		return err
	}
	return nil
}

// ApplyTransaction applies one in, out or initial movement.
// An out larger than the on-hand quantity fails with INSUFFICIENT_STOCK and writes nothing.
func (s *Service) ApplyTransaction(ctx context.Context, in TransactionInput) (TransactionResult, error) {
	var res TransactionResult

	if err := validateCommon(in.OwnerID, in.ProductID, in.Quantity); err != nil {
		return res, err
	}
	switch in.EventType {
	case ledger.EventIn, ledger.EventOut, ledger.EventInitial:
	default:
		return res, apperror.NewInvalidArgument("event_type must be one of in, out, initial").
			WithDetail("field", "event_type").
			WithDetail("value", in.EventType)
	}
	if err := s.categories.Validate("warehouse_category", in.Category); err != nil {
		return res, err
	}

	ctx, span := tracer.Start(ctx, "stock.ApplyTransaction", trace.WithAttributes(
		attribute.String("product_id", in.ProductID.String()),
		attribute.String("event_type", string(in.EventType)),
	))
	defer span.End()

	key := inventory.Key{OwnerID: in.OwnerID, ProductID: in.ProductID, Category: in.Category}
	err := s.withLocks(ctx, []inventory.Key{key}, func() error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.ensureProduct(ctx, in.OwnerID, in.ProductID); err != nil {
				return err
			}

			var newQty int64
			var err error
			if in.EventType == ledger.EventOut {
				newQty, err = s.inventory.Decrement(ctx, key, in.Quantity)
			} else {
				newQty, err = s.inventory.Increment(ctx, key, in.Quantity)
			}
			if err != nil {
				return err
			}

			entry := ledger.NewMovement(in.OwnerID, in.ProductID, in.EventType, in.Category, in.Quantity, in.Notes, s.eventDate(in.EventDate))
			if err := s.ledger.Append(ctx, entry); err != nil {
				return err
			}

			res.NewStock = newQty
			return nil
		})
	})
	if err != nil {
		return TransactionResult{}, err
	}

	logger.Info(ctx, "stock transaction applied",
		"product_id", in.ProductID,
		"event_type", in.EventType,
		"warehouse_category", in.Category,
		"quantity", in.Quantity,
		"new_stock", res.NewStock,
	)
	return res, nil
}

// Transfer moves quantity from one category to another for the same product.
// The sum over both categories is conserved.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (TransferResult, error) {
	var res TransferResult

	if err := validateCommon(in.OwnerID, in.ProductID, in.Quantity); err != nil {
		return res, err
	}
	if err := s.categories.Validate("from_warehouse_category", in.FromCategory); err != nil {
		return res, err
	}
	if err := s.categories.Validate("to_warehouse_category", in.ToCategory); err != nil {
		return res, err
	}
	if in.FromCategory == in.ToCategory {
		return res, apperror.NewInvalidArgument("source and destination categories must differ").
			WithDetail("warehouse_category", in.FromCategory)
	}

	ctx, span := tracer.Start(ctx, "stock.Transfer", trace.WithAttributes(
		attribute.String("product_id", in.ProductID.String()),
		attribute.String("from", in.FromCategory),
		attribute.String("to", in.ToCategory),
	))
	defer span.End()

	from := inventory.Key{OwnerID: in.OwnerID, ProductID: in.ProductID, Category: in.FromCategory}
	to := inventory.Key{OwnerID: in.OwnerID, ProductID: in.ProductID, Category: in.ToCategory}

	err := s.withLocks(ctx, []inventory.Key{from, to}, func() error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.ensureProduct(ctx, in.OwnerID, in.ProductID); err != nil {
				return err
			}

			fromQty, err := s.inventory.Decrement(ctx, from, in.Quantity)
			if err != nil {
				return err
			}
			toQty, err := s.inventory.Increment(ctx, to, in.Quantity)
			if err != nil {
				return err
			}

			entry := ledger.NewTransfer(in.OwnerID, in.ProductID, in.FromCategory, in.ToCategory, in.Quantity, in.Notes, s.eventDate(in.EventDate))
			if err := s.ledger.Append(ctx, entry); err != nil {
				return err
			}

			res.FromStock, res.ToStock = fromQty, toQty
			return nil
		})
	})
	if err != nil {
		return TransferResult{}, err
	}

	logger.Info(ctx, "stock transferred",
		"product_id", in.ProductID,
		"from", in.FromCategory,
		"to", in.ToCategory,
		"quantity", in.Quantity,
		"from_stock", res.FromStock,
		"to_stock", res.ToStock,
	)
	return res, nil
}

// Adjust reconciles a category to an authoritative count.
// A count equal to the stored quantity is a no-op with no ledger entry.
// A concurrent write between the read and the update fails with CONCURRENT_MODIFICATION.
func (s *Service) Adjust(ctx context.Context, in AdjustmentInput) (AdjustmentResult, error) {
	var res AdjustmentResult

	if in.OwnerID == "" {
		return res, apperror.NewUnauthorized("caller identity is required")
	}
	if id.IsNil(in.ProductID) {
		return res, apperror.NewInvalidArgument("product_id is required").WithDetail("field", "product_id")
	}
	if in.NewQuantity < 0 {
		return res, apperror.NewInvalidArgument("new_quantity must be non-negative").
			WithDetail("field", "new_quantity").
			WithDetail("value", in.NewQuantity)
	}
	if err := s.categories.Validate("warehouse_category", in.Category); err != nil {
		return res, err
	}

	ctx, span := tracer.Start(ctx, "stock.Adjust", trace.WithAttributes(
		attribute.String("product_id", in.ProductID.String()),
		attribute.String("warehouse_category", in.Category),
	))
	defer span.End()

	key := inventory.Key{OwnerID: in.OwnerID, ProductID: in.ProductID, Category: in.Category}
	err := s.withLocks(ctx, []inventory.Key{key}, func() error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.ensureProduct(ctx, in.OwnerID, in.ProductID); err != nil {
				return err
			}

			current, err := s.inventory.Get(ctx, key)
			if err != nil {
				return fmt.Errorf("read inventory: %w", err)
			}

			res.OldStock = current.Quantity
			res.NewStock = current.Quantity

			delta := in.NewQuantity - current.Quantity
			if delta == 0 {
				return nil
			}

			if err := s.inventory.CompareAndSet(ctx, key, current.Quantity, in.NewQuantity); err != nil {
				return err
			}

			entry := ledger.NewAdjustment(in.OwnerID, in.ProductID, in.Category, delta, in.Notes, s.eventDate(in.EventDate))
			if err := s.ledger.Append(ctx, entry); err != nil {
				return err
			}

			res.NewStock = in.NewQuantity
			res.Changed = true
			return nil
		})
	})
	if err != nil {
		return AdjustmentResult{}, err
	}

	if res.Changed {
		logger.Info(ctx, "stock adjusted",
			"product_id", in.ProductID,
			"warehouse_category", in.Category,
			"delta", res.NewStock-res.OldStock,
			"new_stock", res.NewStock,
		)
	}
	return res, nil
}

// Receive credits goods received against a source document such as a purchase request.
// It joins the caller's transaction when one is open.
func (s *Service) Receive(ctx context.Context, in ReceiveInput) (int64, error) {
	if err := validateCommon(in.OwnerID, in.ProductID, in.Quantity); err != nil {
		return 0, err
	}
	if err := s.categories.Validate("target_warehouse_category", in.Category); err != nil {
		return 0, err
	}

	key := inventory.Key{OwnerID: in.OwnerID, ProductID: in.ProductID, Category: in.Category}

	var newQty int64
	err := s.withLocks(ctx, []inventory.Key{key}, func() error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.ensureProduct(ctx, in.OwnerID, in.ProductID); err != nil {
				return err
			}

			entry := ledger.NewMovement(in.OwnerID, in.ProductID, ledger.EventIn, in.Category, in.Quantity, in.Notes, s.eventDate(in.EventDate))
			if in.ReferenceCode != "" {
				entry.WithReference(in.ReferenceCode)
			}
			if err := s.ledger.Append(ctx, entry); err != nil {
				return err
			}

			qty, err := s.inventory.Increment(ctx, key, in.Quantity)
			if err != nil {
				return err
			}
			newQty = qty
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "stock received",
		"product_id", in.ProductID,
		"warehouse_category", in.Category,
		"quantity", in.Quantity,
		"reference_code", in.ReferenceCode,
		"new_stock", newQty,
	)
	return newQty, nil
}

// Inventory lists the owner's inventory rows.
func (s *Service) Inventory(ctx context.Context, ownerID string, filter inventory.Filter) ([]inventory.Inventory, error) {
	if filter.Category != "" {
		if err := s.categories.Validate("warehouse_category", filter.Category); err != nil {
			return nil, err
		}
	}
	return s.inventory.List(ctx, ownerID, filter)
}

// Ledger lists the owner's ledger entries.
func (s *Service) Ledger(ctx context.Context, ownerID string, filter ledger.Filter) ([]ledger.Entry, error) {
	if filter.EventType != "" && !filter.EventType.IsValid() {
		return nil, apperror.NewInvalidArgument("unknown event_type").WithDetail("value", filter.EventType)
	}
	return s.ledger.List(ctx, ownerID, filter)
}

// Reconcile compares materialized inventory with the ledger replay and
// returns every (product, category) where they disagree.
func (s *Service) Reconcile(ctx context.Context, ownerID string, productID *id.ID) ([]Discrepancy, error) {
	rows, err := s.inventory.List(ctx, ownerID, inventory.Filter{ProductID: productID})
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	balances, err := s.ledger.Balances(ctx, ownerID, productID)
	if err != nil {
		return nil, fmt.Errorf("sum ledger: %w", err)
	}

	type pair struct {
		product  id.ID
		category string
	}
	stored := make(map[pair]int64, len(rows))
	order := make([]pair, 0, len(rows)+len(balances))
	for _, r := range rows {
		p := pair{r.ProductID, r.Category}
		stored[p] = r.Quantity
		order = append(order, p)
	}
	replayed := make(map[pair]int64, len(balances))
	for _, b := range balances {
		p := pair{b.ProductID, b.Category}
		replayed[p] = b.Quantity
		if _, ok := stored[p]; !ok {
			order = append(order, p)
		}
	}

	out := make([]Discrepancy, 0)
	for _, p := range order {
		inv, led := stored[p], replayed[p]
		if inv == led {
			continue
		}
		out = append(out, Discrepancy{
			ProductID: p.product,
			Category:  p.category,
			Inventory: inv,
			Ledger:    led,
			Diff:      inv - led,
		})
	}
	return out, nil
}
