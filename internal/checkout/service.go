package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/internal/shipping"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/outbox"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	orderKeyAttempts   = 3
	orderKeyConstraint = "orders_order_key_key"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type rateCalculator interface {
	Calculate(country, postcode string, weight int, orderValue decimal.Decimal) (shipping.Quote, error)
	CheckoutCountries() []shipping.Country
}

type stockDecrementer interface {
	DecrementStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type orderHistory interface {
	Remember(ctx context.Context, sessionID string, id uuid.UUID) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service runs the checkout state machine for a session.
type Service interface {
	Preview(ctx context.Context, sessionID string) (*Result, error)
	Submit(ctx context.Context, sessionID string, form Form, client Client) (*Result, error)
}

// Options toggles optional checkout behavior.
type Options struct {
	DecrementStock bool
}

type service struct {
	tx        txRunner
	carts     cart.Service
	rates     rateCalculator
	assembler *Assembler
	orders    orders.Repository
	history   orderHistory
	stock     stockDecrementer
	outbox    outboxPublisher
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	opts      Options
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	carts cart.Service,
	rates rateCalculator,
	assembler *Assembler,
	ordersRepo orders.Repository,
	history orderHistory,
	stock stockDecrementer,
	publisher outboxPublisher,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
	opts Options,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if rates == nil {
		return nil, fmt.Errorf("shipping rates required")
	}
	if assembler == nil {
		return nil, fmt.Errorf("order assembler required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if history == nil {
		return nil, fmt.Errorf("order history required")
	}
	if opts.DecrementStock && stock == nil {
		return nil, fmt.Errorf("stock decrementer required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        tx,
		carts:     carts,
		rates:     rates,
		assembler: assembler,
		orders:    ordersRepo,
		history:   history,
		stock:     stock,
		outbox:    publisher,
		metrics:   checkoutMetrics,
		logg:      logg,
		opts:      opts,
	}, nil
}

// Preview shows the resolved cart before any address is known.
func (s *service) Preview(ctx context.Context, sessionID string) (*Result, error) {
	resolved, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Result{
		Outcome:       OutcomePreview,
		Cart:          resolved,
		Countries:     s.rates.CheckoutCountries(),
		ShippingTotal: decimal.Zero,
	}, nil
}

// Submit estimates shipping when the form asks for it, and places the order otherwise.
func (s *service) Submit(ctx context.Context, sessionID string, form Form, client Client) (*Result, error) {
	start := time.Now()
	flow := "place"
	if form.CalculateShipping {
		flow = "estimate"
	}
	defer func() {
		s.metrics.ObserveDuration(flow, time.Since(start))
	}()

	resolved, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Cart:          resolved,
		Form:          form,
		Countries:     s.rates.CheckoutCountries(),
		ShippingTotal: decimal.Zero,
	}

	if form.CalculateShipping {
		s.estimate(ctx, form, result)
		s.metrics.IncOutcome(string(result.Outcome))
		return result, nil
	}

	if resolved.Empty() {
		result.Outcome = OutcomeEmptyCart
		s.metrics.IncOutcome(string(result.Outcome))
		return result, nil
	}

	if err := s.place(ctx, sessionID, form, client, result); err != nil {
		return nil, err
	}
	s.metrics.IncOutcome(string(result.Outcome))
	return result, nil
}

func (s *service) estimate(ctx context.Context, form Form, result *Result) {
	quote, err := s.quote(form, result.Cart)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", string(shipping.ReasonOf(err))), "shipping estimate unavailable")
		result.Outcome = OutcomeEstimateDegraded
		result.Alert = err.Error()
		return
	}
	result.Outcome = OutcomeEstimated
	result.Quote = &quote
	result.ShippingTotal = quote.Price
}

func (s *service) place(ctx context.Context, sessionID string, form Form, client Client, result *Result) error {
	quote, err := s.quote(form, result.Cart)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "shipping is not available for this address").
			WithDetails(map[string]any{"reason": string(shipping.ReasonOf(err))})
	}

	order, err := s.assembler.Assemble(result.Cart.Lines, quote, Customer{
		Billing:       form.Billing(),
		Shipping:      form.Shipping(),
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
		Note:          form.OrderComments,
		PaymentMethod: form.PaymentMethod,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assemble order")
	}

	for attempt := 1; ; attempt++ {
		err = s.persist(ctx, order, client.RequestID)
		if err == nil || attempt == orderKeyAttempts || !isOrderKeyCollision(err) {
			break
		}
		s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "order key already taken, regenerating")
		if err = s.assembler.Rekey(order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assemble order")
		}
	}
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logg.Error(ctx, "order placed but cart could not be cleared", err)
	}
	if err := s.history.Remember(ctx, sessionID, order.ID); err != nil {
		s.logg.Error(ctx, "order placed but not recorded in the session", err)
	}
	s.metrics.IncOrderPlaced()
	s.logg.Info(s.logg.WithField(ctx, "total", types.FormatMoney(order.Total)), "order placed")

	result.Outcome = OutcomePlaced
	result.Quote = &quote
	result.ShippingTotal = quote.Price
	result.Order = order
	return nil
}

// persist writes the order, its stock movements and the created event in one transaction.
func (s *service) persist(ctx context.Context, order *models.Order, requestID string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if s.opts.DecrementStock {
			for _, item := range order.LineItems {
				if err := s.stock.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
					if errors.Is(err, catalog.ErrInsufficientStock) {
						return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "not enough stock to place the order").
							WithDetails(map[string]any{"product_id": item.ProductID.String()})
					}
					return err
				}
			}
		}
		if err := s.orders.WithTx(tx).Insert(ctx, order); err != nil {
			return err
		}
		return s.emitOrderCreated(ctx, tx, order, requestID)
	})
}

func isOrderKeyCollision(err error) bool {
	return db.IsUniqueViolation(err, orderKeyConstraint) || db.IsUniqueViolation(err, "orders.order_key")
}

func (s *service) quote(form Form, resolved *cart.Resolution) (shipping.Quote, error) {
	destination := form.Shipping()
	quote, err := s.rates.Calculate(destination.CountryCode, destination.Postcode, resolved.TotalWeight, resolved.TotalOrderValue)
	if err != nil {
		s.metrics.IncShippingFailure(string(shipping.ReasonOf(err)))
		return shipping.Quote{}, err
	}
	return quote, nil
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order, requestID string) error {
	items := 0
	for _, item := range order.LineItems {
		items += item.Quantity
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		RequestID:     requestID,
		Data: outbox.OrderCreatedEvent{
			OrderID:      order.ID,
			OrderKey:     order.OrderKey,
			CustomerName: order.Billing.FullName(),
			Email:        order.Billing.Email,
			Total:        types.FormatMoney(order.Total),
			Currency:     order.Currency,
			ItemCount:    items,
		},
		Version: 1,
	}
	return s.outbox.Emit(ctx, tx, event)
}
