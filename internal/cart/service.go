package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// SessionKey is the session slot holding the cart quantities.
const SessionKey = "cart"

type sessionStore interface {
	Load(ctx context.Context, sessionID, name string, dest any) (bool, error)
	Save(ctx context.Context, sessionID, name string, value any) error
	Delete(ctx context.Context, sessionID, name string) error
}

// Service exposes the session cart to handlers and checkout.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Resolution, error)
	Add(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*Resolution, error)
	Update(ctx context.Context, sessionID string, pairs []FormPair) (*Resolution, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	sessions sessionStore
	pricer   *Pricer
	logg     *logger.Logger
}

// NewService builds a cart service backed by the session store and pricer.
func NewService(sessions sessionStore, pricer *Pricer, logg *logger.Logger) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("cart pricer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{sessions: sessions, pricer: pricer, logg: logg}, nil
}

// Get prices the stored cart and saves the cleaned quantities back.
func (s *service) Get(ctx context.Context, sessionID string) (*Resolution, error) {
	store, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.resolveAndSave(ctx, sessionID, store)
}

// Add accumulates quantity for the product.
func (s *service) Add(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*Resolution, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	store, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	store.AddOrIncrement(productID, quantity)
	return s.resolveAndSave(ctx, sessionID, store)
}

// Update applies a bulk edit. Pairs that cannot be applied are logged and skipped.
func (s *service) Update(ctx context.Context, sessionID string, pairs []FormPair) (*Resolution, error) {
	store, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, skipped := range store.ApplyBulkUpdate(pairs) {
		LogSkipped(ctx, s.logg, skipped)
	}
	return s.resolveAndSave(ctx, sessionID, store)
}

// Clear drops the stored cart.
func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID, SessionKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) load(ctx context.Context, sessionID string) (*Store, error) {
	items := map[uuid.UUID]int{}
	if _, err := s.sessions.Load(ctx, sessionID, SessionKey, &items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return NewStore(items), nil
}

func (s *service) resolveAndSave(ctx context.Context, sessionID string, store *Store) (*Resolution, error) {
	res, err := s.pricer.Resolve(ctx, store.Snapshot())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "price cart")
	}
	if len(res.Dropped) > 0 {
		dropped := make([]string, 0, len(res.Dropped))
		for _, id := range res.Dropped {
			dropped = append(dropped, id.String())
		}
		s.logg.Info(s.logg.WithField(ctx, "dropped_products", dropped), "cart entries removed")
	}
	if err := s.sessions.Save(ctx, sessionID, SessionKey, res.Quantities); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return res, nil
}

// LogSkipped reports a bulk-update pair that was ignored.
func LogSkipped(ctx context.Context, logg *logger.Logger, skipped SkippedPair) {
	fields := map[string]any{
		"key":    skipped.Pair.Key,
		"value":  skipped.Pair.Value,
		"reason": skipped.Reason,
	}
	logg.Warn(logg.WithFields(ctx, fields), "invalid cart key")
}
