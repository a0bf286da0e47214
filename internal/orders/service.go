package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// HistoryKey is the session slot listing the orders placed by that session.
const HistoryKey = "orders"

const historyLimit = 20

type sessionStore interface {
	Load(ctx context.Context, sessionID, name string, dest any) (bool, error)
	Save(ctx context.Context, sessionID, name string, value any) error
}

// Service exposes placed orders to the session that placed them.
type Service interface {
	Get(ctx context.Context, sessionID string, id uuid.UUID) (*models.Order, error)
	Remember(ctx context.Context, sessionID string, id uuid.UUID) error
}

type service struct {
	repo     Repository
	sessions sessionStore
}

// NewService builds the orders read service.
func NewService(repo Repository, sessions sessionStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	return &service{repo: repo, sessions: sessions}, nil
}

// Get loads an order. Orders the session did not place read as not found.
func (s *service) Get(ctx context.Context, sessionID string, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	history, err := s.history(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !containsID(history, id) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// Remember records the order in the session history, keeping the newest entries.
func (s *service) Remember(ctx context.Context, sessionID string, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	history, err := s.history(ctx, sessionID)
	if err != nil {
		return err
	}
	if containsID(history, id) {
		return nil
	}
	history = append(history, id)
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	if err := s.sessions.Save(ctx, sessionID, HistoryKey, history); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order history")
	}
	return nil
}

func (s *service) history(ctx context.Context, sessionID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if _, err := s.sessions.Load(ctx, sessionID, HistoryKey, &ids); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order history")
	}
	return ids, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
