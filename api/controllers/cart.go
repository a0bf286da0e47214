package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// AddToCartForm is the add-to-cart submission.
type AddToCartForm struct {
	ProductID string `form:"product_id" validate:"required"`
	Quantity  int    `form:"product_quantity"`
}

// CartFetch returns the priced cart.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Get(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(res))
	}
}

// CartAdd adds product_quantity units of product_id. A missing quantity counts as one.
func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := AddToCartForm{Quantity: 1}
		if err := validators.DecodeForm(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(form.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed").
				WithDetails(map[string]string{"product_id": "must be a valid id"}))
			return
		}

		res, err := svc.Add(r.Context(), middleware.SessionIDFromContext(r.Context()), productID, form.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(res))
	}
}

// CartUpdate applies the ordered id/quantity/remove pairs of the cart edit screen.
func CartUpdate(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pairs, skipped, err := validators.DecodeFormPairs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		for _, pair := range skipped {
			cart.LogSkipped(r.Context(), logg, pair)
		}

		res, err := svc.Update(r.Context(), middleware.SessionIDFromContext(r.Context()), pairs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(res))
	}
}
