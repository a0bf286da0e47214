package shipping

import (
	"errors"
	"fmt"
)

// Reason classifies why a shipping charge could not be resolved.
type Reason string

const (
	ReasonNoTable  Reason = "no_table"
	ReasonNoRegion Reason = "no_region"
	ReasonNoTier   Reason = "no_tier"
)

// Error is returned by Calculate when no charge applies.
type Error struct {
	Reason   Reason
	Country  string
	Postcode string
	Weight   int
}

func (e *Error) Error() string {
	switch e.Reason {
	case ReasonNoTable:
		return fmt.Sprintf("shipping table not found for country: %s", e.Country)
	case ReasonNoRegion:
		return fmt.Sprintf("no shipping region for postcode %q in %s", e.Postcode, e.Country)
	case ReasonNoTier:
		return fmt.Sprintf("price shipping not found for weight: %s/%d", e.Country, e.Weight)
	default:
		return "shipping unavailable"
	}
}

// ReasonOf extracts the failure reason, or "" when err is not a shipping error.
func ReasonOf(err error) Reason {
	var shipErr *Error
	if errors.As(err, &shipErr) {
		return shipErr.Reason
	}
	return ""
}
