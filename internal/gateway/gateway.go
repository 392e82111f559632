package gateway

import (
	"context"
	"errors"

	"contactfinder/internal/model"
)

// ErrNotFound means the registry answered and had no match for the query.
// Any other error means we couldn't get an answer at all; the accounting
// layer treats both the same way (no charge), but logs them apart.
var ErrNotFound = errors.New("lookup: no match")

// Lookup answers "what do we know about this company or phone number".
// Implementations own the provider's wire contract; callers only see the
// normalized profile.
type Lookup interface {
	Search(ctx context.Context, query string, kind model.QueryKind) (*model.CompanyProfile, error)
}
