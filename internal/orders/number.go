package orders

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const orderNumberAttempts = 5

var orderNumberEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewOrderNumber renders PREFIX-YYYYMMDD-XXXXXXXX with 40 random bits in the
// suffix. The unique index on order_number is the final guarantee.
func NewOrderNumber(prefix string, now time.Time) (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("order number entropy: %w", err)
	}
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = "ORD"
	}
	return fmt.Sprintf("%s-%s-%s", strings.ToUpper(prefix), now.UTC().Format("20060102"), orderNumberEncoding.EncodeToString(buf)), nil
}

func (s *service) nextOrderNumber(ctx context.Context, repo Repository, now time.Time) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := NewOrderNumber(s.cfg.OrderNumberPrefix, now)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		exists, err := repo.OrderNumberExists(ctx, number)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order number")
		}
		if !exists {
			return number, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique order number")
}
