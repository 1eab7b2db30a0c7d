package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces order identifiers.
type IDGenerator interface {
	Generate() string
}

// IDPrefix starts every generated order id.
const IDPrefix = "TECHSHOP"

// TimestampGenerator builds ids of the form TECHSHOP-<6 digits>-<5 hex>:
// the last six digits of the Unix millisecond time and the head of a random
// UUID. Ids are unique in practice, not by construction.
//
// Thread-safety: TimestampGenerator is stateless and safe for concurrent use.
type TimestampGenerator struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

// Generate returns a new order id.
func (g TimestampGenerator) Generate() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	stamp := now().UnixMilli() % 1_000_000
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:5]
	return fmt.Sprintf("%s-%06d-%s", IDPrefix, stamp, random)
}
