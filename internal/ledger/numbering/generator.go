// Package numbering allocates human-readable journal entry numbers,
// serialized per (company, fiscal year). Gaps from abandoned allocations
// are tolerated; duplicates are not.
package numbering

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Prefix is the journal entry number prefix.
const Prefix = "JE"

// Generator reserves the next entry number for a (company, fiscal year)
// pair. Implementations must use an atomic reservation primitive; scanning
// existing rows for max+1 is a race and is not acceptable.
type Generator interface {
	Next(ctx context.Context, companyID uuid.UUID, fiscalYear int) (string, error)
}

// Format renders a reserved counter value as JE-YYYY-NNNNNN.
func Format(fiscalYear int, counter int64) string {
	return fmt.Sprintf("%s-%04d-%06d", Prefix, fiscalYear, counter)
}
