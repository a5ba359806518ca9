// AngelaMos | 2026
// schema.go

package schema

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/carterperez-dev/storefront/internal/core"
)

//go:embed schema.sql
var SQL string

// Apply runs the embedded schema. It is idempotent.
func Apply(ctx context.Context, db core.DBTX) error {
	if _, err := db.ExecContext(ctx, SQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
