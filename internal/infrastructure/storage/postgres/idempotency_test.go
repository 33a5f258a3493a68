package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdempotencyWritesAreGuardedByClaim(t *testing.T) {
	for name, query := range map[string]string{
		"complete": completeIdempotencySQL,
		"release":  releaseIdempotencySQL,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, query, "created_at = $", "a reclaimed key must not be touched by its previous owner")
			assert.Contains(t, query, "status = $")
		})
	}
}
