package testutil

import (
	"fmt"

	"github.com/google/uuid"
)

// RandomEmail returns a unique address so tests sharing a database do not collide.
func RandomEmail() string {
	return fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8])
}
