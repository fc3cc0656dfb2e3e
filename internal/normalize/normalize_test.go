package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/identity-resolver/internal/normalize"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "jose garcia", normalize.Fold("José   García!"))
	assert.Equal(t, "acme inc", normalize.Fold("ACME, Inc."))
	assert.Equal(t, "", normalize.Fold("   "))
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0, normalize.Jaccard("Jane Doe", "jane doe"))
	assert.InDelta(t, 0.333, normalize.Jaccard("Jane Doe", "Jane Smith"), 0.01)
	assert.Equal(t, 0.0, normalize.Jaccard("", ""))
}
