package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-gatepass/internal/utils"
)

func TestGenerateTicketCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := utils.GenerateTicketCode()
		require.NoError(t, err)
		assert.Len(t, code, utils.TicketCodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", c), "unexpected character %q in code %s", c, code)
		}
		seen[code] = true
	}
	// 100 draws from a 36^8 space should not collide.
	assert.Len(t, seen, 100)
}

func TestNormalizeTicketCode(t *testing.T) {
	assert.Equal(t, "ABC12345", utils.NormalizeTicketCode("abc12345"))
	assert.Equal(t, "ABC12345", utils.NormalizeTicketCode("  ABC12345 "))
	assert.Equal(t, "", utils.NormalizeTicketCode("   "))
}

func TestGenerateAttemptID(t *testing.T) {
	id := utils.GenerateAttemptID()
	assert.True(t, strings.HasPrefix(id, "scan_"))
	assert.NotEqual(t, id, utils.GenerateAttemptID())
}
