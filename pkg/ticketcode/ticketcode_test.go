package ticketcode_test

import (
	"strings"
	"testing"

	"event-ticketing/pkg/ticketcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Run("Format", func(t *testing.T) {
		code, err := ticketcode.Generate()
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(code, ticketcode.Prefix))
		assert.Len(t, code, len(ticketcode.Prefix)+ticketcode.CodeLength)

		// 不允許易混淆字元
		body := strings.TrimPrefix(code, ticketcode.Prefix)
		assert.NotContains(t, body, "I")
		assert.NotContains(t, body, "O")
		assert.NotContains(t, body, "0")
		assert.NotContains(t, body, "1")
	})

	t.Run("Distinct - 100 draws", func(t *testing.T) {
		seen := make(map[string]struct{}, 100)
		for i := 0; i < 100; i++ {
			code, err := ticketcode.Generate()
			require.NoError(t, err)
			seen[code] = struct{}{}
		}
		assert.Len(t, seen, 100)
	})
}
