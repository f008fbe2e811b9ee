package wsserver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solfees-xyz/solfees-go/internal/rpcapi"
)

func TestParseFilterDefaultsToEmpty(t *testing.T) {
	filter, rerr := ParseFilter(nil)
	require.Nil(t, rerr)
	assert.Empty(t, filter.ReadWrite)
	assert.Empty(t, filter.ReadOnly)
	assert.Empty(t, filter.Levels)
}

func TestParseFilterRejectsTooManyLevels(t *testing.T) {
	_, rerr := ParseFilter([]byte(`{"config":{"levels":[1,2,3,4,5,6]}}`))
	require.NotNil(t, rerr)
	assert.Equal(t, rpcapi.CodeInvalidParams, rerr.Code)
}

func TestParseFilterRejectsLevelAboveMax(t *testing.T) {
	_, rerr := ParseFilter([]byte(`{"config":{"levels":[10001]}}`))
	require.NotNil(t, rerr)
}

func TestParseFilterRejectsBadPubkey(t *testing.T) {
	_, rerr := ParseFilter([]byte(`{"config":{"readWrite":["not-a-pubkey!!"]}}`))
	require.NotNil(t, rerr)
}

func TestParseFilterRejectsTooManyAccounts(t *testing.T) {
	var keys []string
	for i := 0; i < 65; i++ {
		keys = append(keys, pubkeyFromByte(byte(i%250)).String())
	}
	body := `{"config":{"readWrite":["` + strings.Join(keys, `","`) + `"]}}`
	_, rerr := ParseFilter([]byte(body))
	require.NotNil(t, rerr)
}
