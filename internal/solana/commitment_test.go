package solana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitmentOrdering(t *testing.T) {
	assert.True(t, Processed < Confirmed)
	assert.True(t, Confirmed < Finalized)
}

func TestParseCommitment(t *testing.T) {
	tests := map[string]CommitmentLevel{
		"":           Processed,
		"processed":  Processed,
		"confirmed":  Confirmed,
		"finalized":  Finalized,
		"max":        Finalized,
	}
	for input, want := range tests {
		got, err := ParseCommitment(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseCommitment("bogus")
	assert.Error(t, err)
}
