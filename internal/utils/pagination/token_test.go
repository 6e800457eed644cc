package pagination_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/fincore-erp/fincore/internal/utils/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	entryDate := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2025, 3, 14, 9, 26, 53, 589793238, time.UTC)

	token := pagination.EncodeToken(entryDate, createdAt)
	require.NotEmpty(t, token)

	gotEntryDate, gotCreatedAt, err := pagination.DecodeToken(token)
	require.NoError(t, err)
	assert.True(t, entryDate.Equal(gotEntryDate))
	assert.True(t, createdAt.Equal(gotCreatedAt))
}

func TestDecodeToken_InvalidBase64(t *testing.T) {
	_, _, err := pagination.DecodeToken("not-base64!!!")
	assert.Error(t, err)
}

func TestDecodeToken_MissingSeparator(t *testing.T) {
	token := base64.StdEncoding.EncodeToString([]byte("2025-03-14T00:00:00Z"))
	_, _, err := pagination.DecodeToken(token)
	assert.Error(t, err)
}

func TestDecodeToken_BadTimestamps(t *testing.T) {
	token := base64.StdEncoding.EncodeToString([]byte("yesterday|today"))
	_, _, err := pagination.DecodeToken(token)
	assert.Error(t, err)
}
