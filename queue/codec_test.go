package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akashmir/harvesh-app-sub004/types"
)

func TestCodecRoundTrip(t *testing.T) {
	req := types.Request{
		Method:             "PUT",
		Service:            "market",
		Path:               "/prices/wheat",
		Headers:            map[string]string{"Authorization": "Bearer token", "X-App-Version": "2.4.1"},
		Body:               []byte(`{"price":184.5}`),
		IdempotencyKey:     "key-123",
		SaveForOfflineSync: true,
		Timeout:            15 * time.Second,
		CreatedAt:          time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
	}

	data, err := encodeRequest(req)
	require.NoError(t, err)

	decoded, err := decodeRequest(data)
	require.NoError(t, err)
	require.Equal(t, req, decoded)
}

func TestCodecEmptyFields(t *testing.T) {
	data, err := encodeRequest(types.Request{Method: "DELETE", Path: "/fields/7"})
	require.NoError(t, err)

	decoded, err := decodeRequest(data)
	require.NoError(t, err)
	require.Equal(t, "DELETE", decoded.Method)
	require.Equal(t, "/fields/7", decoded.Path)
	require.Nil(t, decoded.Headers)
	require.True(t, decoded.CreatedAt.IsZero())
}

func TestCodecRejectsGarbage(t *testing.T) {
	_, err := decodeRequest([]byte{0xc1, 0xde, 0xad})
	require.Error(t, err)
}
