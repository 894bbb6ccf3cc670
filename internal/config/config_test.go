package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cf, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "8080", cf.ServerPort)
	require.Equal(t, OrderStorePostgres, cf.OrderStore)
	require.Equal(t, ChangeFeedKafka, cf.ChangeFeed)
	require.Equal(t, 1, cf.BulkWorkers)
	require.False(t, cf.StrictTransitions)
	require.Equal(t, 15*time.Second, cf.RendererTimeout)
	require.Equal(t, []string{"localhost:9092"}, cf.KafkaBrokers)
	require.Zero(t, cf.BulkRatePS)
	require.Equal(t, 5, cf.BulkRateBurst)
}

func TestLoad_File(t *testing.T) {
	path := writeEnv(t, `SERVER_PORT=9000
ORDER_STORE=memory
CHANGE_FEED=local
BULK_WORKERS=4
ORDER_STRICT_TRANSITIONS=true
RENDERER_TIMEOUT=3s
KAFKA_BROKERS=k1:9092,k2:9092
`)
	cf, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "9000", cf.ServerPort)
	require.Equal(t, OrderStoreMemory, cf.OrderStore)
	require.Equal(t, ChangeFeedLocal, cf.ChangeFeed)
	require.Equal(t, 4, cf.BulkWorkers)
	require.True(t, cf.StrictTransitions)
	require.Equal(t, 3*time.Second, cf.RendererTimeout)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cf.KafkaBrokers)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeEnv(t, "BULK_WORKERS=4\n")
	t.Setenv("BULK_WORKERS", "8")
	cf, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cf.BulkWorkers)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"store":   "ORDER_STORE=sqlite\n",
		"feed":    "CHANGE_FEED=polling\n",
		"cache":   "PARTNER_CACHE=memcached\n",
		"workers": "BULK_WORKERS=0\n",
		"rate":    "BULK_RATE_PS=-1\n",
		"burst":   "BULK_RATE_PS=2\nBULK_RATE_BURST=0\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeEnv(t, content))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
