package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/notewallet/internal/config"
	"github.com/tdex-network/notewallet/pkg/worker"
)

func TestInitConfig(t *testing.T) {
	datadir := t.TempDir()
	t.Setenv("NOTEWALLET_DATADIR", datadir)
	t.Setenv("NOTEWALLET_NETWORKS", "testnet, mainnet,")
	t.Setenv("NOTEWALLET_SYNC_INTERVAL", "5s")
	t.Setenv("NOTEWALLET_WORKER_MODE", "inline")

	require.NoError(t, config.InitConfig(nil))

	require.Equal(t, datadir, config.GetDatadir())
	require.Equal(t, []string{"testnet", "mainnet"}, config.GetNetworks())
	require.Equal(t, 5*time.Second, config.GetDuration(config.SyncIntervalKey))
	require.Equal(t, worker.ModeInline, config.GetWorkerMode())
	require.Equal(t, config.DBBadger, config.GetString(config.DBTypeKey))
	require.Equal(t, config.SecureStoreBolt, config.GetString(config.SecureStoreTypeKey))

	for _, dir := range []string{config.DbLocation, config.SecureStoreLocation} {
		info, err := os.Stat(filepath.Join(datadir, dir))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}

func TestInitConfigInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"invalid listen address", "NOTEWALLET_LISTEN_ADDRESS", "localhost"},
		{"unknown secure store", "NOTEWALLET_SECURE_STORE_TYPE", "leveldb"},
		{"unknown db", "NOTEWALLET_DB_TYPE", "postgres"},
		{"empty networks", "NOTEWALLET_NETWORKS", " , "},
		{"invalid chain url", "NOTEWALLET_CHAIN_URL", "ftp://chain.io"},
		{"invalid chain rps", "NOTEWALLET_CHAIN_RPS", "0"},
		{"unknown worker mode", "NOTEWALLET_WORKER_MODE", "gpu"},
		{"invalid sync interval", "NOTEWALLET_SYNC_INTERVAL", "0s"},
		{"invalid log level", "NOTEWALLET_LOG_LEVEL", "9"},
		{"missing password file", "NOTEWALLET_WALLET_UNLOCK_PASSWORD_FILE", "/not/existing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NOTEWALLET_DATADIR", t.TempDir())
			t.Setenv(tt.key, tt.value)
			require.Error(t, config.InitConfig(nil))
		})
	}
}

func TestInitConfigFlags(t *testing.T) {
	t.Setenv("NOTEWALLET_DATADIR", t.TempDir())
	t.Setenv("NOTEWALLET_DB_TYPE", config.DBBadger)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "")
	flags.String("listen", "", "")
	require.NoError(t, flags.Parse([]string{"--db", config.DBInmemory}))

	require.NoError(t, config.InitConfig(map[string]*pflag.Flag{
		config.DBTypeKey:        flags.Lookup("db"),
		config.ListenAddressKey: flags.Lookup("listen"),
	}))

	// Flags win over env when set, defaults apply otherwise.
	require.Equal(t, config.DBInmemory, config.GetString(config.DBTypeKey))
	require.Equal(t, "localhost:9494", config.GetString(config.ListenAddressKey))
}
