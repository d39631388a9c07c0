package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tdex-network/notewallet/internal/core/application/pipeline"
	"github.com/tdex-network/notewallet/internal/core/application/records"
	"github.com/tdex-network/notewallet/internal/infrastructure/chain"
	"github.com/tdex-network/notewallet/pkg/worker"
)

const (
	// DatadirKey is the local data directory to store the internal state of
	// the daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// ListenAddressKey is the host:port where the intercom interface listens on
	ListenAddressKey = "LISTEN_ADDRESS"
	// OriginKey is the only origin accepted by the intercom interface
	OriginKey = "ORIGIN"
	// NoMetricsKey disables the prometheus endpoint
	NoMetricsKey = "NO_METRICS"
	// SecureStoreTypeKey selects the secure storage provider, one of bolt,
	// file or inmemory
	SecureStoreTypeKey = "SECURE_STORE_TYPE"
	// DBTypeKey selects the wallet database, one of badger or inmemory
	DBTypeKey = "DB_TYPE"
	// WalletUnlockPasswordFile defines full path to a file that contains the
	// password for unlocking the wallet, if provided wallet will be unlocked
	// automatically
	WalletUnlockPasswordFile = "WALLET_UNLOCK_PASSWORD_FILE"
	// NetworksKey is the comma separated list of networks dapps can connect to
	NetworksKey = "NETWORKS"
	// ChainURLKey is the endpoint of the chain REST API
	ChainURLKey = "CHAIN_URL"
	// ChainRequestsPerSecondKey rate limits the requests to the chain
	ChainRequestsPerSecondKey = "CHAIN_RPS"
	// ChainTimeoutKey is the timeout of every request to the chain
	ChainTimeoutKey = "CHAIN_TIMEOUT"
	// KernelGPUKey enables the accelerated ownership kernel
	KernelGPUKey = "KERNEL_GPU"
	// KernelBatchSizeKey is the number of records scanned per kernel call
	KernelBatchSizeKey = "KERNEL_BATCH_SIZE"
	// KernelWorkersKey is the number of workers of the accelerated kernel
	KernelWorkersKey = "KERNEL_WORKERS"
	// WorkerModeKey tells where proofs are generated, either worker or inline
	WorkerModeKey = "WORKER_MODE"
	// MaxWorkersKey is the max number of proofs generated at the same time
	MaxWorkersKey = "MAX_WORKERS"
	// SyncIntervalKey is the interval between two records syncs
	SyncIntervalKey = "SYNC_INTERVAL"
	// SyncPageSizeKey is the number of records fetched per request
	SyncPageSizeKey = "SYNC_PAGE_SIZE"
	// MonitorPollIntervalKey is the interval between two iterations of the
	// transaction loop
	MonitorPollIntervalKey = "MONITOR_POLL_INTERVAL"
	// MonitorAutoCloseDelayKey is how long the idle transaction monitor waits
	// before closing
	MonitorAutoCloseDelayKey = "MONITOR_AUTO_CLOSE_DELAY"
	// MaxWaitBeforeCancelKey is how long a transaction can stay in progress
	// before being cancelled
	MaxWaitBeforeCancelKey = "MAX_WAIT_BEFORE_CANCEL"
	// VaultIterationsKey is the number of pbkdf2 iterations used to derive
	// the vault encryption key
	VaultIterationsKey = "VAULT_ITERATIONS"
	// EnableProfilerKey enables the periodic logging of memory statistics and
	// the dump of the prometheus metrics at shutdown
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval for printing memory statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation          = "db"
	SecureStoreLocation = "securestore"
	ProfilerLocation    = "stats"

	SecureStoreBolt     = "bolt"
	SecureStoreFile     = "file"
	SecureStoreInmemory = "inmemory"

	DBBadger   = "badger"
	DBInmemory = "inmemory"

	defaultListenAddress = "localhost:9494"
	defaultOrigin        = "notewallet"
	defaultNetwork       = "testnet"
	defaultChainURL      = "http://localhost:8080"
)

var (
	vip            *viper.Viper
	defaultDatadir = btcutil.AppDataDir("notewallet", false)

	supportedSecureStores = map[string]struct{}{
		SecureStoreBolt:     {},
		SecureStoreFile:     {},
		SecureStoreInmemory: {},
	}
	supportedDBs = map[string]struct{}{
		DBBadger:   {},
		DBInmemory: {},
	}
)

// InitConfig loads the configuration from the environment, with the given
// command line flags taking precedence when set.
func InitConfig(flags map[string]*pflag.Flag) error {
	vip = viper.New()
	vip.SetEnvPrefix("NOTEWALLET")
	vip.AutomaticEnv()

	for key, flag := range flags {
		if err := vip.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("error while binding flag %s: %s", flag.Name, err)
		}
	}

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, int(log.InfoLevel))
	vip.SetDefault(ListenAddressKey, defaultListenAddress)
	vip.SetDefault(OriginKey, defaultOrigin)
	vip.SetDefault(NoMetricsKey, false)
	vip.SetDefault(SecureStoreTypeKey, SecureStoreBolt)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(NetworksKey, defaultNetwork)
	vip.SetDefault(ChainURLKey, defaultChainURL)
	vip.SetDefault(ChainRequestsPerSecondKey, chain.DefaultRequestsPerSecond)
	vip.SetDefault(ChainTimeoutKey, chain.DefaultTimeout)
	vip.SetDefault(KernelGPUKey, false)
	vip.SetDefault(WorkerModeKey, string(worker.ModeWorker))
	vip.SetDefault(SyncIntervalKey, records.DefaultSyncInterval)
	vip.SetDefault(SyncPageSizeKey, records.DefaultPageSize)
	vip.SetDefault(MonitorPollIntervalKey, pipeline.DefaultPollInterval)
	vip.SetDefault(MonitorAutoCloseDelayKey, pipeline.DefaultAutoCloseDelay)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 10*time.Minute)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func IsSet(key string) bool {
	return vip.IsSet(key)
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetStringSlice(key string) []string {
	return vip.GetStringSlice(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetNetworks returns the list of networks dapps are allowed to connect to.
func GetNetworks() []string {
	networks := make([]string, 0)
	for _, n := range strings.Split(GetString(NetworksKey), ",") {
		if n = strings.TrimSpace(n); n != "" {
			networks = append(networks, n)
		}
	}
	return networks
}

func GetWorkerMode() worker.Mode {
	return worker.Mode(GetString(WorkerModeKey))
}

func GetLogLevel() log.Level {
	return log.Level(GetInt(LogLevelKey))
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, _, err := net.SplitHostPort(GetString(ListenAddressKey)); err != nil {
		return fmt.Errorf("invalid listen address: %s", err)
	}

	if len(GetString(OriginKey)) <= 0 {
		return fmt.Errorf("missing origin")
	}

	if _, ok := supportedSecureStores[GetString(SecureStoreTypeKey)]; !ok {
		return fmt.Errorf(
			"secure store type not supported, must be one of %s",
			strings.Join(keys(supportedSecureStores), ", "),
		)
	}
	if _, ok := supportedDBs[GetString(DBTypeKey)]; !ok {
		return fmt.Errorf(
			"db type not supported, must be one of %s",
			strings.Join(keys(supportedDBs), ", "),
		)
	}

	if len(GetNetworks()) <= 0 {
		return fmt.Errorf("networks must not be empty")
	}

	u, err := url.Parse(GetString(ChainURLKey))
	if err != nil {
		return fmt.Errorf("invalid chain url: %s", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("chain url must be http or https")
	}
	if GetInt(ChainRequestsPerSecondKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", ChainRequestsPerSecondKey)
	}

	mode := GetWorkerMode()
	if mode != worker.ModeWorker && mode != worker.ModeInline {
		return fmt.Errorf(
			"worker mode must be either %s or %s", worker.ModeWorker, worker.ModeInline,
		)
	}

	for _, key := range []string{
		SyncIntervalKey, MonitorPollIntervalKey, MonitorAutoCloseDelayKey,
		StatsIntervalKey,
	} {
		if GetDuration(key) <= 0 {
			return fmt.Errorf("%s must be a positive duration", key)
		}
	}

	level := GetInt(LogLevelKey)
	if level < int(log.PanicLevel) || level > int(log.TraceLevel) {
		return fmt.Errorf("log level must be in range [0, 6]")
	}

	if file := GetString(WalletUnlockPasswordFile); file != "" {
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("password file: %s", err)
		}
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if GetString(DBTypeKey) == DBBadger {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
			return err
		}
	}
	if GetBool(EnableProfilerKey) {
		if err := makeDirectoryIfNotExists(
			filepath.Join(datadir, ProfilerLocation),
		); err != nil {
			return err
		}
	}
	if GetString(SecureStoreTypeKey) != SecureStoreInmemory {
		if err := makeDirectoryIfNotExists(
			filepath.Join(datadir, SecureStoreLocation),
		); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func keys(m map[string]struct{}) []string {
	list := make([]string, 0, len(m))
	for k := range m {
		list = append(list, k)
	}
	return list
}
