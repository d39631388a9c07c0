package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tdex-network/notewallet/internal/config"
	"github.com/tdex-network/notewallet/internal/core/application/background"
	"github.com/tdex-network/notewallet/internal/core/application/pipeline"
	"github.com/tdex-network/notewallet/internal/core/application/pubsub"
	"github.com/tdex-network/notewallet/internal/core/application/records"
	"github.com/tdex-network/notewallet/internal/core/application/vault"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
	"github.com/tdex-network/notewallet/internal/infrastructure/chain"
	"github.com/tdex-network/notewallet/internal/infrastructure/kernel"
	webhookpubsub "github.com/tdex-network/notewallet/internal/infrastructure/pubsub"
	dbbadger "github.com/tdex-network/notewallet/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/notewallet/internal/infrastructure/storage/db/inmemory"
	intercominterface "github.com/tdex-network/notewallet/internal/interfaces/intercom"
	"github.com/tdex-network/notewallet/pkg/locks"
	"github.com/tdex-network/notewallet/pkg/securestore"
	boltstore "github.com/tdex-network/notewallet/pkg/securestore/bolt"
	filestore "github.com/tdex-network/notewallet/pkg/securestore/file"
	inmemorystore "github.com/tdex-network/notewallet/pkg/securestore/inmemory"
	"github.com/tdex-network/notewallet/pkg/stats"
	"github.com/tdex-network/notewallet/pkg/worker"
)

const secureStoreFilename = "storage.db"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	app = &cobra.Command{
		Use:           "walletd",
		Short:         "notewallet daemon",
		Long:          "walletd runs the wallet background: vault, records sync and transaction queue, exposed to front contexts over websocket",
		Version:       formatVersion(),
		RunE:          action,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags = map[string]string{
		config.DatadirKey:         "datadir",
		config.ListenAddressKey:   "listen",
		config.ChainURLKey:        "chain-url",
		config.LogLevelKey:        "log-level",
		config.SecureStoreTypeKey: "secure-store",
		config.DBTypeKey:          "db",
		config.WorkerModeKey:      "worker-mode",
		config.KernelGPUKey:       "gpu",
		config.NoMetricsKey:       "no-metrics",
	}
)

func init() {
	app.Flags().String(flags[config.DatadirKey], "", "the directory where the wallet stores its data")
	app.Flags().String(flags[config.ListenAddressKey], "", "the host:port the intercom interface listens on")
	app.Flags().String(flags[config.ChainURLKey], "", "the endpoint of the chain REST API")
	app.Flags().Int(flags[config.LogLevelKey], 0, "the logging level in range [0, 6]")
	app.Flags().String(flags[config.SecureStoreTypeKey], "", "the secure storage provider, one of bolt, file, inmemory")
	app.Flags().String(flags[config.DBTypeKey], "", "the wallet database, one of badger, inmemory")
	app.Flags().String(flags[config.WorkerModeKey], "", "where proofs are generated, one of worker, inline")
	app.Flags().Bool(flags[config.KernelGPUKey], false, "use the accelerated ownership kernel")
	app.Flags().Bool(flags[config.NoMetricsKey], false, "disable the prometheus endpoint")
}

func main() {
	if err := app.Execute(); err != nil {
		log.Fatal(err)
	}
}

func action(cmd *cobra.Command, _ []string) error {
	bindings := make(map[string]*pflag.Flag, len(flags))
	for key, name := range flags {
		bindings[key] = cmd.Flags().Lookup(name)
	}
	if err := config.InitConfig(bindings); err != nil {
		return err
	}

	log.SetLevel(config.GetLogLevel())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.GetBool(config.EnableProfilerKey) {
		dumped := stats.EnableMemoryStatistics(
			ctx, config.GetDuration(config.StatsIntervalKey),
			filepath.Join(config.GetDatadir(), config.ProfilerLocation),
		)
		defer func() {
			cancel()
			<-dumped
		}()
	}

	storage, err := newSecureStorage()
	if err != nil {
		return fmt.Errorf("error while opening secure storage: %s", err)
	}
	defer storage.Close()

	repoManager, err := newRepoManager()
	if err != nil {
		return fmt.Errorf("error while opening db: %s", err)
	}
	defer repoManager.Close()

	store, err := background.NewStore(storage, vault.Options{
		Iterations: config.GetInt(config.VaultIterationsKey),
	})
	if err != nil {
		return err
	}
	defer store.Close()

	actions, err := background.NewActions(
		store, repoManager.DAppSessionRepository(), config.GetNetworks(),
	)
	if err != nil {
		return err
	}

	chainClient, err := chain.NewClient(chain.Opts{
		URL:               config.GetString(config.ChainURLKey),
		RequestsPerSecond: config.GetInt(config.ChainRequestsPerSecondKey),
		Timeout:           config.GetDuration(config.ChainTimeoutKey),
	})
	if err != nil {
		return err
	}

	webhookPubSub, err := webhookpubsub.NewService(storage)
	if err != nil {
		return err
	}
	webhookSvc, err := pubsub.NewService(webhookPubSub)
	if err != nil {
		return err
	}
	defer webhookSvc.Close()

	runner := worker.NewRunner(
		config.GetWorkerMode(), config.GetInt(config.MaxWorkersKey),
	)
	defer runner.Close()

	clientLock, registry := locks.NewClientLock(), locks.NewRegistry()

	pipelineSvc, err := pipeline.NewService(pipeline.Opts{
		Repo:                repoManager.TransactionRepository(),
		Chain:               chainClient,
		ClientLock:          clientLock,
		Signer:              actions,
		Runner:              runner,
		Locks:               registry,
		MaxWaitBeforeCancel: config.GetDuration(config.MaxWaitBeforeCancelKey),
		OnUpdate: func(tx domain.QueuedTransaction) {
			go func() {
				if err := webhookSvc.PublishTransactionEvent(
					context.Background(), tx,
				); err != nil {
					log.WithError(err).Warn("failed to publish transaction event")
				}
			}()
		},
	})
	if err != nil {
		return err
	}
	monitor := pipeline.NewMonitor(pipelineSvc, pipeline.MonitorOpts{
		PollInterval:   config.GetDuration(config.MonitorPollIntervalKey),
		AutoCloseDelay: config.GetDuration(config.MonitorAutoCloseDelayKey),
	})

	recordsSvc, err := records.NewService(records.Opts{
		Chain:      chainClient,
		ClientLock: clientLock,
		Locks:      registry,
		Keys:       actions,
		Kernel: kernel.New(kernel.Opts{
			UseGPU:    config.GetBool(config.KernelGPUKey),
			BatchSize: config.GetInt(config.KernelBatchSizeKey),
			Workers:   config.GetInt(config.KernelWorkersKey),
		}),
		Prover:      kernel.NewTagProver(runner, config.GetInt(config.MaxWorkersKey)),
		RepoManager: repoManager,
		PageSize:    config.GetInt(config.SyncPageSizeKey),
		OnRecords: func(found []domain.OwnedRecord) {
			go func() {
				if err := webhookSvc.PublishRecordsFoundEvent(
					context.Background(), found,
				); err != nil {
					log.WithError(err).Warn("failed to publish records event")
				}
			}()
		},
	})
	if err != nil {
		return err
	}
	syncer := records.NewSyncer(
		recordsSvc, config.GetDuration(config.SyncIntervalKey), actions.IsReady,
	)

	svc, err := intercominterface.NewService(intercominterface.ServiceOpts{
		Address:      config.GetString(config.ListenAddressKey),
		Origin:       config.GetString(config.OriginKey),
		PasswordFile: config.GetString(config.WalletUnlockPasswordFile),
		NoMetrics:    config.GetBool(config.NoMetricsKey),
		Store:        store,
		Actions:      actions,
		Pipeline:     pipelineSvc,
		Monitor:      monitor,
		Records:      recordsSvc,
		Syncer:       syncer,
		Webhooks:     webhookSvc,
	})
	if err != nil {
		return err
	}

	log.Info("starting daemon")
	defer log.Info("shutdown")

	if err := svc.Start(); err != nil {
		return err
	}
	defer svc.Stop()

	log.Infof(
		"intercom interface is listening on %s",
		config.GetString(config.ListenAddressKey),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-sigChan

	log.Info("shutting down daemon")
	return nil
}

func newSecureStorage() (securestore.SecureStorage, error) {
	dir := filepath.Join(config.GetDatadir(), config.SecureStoreLocation)

	var provider securestore.Provider
	var err error
	switch config.GetString(config.SecureStoreTypeKey) {
	case config.SecureStoreBolt:
		provider, err = boltstore.NewStore(dir, secureStoreFilename)
	case config.SecureStoreFile:
		provider, err = filestore.NewStore(dir)
	default:
		provider = inmemorystore.NewStore()
	}
	if err != nil {
		return nil, err
	}
	return securestore.NewAdapter(provider)
}

func newRepoManager() (ports.RepoManager, error) {
	if config.GetString(config.DBTypeKey) == config.DBInmemory {
		return inmemory.NewRepoManager(), nil
	}
	return dbbadger.NewRepoManager(
		filepath.Join(config.GetDatadir(), config.DbLocation), nil,
	)
}

func formatVersion() string {
	return fmt.Sprintf(
		"Version: %s\nCommit: %s\nDate: %s",
		version, commit, date,
	)
}
