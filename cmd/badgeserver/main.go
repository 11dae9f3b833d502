package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/badge-oracle/api"
	"github.com/ruteri/badge-oracle/api/badgehandler"
	"github.com/ruteri/badge-oracle/api/oraclehandler"
	"github.com/ruteri/badge-oracle/api/server"
	"github.com/ruteri/badge-oracle/badges"
	"github.com/ruteri/badge-oracle/cmd/flags"
	"github.com/ruteri/badge-oracle/fetch"
	"github.com/ruteri/badge-oracle/interfaces"
	"github.com/ruteri/badge-oracle/kms"
	"github.com/ruteri/badge-oracle/oracle"
	"github.com/ruteri/badge-oracle/store"
	"github.com/urfave/cli/v2"
)

var ServiceLogFlag = flags.LogServiceFlagFn("badge-oracle")

var ListenAddrFlag = &cli.StringFlag{
	Name:    "listen-addr",
	Value:   "127.0.0.1:8080",
	EnvVars: []string{"BADGE_LISTEN_ADDR"},
	Usage:   "address to listen on for API",
}
var DataDirFlag = &cli.StringFlag{
	Name:    "data-dir",
	EnvVars: []string{"BADGE_DATA_DIR"},
	Usage:   "badger data directory. State is kept in memory when empty",
}
var MasterKeyFlag = &cli.StringFlag{
	Name:    "master-key",
	EnvVars: []string{"BADGE_MASTER_KEY"},
	Usage:   "hex-encoded master key (at least 32 bytes) the oracle keys are derived from. A random key is used when empty",
}
var AdminFlag = &cli.StringFlag{
	Name:     "admin",
	Required: true,
	EnvVars:  []string{"BADGE_ADMIN"},
	Usage:    "account administering the gist oracle and the judger",
}
var FetchTimeoutFlag = &cli.DurationFlag{
	Name:    "fetch-timeout",
	Value:   fetch.DefaultTimeout,
	EnvVars: []string{"BADGE_FETCH_TIMEOUT"},
	Usage:   "timeout for fetching gist evidence",
}

func main() {
	app := &cli.App{
		Name:  "badgeserver",
		Usage: "Serve the badge registry, the gist oracle and the judger",
		Flags: append([]cli.Flag{ListenAddrFlag, DataDirFlag, MasterKeyFlag, AdminFlag, FetchTimeoutFlag, ServiceLogFlag}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			admin, err := interfaces.NewAccountIDFromHex(cCtx.String(AdminFlag.Name))
			if err != nil {
				return fmt.Errorf("invalid admin account: %w", err)
			}

			var kmsImpl *kms.SimpleKMS
			if masterKey := cCtx.String(MasterKeyFlag.Name); masterKey != "" {
				kmsImpl, err = kms.NewSimpleKMSFromHex(masterKey)
			} else {
				logger.Warn("No master key configured, oracle keys will not survive a restart")
				kmsImpl, err = kms.NewRandomSimpleKMS()
			}
			if err != nil {
				logger.Error("Failed to initialize KMS", "err", err)
				return err
			}

			dataDir := cCtx.String(DataDirFlag.Name)
			st, err := store.Open(dataDir, logger)
			if err != nil {
				logger.Error("Failed to open store", "dataDir", dataDir, "err", err)
				return err
			}
			defer st.Close()

			registry := badges.NewRegistry(st, logger)
			directory := oracle.NewDirectory(logger)
			directory.RegisterRegistry("badges", registry)

			fetcher := fetch.NewHTTPFetcher(cCtx.Duration(FetchTimeoutFlag.Name), fetch.DefaultMaxBodyBytes, logger)
			gist, err := oracle.NewGistOracle(oracle.GistOracleConfig{Name: "gist", Admin: admin}, kmsImpl, fetcher, st, directory, logger)
			if err != nil {
				logger.Error("Failed to create gist oracle", "err", err)
				return err
			}
			directory.RegisterOracle("gist", gist)

			judger, err := oracle.NewJudger(oracle.JudgerConfig{Name: "judger", Admin: admin}, kmsImpl, directory, st, directory, logger)
			if err != nil {
				logger.Error("Failed to create judger", "err", err)
				return err
			}

			logger.Info("Oracles initialized", "gistAccount", gist.Account().String(), "judgerAccount", judger.Account().String(), "admin", admin.String())

			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(ListenAddrFlag.Name))
			auth := api.NewCallerAuth(cfg.MaxClockSkew, st, logger)
			srv, err := server.New(cfg,
				badgehandler.NewHandler(registry, auth, logger),
				oraclehandler.NewGistHandler("gist", gist, auth, logger),
				oraclehandler.NewJudgerHandler("judger", judger, auth, logger),
			)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			srv.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			srv.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
