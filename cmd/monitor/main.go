package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omni/retryables-monitor/config"
	"github.com/omni/retryables-monitor/db"
	"github.com/omni/retryables-monitor/ethclient"
	"github.com/omni/retryables-monitor/logging"
	"github.com/omni/retryables-monitor/monitor"
	"github.com/omni/retryables-monitor/presenter"
	"github.com/omni/retryables-monitor/repository"
	"github.com/omni/retryables-monitor/utils"
)

func main() {
	logger := logging.New()

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		err := http.ListenAndServe(":2112", nil)
		if err != nil {
			logger.WithError(err).Fatal("can't start listener for prometheus metrics")
		}
	}()

	repo := repository.NewRepo(dbConn)
	rollups := cfg.ActiveRollups()
	monitors := make([]*monitor.Monitor, 0, len(rollups))
	presented := make(map[string]*presenter.Rollup, len(rollups))
	ctx, cancel := context.WithCancel(context.Background())
	for _, rollupCfg := range rollups {
		rollupLogger := logger.WithField("rollup_id", rollupCfg.ID)
		l1Chain, l2Chain := rollupCfg.L1.Chain, rollupCfg.L2.Chain
		l1Client, err2 := ethclient.NewClient(l1Chain.RPC.Host, l1Chain.RPC.Timeout, l1Chain.ChainID, l1Chain.RPC.RPS)
		if err2 != nil {
			rollupLogger.WithError(err2).Fatal("can't dial l1 rpc client")
		}
		l2Client, err2 := ethclient.NewClient(l2Chain.RPC.Host, l2Chain.RPC.Timeout, l2Chain.ChainID, l2Chain.RPC.RPS)
		if err2 != nil {
			rollupLogger.WithError(err2).Fatal("can't dial l2 rpc client")
		}

		var signer ethclient.SigningClient
		if rollupCfg.L2.RedeemerPrivateKey != "" {
			key, err3 := utils.ParsePrivateKey(rollupCfg.L2.RedeemerPrivateKey)
			if err3 != nil {
				rollupLogger.WithError(err3).Fatal("can't parse redeemer private key")
			}
			rollupLogger.WithField("redeemer", utils.PrivateKeyAddress(key)).Info("auto redeemer is enabled")
			signer, err3 = ethclient.NewSigningClient(l2Chain.RPC.Host, l2Chain.RPC.Timeout, l2Chain.ChainID, l2Chain.RPC.RPS, key)
			if err3 != nil {
				rollupLogger.WithError(err3).Fatal("can't dial l2 signing rpc client")
			}
		}

		m, err2 := monitor.NewMonitor(ctx, rollupLogger, dbConn, repo, rollupCfg, l1Client, l2Client, signer)
		if err2 != nil {
			rollupLogger.WithError(err2).Fatal("can't initialize rollup monitor")
		}
		monitors = append(monitors, m)
		presented[rollupCfg.ID] = &presenter.Rollup{Config: rollupCfg, L1: l1Client, L2: l2Client}
	}

	if cfg.Presenter != nil {
		pr, err2 := presenter.NewPresenter(logger.WithField("service", "presenter"), repo, presented)
		if err2 != nil {
			logger.WithError(err2).Fatal("can't initialize presenter")
		}
		go func() {
			err := pr.Serve(cfg.Presenter.Host)
			if err != nil {
				logger.WithError(err).Fatal("can't serve presenter")
			}
		}()
	}

	for _, m := range monitors {
		m.Start(ctx)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	for range c {
		cancel()
		logger.Warn("caught CTRL-C, gracefully terminating")
		return
	}
}
