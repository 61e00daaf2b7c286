package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/omni/retryables-monitor/config"
	"github.com/omni/retryables-monitor/db"
	"github.com/omni/retryables-monitor/ethclient"
	"github.com/omni/retryables-monitor/logging"
	"github.com/omni/retryables-monitor/monitor"
	"github.com/omni/retryables-monitor/repository"
)

var (
	rollupID  = flag.String("rollupId", "", "rollupId to reprocess inbox messages in")
	fromBlock = flag.Uint("fromBlock", 0, "starting L1 block")
	toBlock   = flag.Uint("toBlock", 0, "ending L1 block")
)

func main() {
	flag.Parse()

	logger := logging.New()

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	if *rollupID == "" {
		logger.Fatal("rollupId is not specified")
	}
	rollupCfg, ok := cfg.Rollups[*rollupID]
	if !ok || rollupCfg == nil {
		logger.WithField("rollup_id", *rollupID).Fatal("rollup config for given rollupId is not found")
	}
	if *fromBlock < rollupCfg.L1.StartBlock {
		fromBlock = &rollupCfg.L1.StartBlock
	}
	if *toBlock == 0 {
		logger.Fatal("toBlock is not specified")
	}
	if *toBlock < *fromBlock {
		logger.WithFields(logrus.Fields{
			"from_block": *fromBlock,
			"to_block":   *toBlock,
		}).Fatal("toBlock < fromBlock")
	}

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	repo := repository.NewRepo(dbConn)
	rollupLogger := logger.WithField("rollup_id", rollupCfg.ID)
	l1Chain, l2Chain := rollupCfg.L1.Chain, rollupCfg.L2.Chain
	l1Client, err := ethclient.NewClient(l1Chain.RPC.Host, l1Chain.RPC.Timeout, l1Chain.ChainID, l1Chain.RPC.RPS)
	if err != nil {
		rollupLogger.WithError(err).Fatal("can't dial l1 rpc client")
	}
	l2Client, err := ethclient.NewClient(l2Chain.RPC.Host, l2Chain.RPC.Timeout, l2Chain.ChainID, l2Chain.RPC.RPS)
	if err != nil {
		rollupLogger.WithError(err).Fatal("can't dial l2 rpc client")
	}

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		for range c {
			cancel()
			logger.Warn("caught CTRL-C, gracefully terminating")
			return
		}
	}()

	m, err := monitor.NewMonitor(ctx, rollupLogger, dbConn, repo, rollupCfg, l1Client, l2Client, nil)
	if err != nil {
		rollupLogger.WithError(err).Fatal("can't initialize rollup monitor")
	}

	err = m.ProcessBlockRange(ctx, *fromBlock, *toBlock)
	if err != nil {
		logger.WithError(err).Fatal("can't manually process block range")
	}
}
