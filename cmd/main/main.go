package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-deck/src/api"
	"stock-deck/src/config"
	"stock-deck/src/helpers"
	"stock-deck/src/interfaces"
	"stock-deck/src/logger"
	"stock-deck/src/models"
	"stock-deck/src/network"
	"stock-deck/src/server"
	"stock-deck/src/storage"
	"stock-deck/src/stream"
	"stock-deck/src/utils"
	"stock-deck/src/view"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	symbol := flag.String("symbol", "", "initial symbol to display (overrides nothing if empty)")
	timeframe := flag.String("timeframe", models.Timeframe1D, "initial timeframe")
	flag.Parse()

	// Load config from YAML file
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(conf.LogLevel, conf.Name)

	// 1. Optional tick recorder
	var recorder interfaces.IRecorder
	if conf.Recorder.Enabled {
		switch conf.Recorder.DBType {
		case "postgres":
			recorder = storage.NewPostgresRecorder(conf.MConfig, appLogger)
		default:
			recorder = storage.NewSQLiteRecorder(conf.MConfig, appLogger)
		}
		if err := helpers.RetryWithBackoff(appLogger, "recorder initialization", 3, time.Second, recorder.Initialize); err != nil {
			appLogger.Critical("Failed to init recorder: %v", err)
		}
		defer recorder.Close()
	}

	// 2. Backend REST client
	netMgr := network.NewNetworkManager(conf.MConfig, appLogger)
	backend := api.NewRestClient(conf.MConfig, netMgr, logger.NewLogger(conf.LogLevel, "RestClient"))

	// 3. Live update channel (one per process)
	channel := stream.NewChannel(conf.MConfig, logger.NewLogger(conf.LogLevel, "PushChannel"))
	defer channel.Dispose()

	// 4. Market scheduler for the polling fallback
	scheduler := utils.NewMarketScheduler(logger.NewLogger(conf.LogLevel, "MarketScheduler"))

	// 5. Gateway + ticker view wired together. The view broadcasts every
	// state change into the gateway's fan-out queue.
	var gw *server.Gateway
	tickerView := view.NewTickerView(
		conf.MConfig,
		logger.NewLogger(conf.LogLevel, "TickerView"),
		backend,
		channel,
		scheduler,
		recorder,
		func(state models.MViewState) {
			if gw != nil {
				gw.PublishState(state)
			}
		},
	)
	defer tickerView.Close()

	gw = server.NewGateway(conf.MConfig, appLogger, tickerView, backend, channel)

	// 6. Initial view, when requested
	if *symbol != "" {
		if err := tickerView.Configure(*symbol, *timeframe); err != nil {
			appLogger.Warning("Initial view load failed: %v", err)
		}
	}

	// 7. Shutdown handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Shutting down...")
		gw.Stop()
		tickerView.Close()
		channel.Dispose()
		os.Exit(0)
	}()

	// 8. Serve
	if err := gw.Start(); err != nil {
		appLogger.Critical("Gateway failed: %v", err)
	}
}
