package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/oltops/gpon-exporter/collector"
	"github.com/oltops/gpon-exporter/config"
	"github.com/oltops/gpon-exporter/poller"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
	"go.uber.org/zap"
)

var (
	sc  config.SafeConfig
	log *zap.Logger
)

func main() {
	// parse command line args
	configFile := flag.String("config.file", "", "")
	debug := flag.Bool("debug", false, "")
	flag.Parse()

	level := zap.InfoLevel
	if *debug {
		level = zap.DebugLevel
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	log, _ = zapConfig.Build()
	defer log.Sync()
	log.Info("starting gpon-exporter", zap.String("version", version.Version), zap.String("revision", version.Revision))

	prometheus.MustRegister(version.NewCollector("gpon_exporter"))

	// inital config load
	sc = config.New(*configFile)
	err := sc.LoadConfig()
	if err != nil {
		log.Fatal("error loading config", zap.Any("err", err))
	}

	// setup config reload
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	reloadRequest := make(chan chan error)
	go func() {
		for {
			var err error
			select {
			case <-hup:
				log.Debug("config reload triggerd by SIGHUP")
				err = sc.LoadConfig()
			case reloadResult := <-reloadRequest:
				log.Debug("config reload triggerd by API")
				err = sc.LoadConfig()
				reloadResult <- err
			}
			if err != nil {
				log.Error("error reloading config", zap.Any("err", err))
			} else {
				log.Info("reloaded config")
			}
		}
	}()

	http.HandleFunc("/-/reload", func(w http.ResponseWriter, r *http.Request) {
		reloadResult := make(chan error)
		reloadRequest <- reloadResult
		err := <-reloadResult
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to reload config: %s", err), http.StatusInternalServerError)
		}
	})

	cfg := sc.Get()

	sink := collector.NewPrometheusSink(prometheus.DefaultRegisterer)
	p := poller.New(log, &sc, sink, prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go p.Run(ctx)

	// start http server
	http.Handle(cfg.MetricsPath, promhttp.Handler())
	log.Info("starting http server",
		zap.String("metrics_path", cfg.MetricsPath),
		zap.String("listen", cfg.Listen),
		zap.Int("devices", len(cfg.Devices)))

	err = http.ListenAndServe(cfg.Listen, nil)
	if err != nil {
		log.Fatal("error starting http server", zap.Any("err", err))
	}
}
