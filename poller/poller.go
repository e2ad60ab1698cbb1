// Package poller runs the sweep loop: every configured device is polled to
// completion in order, then the loop sleeps the configured interval.
package poller

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/oltops/gpon-exporter/cache"
	"github.com/oltops/gpon-exporter/collector"
	"github.com/oltops/gpon-exporter/config"
	"github.com/oltops/gpon-exporter/telnet"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Poller struct {
	log    *zap.Logger
	sc     *config.SafeConfig
	sink   collector.Sink
	states cache.Cache

	pollSuccess  *prometheus.GaugeVec
	pollDuration *prometheus.GaugeVec

	// dial opens the device session, swapped out in tests
	dial func(log *zap.Logger, host string, port int) (*telnet.Session, error)
}

func New(log *zap.Logger, sc *config.SafeConfig, sink collector.Sink, registry prometheus.Registerer) *Poller {
	pollSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gpon_last_poll_success",
		Help: "Whether the last poll of the device completed without error.",
	}, []string{"ip"})
	registry.MustRegister(pollSuccess)

	pollDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gpon_poll_duration_seconds",
		Help: "Duration of the last poll of the device in seconds.",
	}, []string{"ip"})
	registry.MustRegister(pollDuration)

	return &Poller{
		log:          log,
		sc:           sc,
		sink:         sink,
		states:       cache.New(),
		pollSuccess:  pollSuccess,
		pollDuration: pollDuration,
		dial:         telnet.Dial,
	}
}

// Run sweeps forever until ctx is cancelled. The config is re-read from the
// SafeConfig before each sweep so reloads take effect on the next cycle.
func (p *Poller) Run(ctx context.Context) {
	for {
		cfg := p.sc.Get()
		p.Sweep(ctx, cfg)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(cfg.Interval * float64(time.Second))):
		}
	}
}

// Sweep polls every device once, sequentially. A device failure is logged
// and never stops the sweep.
func (p *Poller) Sweep(ctx context.Context, cfg *config.Config) {
	for _, device := range cfg.Devices {
		select {
		case <-ctx.Done():
			return
		default:
		}

		log := p.log.With(zap.String("target", device.Addr()))
		start := time.Now()
		err := p.pollDevice(log, device)
		p.pollDuration.WithLabelValues(device.Addr()).Set(time.Since(start).Seconds())

		if err != nil {
			log.Error("error polling device", zap.Error(err))
			p.pollSuccess.WithLabelValues(device.Addr()).Set(0)
			// forget the last state so the next success does not log a
			// transition across the observation gap
			p.states.Remove(device.Addr())
			continue
		}
		p.pollSuccess.WithLabelValues(device.Addr()).Set(1)
	}
}

// pollDevice runs one full session: connect, login, run every command in
// table order, parse each response before the next command is sent.
func (p *Poller) pollDevice(log *zap.Logger, device config.Device) error {
	log.Debug("connecting", zap.Int("port", device.Port))
	session, err := p.dial(log, device.Host, device.Port)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Login(device.Username, device.Password); err != nil {
		return err
	}

	for _, cmd := range collector.Commands {
		log.Debug("executing command", zap.String("command", cmd.Text))
		response, err := session.Exec(cmd.Text)
		if err != nil {
			return fmt.Errorf("command %q: %w", cmd.Text, err)
		}

		value, ok := collector.Parse(cmd, response)
		if !ok {
			log.Debug("no value in response", zap.String("command", cmd.Text))
			continue
		}

		if cmd.Metric == collector.MetricONUState {
			p.logStateChange(log, device.Addr(), value)
		}
		p.sink.Observe(cmd.Metric, device.Addr(), value)
		log.Debug("observed value", zap.Stringer("metric", cmd.Metric), zap.Float64("value", value))
	}

	return nil
}

func (p *Poller) logStateChange(log *zap.Logger, addr string, value float64) {
	state := strconv.FormatFloat(value, 'f', -1, 64)
	if prev := p.states.Get(addr); prev != "" && prev != state {
		log.Info("onu state changed", zap.String("from", prev), zap.String("to", state))
	}
	p.states.Set(addr, state)
}
