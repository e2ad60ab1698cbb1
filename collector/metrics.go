package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Sink accepts one labeled observation per successfully parsed
// (device, command) pair. Implementations must be safe for reuse across
// sweeps; the last write per (metric, device) wins.
type Sink interface {
	Observe(metric Metric, addr string, value float64)
}

// PrometheusSink publishes observations as gauges labeled by device address.
type PrometheusSink struct {
	gauges map[Metric]*prometheus.GaugeVec
}

func NewPrometheusSink(registry prometheus.Registerer) *PrometheusSink {
	gauges := map[Metric]*prometheus.GaugeVec{}
	add := func(metric Metric, name string, help string) {
		vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: name,
			Help: help,
		}, []string{"ip"})
		registry.MustRegister(vec)
		gauges[metric] = vec
	}

	add(MetricTemperature, "gpon_temperature_celsius", "Temperature of the GPON device in Celsius")
	add(MetricVoltage, "gpon_voltage_volts", "Voltage of the GPON device in Volts")
	add(MetricTxPower, "gpon_tx_power_dbm", "Tx Power of the GPON device in dBm")
	add(MetricRxPower, "gpon_rx_power_dbm", "Rx Power of the GPON device in dBm")
	add(MetricBiasCurrent, "gpon_bias_current_mA", "Bias Current of the GPON device in mA")
	add(MetricONUState, "gpon_onu_state", "ONU State of the GPON device")

	return &PrometheusSink{gauges: gauges}
}

func (s *PrometheusSink) Observe(metric Metric, addr string, value float64) {
	vec, ok := s.gauges[metric]
	if !ok {
		return
	}
	vec.WithLabelValues(addr).Set(value)
}
