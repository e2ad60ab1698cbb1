// Package collector turns raw diagnostic command output into labeled gauge
// observations.
package collector

// Metric identifies one of the exported gauge series.
type Metric int

const (
	MetricBiasCurrent Metric = iota
	MetricRxPower
	MetricTemperature
	MetricTxPower
	MetricVoltage
	MetricONUState
)

func (m Metric) String() string {
	switch m {
	case MetricBiasCurrent:
		return "bias_current"
	case MetricRxPower:
		return "rx_power"
	case MetricTemperature:
		return "temperature"
	case MetricTxPower:
		return "tx_power"
	case MetricVoltage:
		return "voltage"
	case MetricONUState:
		return "onu_state"
	}
	return "unknown"
}

// extractRule selects how a value is pulled out of a command response. The
// rule set is closed, so a tag looked up by switch beats dynamic dispatch.
type extractRule int

const (
	// first match of digits.digits
	extractDecimal extractRule = iota
	// first match of digits.digits with an optional leading minus
	extractSignedDecimal
	// code following "ONU state: ", mapped through the state table
	extractONUState
)

// Command pairs one diagnostic CLI command with the gauge it feeds and the
// rule used to extract the value from the response text.
type Command struct {
	Text   string
	Metric Metric
	rule   extractRule
}

// Commands is the fixed set of diagnostics run on every device, in execution
// order.
var Commands = []Command{
	{"diag pon get transceiver bias-current", MetricBiasCurrent, extractDecimal},
	{"diag pon get transceiver rx-power", MetricRxPower, extractSignedDecimal},
	{"diag pon get transceiver temperature", MetricTemperature, extractDecimal},
	{"diag pon get transceiver tx-power", MetricTxPower, extractSignedDecimal},
	{"diag pon get transceiver voltage", MetricVoltage, extractDecimal},
	{"diag gpon get onu-state", MetricONUState, extractONUState},
}
