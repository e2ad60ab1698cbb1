package collector

import (
	"regexp"
	"strconv"
)

var (
	signedDecimalRE = regexp.MustCompile(`-?\d+\.\d+`)
	decimalRE       = regexp.MustCompile(`\d+\.\d+`)
	onuStateRE      = regexp.MustCompile(`ONU state: ([^\r\n]*)`)
)

// onuStates maps the two-character state code reported by the device to its
// ordinal. These devices report O5 with a letter O.
var onuStates = map[string]float64{
	"01": 1,
	"02": 2,
	"03": 3,
	"04": 4,
	"O5": 5,
	"06": 6,
	"07": 7,
}

// Parse extracts the metric value for cmd from the raw response text. The
// second return is false when the response held no usable value.
//
// Numeric rules take the first decimal in the response. Responses carry
// banner noise around a single value of interest, so first match is enough;
// a second unrelated decimal in the output would be picked up silently.
func Parse(cmd Command, response string) (float64, bool) {
	switch cmd.rule {
	case extractSignedDecimal:
		return firstFloat(signedDecimalRE, response)
	case extractDecimal:
		return firstFloat(decimalRE, response)
	case extractONUState:
		m := onuStateRE.FindStringSubmatch(response)
		if m == nil {
			return 0, false
		}
		// unknown codes still publish, as ordinal 0
		return onuStates[m[1]], true
	}
	return 0, false
}

func firstFloat(re *regexp.Regexp, response string) (float64, bool) {
	m := re.FindString(response)
	if m == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
