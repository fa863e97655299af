package marketdata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// flexFloat64 handles JSON values that may be a number, a numeric string
// (possibly with thousands separators), null, or junk. Everything that is
// not a parsable number coerces to 0. This zero-default rule feeds the
// valuation math directly, so missing provider data silently becomes zero
// rather than an error.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		num, err := parseNumericString(s)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// parseNumericString parses a string after stripping thousands separators.
// Empty and "N/A" strings are parse errors; flexFloat64 coerces those to 0
// while price parsing excludes them.
func parseNumericString(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	return strconv.ParseFloat(s, 64)
}
