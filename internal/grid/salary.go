package grid

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/surendarrv/datagrid/internal/utils"
)

// MaxSalary is the inclusive upper bound for an edited salary.
const MaxSalary = 200000

const (
	reasonNotANumber = "Please enter a valid number"
	reasonFractional = "Decimals are not allowed for salary values."
	reasonTooHigh    = "Salary cannot exceed $200,000."
	reasonNegative   = "Salary cannot be negative."
)

// ParseSalary validates raw edit input, failing on the first violation:
// the value must be an integral number, then lie within [0, MaxSalary].
// raw may be a string or any Go numeric type.
func ParseSalary(raw any) (int, error) {
	text := describeInput(raw)

	f, ok := toFloat(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, utils.NewValidationError("salary", text, reasonNotANumber)
	}
	if f != math.Trunc(f) {
		return 0, utils.NewValidationError("salary", text, reasonFractional)
	}
	if f > MaxSalary {
		return 0, utils.NewValidationError("salary", text, reasonTooHigh)
	}
	if f < 0 {
		return 0, utils.NewValidationError("salary", text, reasonNegative)
	}
	return int(f), nil
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func describeInput(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
