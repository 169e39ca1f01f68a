package configuration

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ThresholdValue is a charge threshold percentage as given in the config
// file. The zero value stands for "factory default"; config files may also
// spell it as the string "default".
type ThresholdValue int

// FactoryDefault is the write-side sentinel some firmware uses instead of
// the literal default percentage.
const FactoryDefault ThresholdValue = 0

// thresholdValueHookFunc returns a mapstructure decode hook that accepts
// integers, numeric strings ("80") and the literal "default" for
// ThresholdValue fields.
func thresholdValueHookFunc() mapstructure.DecodeHookFuncType {
	thresholdType := reflect.TypeOf(ThresholdValue(0))

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != thresholdType {
			return data, nil
		}

		switch v := data.(type) {
		case int:
			return ThresholdValue(v), nil
		case int64:
			return ThresholdValue(v), nil
		case float64:
			return ThresholdValue(v), nil
		case string:
			if strings.EqualFold(strings.TrimSpace(v), "default") {
				return FactoryDefault, nil
			}
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("cannot parse threshold value %q: %w", v, err)
			}
			return ThresholdValue(n), nil
		default:
			return data, nil
		}
	}
}
