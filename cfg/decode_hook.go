package cfg

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

func hookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		s := data.(string)
		switch t {
		case reflect.TypeOf(LogSeverity("")):
			level := strings.ToUpper(s)
			if !validSeverities[LogSeverity(level)] {
				return nil, fmt.Errorf("invalid log severity: %s", s)
			}
			return level, nil
		case reflect.TypeOf(ResolvedPath("")):
			if s == "" {
				return "", nil
			}
			return filepath.Abs(s)
		default:
			return data, nil
		}
	}
}

// DecodeHook composes the mapstructure decode hooks viper.Unmarshal
// uses to turn raw flag/config-file strings into Config's custom
// types (LogSeverity, ResolvedPath).
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		hookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
