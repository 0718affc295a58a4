package cfg

import (
	"path/filepath"
	"testing"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDecodeHook_ParsingSuccess(t *testing.T) {
	type TestConfig struct {
		LogSeverityParam LogSeverity
		PathParam        ResolvedPath
		DurationParam    time.Duration
		StringSliceParam []string
	}

	declareFlags := func() *flag.FlagSet {
		fs := flag.NewFlagSet("test", flag.ExitOnError)
		fs.String("logSeverityParam", "INFO", "")
		fs.String("pathParam", "", "")
		fs.Duration("durationParam", 0, "")
		fs.StringSlice("stringSliceParam", []string{}, "")
		return fs
	}
	bindFlags := func(fs *flag.FlagSet) *viper.Viper {
		v := viper.New()
		v.BindPFlag("LogSeverityParam", fs.Lookup("logSeverityParam"))
		v.BindPFlag("PathParam", fs.Lookup("pathParam"))
		v.BindPFlag("DurationParam", fs.Lookup("durationParam"))
		v.BindPFlag("StringSliceParam", fs.Lookup("stringSliceParam"))
		return v
	}

	tests := []struct {
		name   string
		args   []string
		testFn func(*testing.T, TestConfig)
	}{
		{
			name: "LogSeverityLowercased",
			args: []string{"--logSeverityParam=warning"},
			testFn: func(t *testing.T, c TestConfig) {
				assert.Equal(t, LogSeverity("WARNING"), c.LogSeverityParam)
			},
		},
		{
			name: "PathResolvedToAbsolute",
			args: []string{"--pathParam=./test.txt"},
			testFn: func(t *testing.T, c TestConfig) {
				abs, err := filepath.Abs("./test.txt")
				if assert.NoError(t, err) {
					assert.Equal(t, abs, string(c.PathParam))
				}
			},
		},
		{
			name: "Duration",
			args: []string{"--durationParam=30s"},
			testFn: func(t *testing.T, c TestConfig) {
				assert.Equal(t, 30*time.Second, c.DurationParam)
			},
		},
		{
			name: "StringSlice",
			args: []string{"--stringSliceParam=a,b"},
			testFn: func(t *testing.T, c TestConfig) {
				assert.ElementsMatch(t, []string{"a", "b"}, c.StringSliceParam)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := declareFlags()
			v := bindFlags(fs)
			args := append([]string{"test"}, tc.args...)
			if err := fs.Parse(args); err != nil {
				t.Fatalf("parsing flags: %v", err)
			}

			c := TestConfig{}
			err := v.Unmarshal(&c, viper.DecodeHook(DecodeHook()))
			if assert.NoError(t, err) {
				tc.testFn(t, c)
			}
		})
	}
}

func TestDecodeHook_InvalidLogSeverity(t *testing.T) {
	type TestConfig struct {
		LogSeverityParam LogSeverity
	}
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	fs.String("logSeverityParam", "INFO", "")
	v := viper.New()
	v.BindPFlag("LogSeverityParam", fs.Lookup("logSeverityParam"))

	if err := fs.Parse([]string{"test", "--logSeverityParam=bogus"}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	c := TestConfig{}
	err := v.Unmarshal(&c, viper.DecodeHook(DecodeHook()))
	assert.Error(t, err)
}
