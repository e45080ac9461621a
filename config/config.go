package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug      = "debug"
	ConfigCPUProfile = "cpu-profile"
	ConfigConfigFile = "config-file"

	ConfigTimeLimitPerMove         = "time-limit-per-move"
	ConfigSearchDepthLimit         = "search-depth-limit"
	ConfigQuiescenceExtensionLimit = "quiescence-extension-limit"
	ConfigTTableSizeExponent       = "ttable-size-exponent"
	ConfigTTableRetryLimit         = "ttable-retry-limit"
	ConfigTTableMemoryFraction     = "ttable-memory-fraction"
	ConfigZobristSeed              = "zobrist-seed"
	ConfigAutoplayThreads          = "autoplay-threads"
)

type Config struct {
	viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigCPUProfile, "")
	v.SetDefault(ConfigConfigFile, "")
	v.SetDefault(ConfigTimeLimitPerMove, "3s")
	v.SetDefault(ConfigSearchDepthLimit, 20)
	v.SetDefault(ConfigQuiescenceExtensionLimit, 0)
	v.SetDefault(ConfigTTableSizeExponent, 22)
	v.SetDefault(ConfigTTableRetryLimit, 1)
	v.SetDefault(ConfigTTableMemoryFraction, 0.25)
	v.SetDefault(ConfigZobristSeed, 0)
	v.SetDefault(ConfigAutoplayThreads, 4)
}

// DefaultConfig returns a config with only the default values set.
func DefaultConfig() *Config {
	c := &Config{Viper: *viper.New()}
	setDefaults(&c.Viper)
	return c
}

// Load reads flags from args, then environment variables prefixed with
// ULTIMATE_, then an optional config file. Flags win over the environment,
// which wins over the file.
func (c *Config) Load(args []string) error {
	c.Viper = *viper.New()
	setDefaults(&c.Viper)

	fs := pflag.NewFlagSet("ultimate", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this path")
	fs.String(ConfigConfigFile, "", "read settings from this file (yaml, toml or json)")
	fs.Duration(ConfigTimeLimitPerMove, 0, "time the engine may think per move")
	fs.Int(ConfigSearchDepthLimit, 0, "maximum iterative deepening depth")
	fs.Int(ConfigQuiescenceExtensionLimit, 0, "extra plies searched after a sub-board is won at the horizon")
	fs.Int(ConfigTTableSizeExponent, 0, "transposition table holds 2^n entries")
	fs.Int(ConfigTTableRetryLimit, 0, "extra slots probed on a transposition table collision")
	fs.Float64(ConfigTTableMemoryFraction, 0, "maximum fraction of system memory for one transposition table")
	fs.Uint64(ConfigZobristSeed, 0, "fixed zobrist seed; 0 picks random codewords")
	fs.Int(ConfigAutoplayThreads, 0, "number of games played at once by autoplay")
	if err := fs.Parse(args); err != nil {
		return err
	}
	// Only flags the user actually passed override the defaults.
	var bindErr error
	fs.Visit(func(f *pflag.Flag) {
		if err := c.BindPFlag(f.Name, f); err != nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return bindErr
	}

	c.SetEnvPrefix("ultimate")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if path := c.GetString(ConfigConfigFile); path != "" {
		c.SetConfigFile(path)
		if err := c.ReadInConfig(); err != nil {
			return err
		}
	}
	return nil
}

// SanitizedSettings returns the settings for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
