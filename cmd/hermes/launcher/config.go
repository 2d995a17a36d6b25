package launcher

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-hermes/flags"
	"github.com/rony4d/go-hermes/hermes"
	"github.com/rony4d/go-hermes/integration"
)

// Config aggregates everything the launcher needs to assemble the services.
type Config struct {
	// Preset names the profile the backend, metrics and logging came from.
	Preset  string
	Node    NodeConfig
	Network NetworkConfig
	Store   StoreConfig
	Metrics MetricsConfig
	Sentry  SentryConfig
}

type NodeConfig struct {
	DataDir string
	Name    string
	Logging LoggingConfig
}

type LoggingConfig struct {
	Verbosity int
	Format    string
	Color     bool
}

// NetworkConfig selects a rule set by name. Every other field overrides one
// rule when set.
type NetworkConfig struct {
	Name              string
	StartEpoch        *idx.Epoch
	RegistryAddress   *common.Address
	Operator          *common.Address
	MinTips           *big.Int
	Limit             int
	AnalyticsEndpoint *string
}

type StoreConfig struct {
	Backend string // "bolt" or "memory"
	Path    string // relative to Node.DataDir unless absolute
}

type MetricsConfig struct {
	Enable   bool
	HTTPAddr string
	HTTPPort int
}

type SentryConfig struct {
	DSN string
}

func defaultConfig() Config {
	d := DefaultConfig()
	cfg := Config{
		Node: NodeConfig{
			DataDir: resolvePath(d.Node.DataDir),
			Name:    d.Node.Name,
		},
		Network: NetworkConfig{Name: d.Network.Name},
		Store:   StoreConfig{Path: d.Store.Path},
		Metrics: MetricsConfig{
			HTTPAddr: d.Metrics.HTTPAddr,
			HTTPPort: d.Metrics.HTTPPort,
		},
	}
	cfg.applyPreset(integration.DefaultPreset())
	return cfg
}

// MakeAllConfigs merges defaults, the selected preset, the optional config
// file and CLI overrides, in that order, into a single config.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	if ctx.GlobalIsSet("preset") {
		p, err := integration.GetPresetByName(ctx.GlobalString("preset"))
		if err != nil {
			return Config{}, err
		}
		cfg.applyPreset(p)
	}

	if file := ctx.GlobalString("config"); file != "" {
		if err := loadConfigFile(file, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
	}

	if err := applyCLIOverrides(ctx, &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.presetConfig().Validate(); err != nil {
		return Config{}, err
	}
	if _, err := cfg.Rules(); err != nil {
		return Config{}, err
	}
	if cfg.Store.Backend == integration.StoreBolt {
		if err := ensureDir(cfg.Node.DataDir); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// Rules returns the rules of the configured network with the overrides
// applied.
func (c *Config) Rules() (hermes.Rules, error) {
	r, err := hermes.RulesByName(c.Network.Name)
	if err != nil {
		return hermes.Rules{}, err
	}
	n := c.Network
	if n.StartEpoch != nil {
		r.Ledger.StartEpoch = *n.StartEpoch
	}
	if n.AnalyticsEndpoint != nil {
		r.Ledger.AnalyticsEndpoint = *n.AnalyticsEndpoint
	}
	if n.RegistryAddress != nil {
		r.Registry.Address = *n.RegistryAddress
	}
	if n.Operator != nil {
		r.Batcher.Operator = *n.Operator
	}
	if n.MinTips != nil {
		if n.MinTips.Sign() < 0 {
			return hermes.Rules{}, errors.New("negative batcher min tips")
		}
		r.Batcher.MinTips = new(big.Int).Set(n.MinTips)
	}
	if n.Limit != 0 {
		if n.Limit < 0 {
			return hermes.Rules{}, fmt.Errorf("invalid batcher limit %d", n.Limit)
		}
		r.Batcher.Limit = n.Limit
	}
	return r, nil
}

// StorePath returns the location of the bolt database.
func (c *Config) StorePath() string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(c.Node.DataDir, c.Store.Path)
}

func (c *Config) presetConfig() integration.PresetConfig {
	return integration.PresetConfig{
		Name:          c.Preset,
		StoreBackend:  c.Store.Backend,
		EnableMetrics: c.Metrics.Enable,
		LogVerbosity:  c.Node.Logging.Verbosity,
		LogFormat:     c.Node.Logging.Format,
		LogColor:      c.Node.Logging.Color,
	}
}

func (c *Config) applyPreset(p integration.PresetConfig) {
	merged := c.presetConfig()
	integration.ApplyPreset(&merged, p)

	c.Preset = merged.Name
	c.Store.Backend = merged.StoreBackend
	c.Metrics.Enable = merged.EnableMetrics
	c.Node.Logging = LoggingConfig{
		Verbosity: merged.LogVerbosity,
		Format:    merged.LogFormat,
		Color:     merged.LogColor,
	}
}

// -----------------------------------------------------------------------------
// Config-file / env-file / CLI wiring
// -----------------------------------------------------------------------------

// loadConfigFile decodes a TOML file over cfg. Keys the file sets replace
// the current values, everything else is left alone. Unknown keys are
// rejected so that typos do not go unnoticed.
func loadConfigFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if cfg.Node.DataDir != "" {
		cfg.Node.DataDir = resolvePath(cfg.Node.DataDir)
	}
	return nil
}

// loadEnvFile reads the file named by --envfile and feeds its values to the
// global flags that were given neither on the command line nor through the
// process environment.
func loadEnvFile(ctx *cli.Context) error {
	path := ctx.GlobalString("envfile")
	if path == "" {
		return nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	for name, key := range flags.EnvBindings(ctx.App.Flags) {
		if ctx.GlobalIsSet(name) {
			continue
		}
		if v, ok := env[key]; ok {
			if err := ctx.GlobalSet(name, v); err != nil {
				return fmt.Errorf("env file %s: %s: %w", path, key, err)
			}
		}
	}
	return nil
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) error {
	if ctx.GlobalIsSet("datadir") {
		cfg.Node.DataDir = resolvePath(ctx.GlobalString("datadir"))
	}
	if ctx.GlobalIsSet("store") {
		cfg.Store.Backend = ctx.GlobalString("store")
	}

	if ctx.GlobalIsSet("log.format") {
		cfg.Node.Logging.Format = ctx.GlobalString("log.format")
	}
	if ctx.GlobalIsSet("log.verbosity") {
		cfg.Node.Logging.Verbosity = ctx.GlobalInt("log.verbosity")
	}
	if ctx.GlobalIsSet("log.color") {
		cfg.Node.Logging.Color = ctx.GlobalBool("log.color")
	}
	if ctx.GlobalIsSet("sentry.dsn") {
		cfg.Sentry.DSN = ctx.GlobalString("sentry.dsn")
	}

	if ctx.GlobalIsSet("metrics") {
		cfg.Metrics.Enable = ctx.GlobalBool("metrics")
	}
	if ctx.GlobalIsSet("metrics.addr") {
		cfg.Metrics.HTTPAddr = ctx.GlobalString("metrics.addr")
	}
	if ctx.GlobalIsSet("metrics.port") {
		cfg.Metrics.HTTPPort = ctx.GlobalInt("metrics.port")
	}

	if ctx.GlobalIsSet("network") {
		cfg.Network.Name = ctx.GlobalString("network")
	}
	if ctx.GlobalIsSet("startepoch") {
		v := ctx.GlobalUint64("startepoch")
		if v > uint64(^idx.Epoch(0)) {
			return fmt.Errorf("--startepoch %d out of range", v)
		}
		e := idx.Epoch(v)
		cfg.Network.StartEpoch = &e
	}
	if ctx.GlobalIsSet("registry.address") {
		addr, err := parseAddress("registry.address", ctx.GlobalString("registry.address"))
		if err != nil {
			return err
		}
		cfg.Network.RegistryAddress = &addr
	}
	if ctx.GlobalIsSet("batcher.operator") {
		addr, err := parseAddress("batcher.operator", ctx.GlobalString("batcher.operator"))
		if err != nil {
			return err
		}
		cfg.Network.Operator = &addr
	}
	if ctx.GlobalIsSet("batcher.mintips") {
		v, err := parseAmount(ctx.GlobalString("batcher.mintips"))
		if err != nil {
			return fmt.Errorf("batcher.mintips: %w", err)
		}
		cfg.Network.MinTips = v
	}
	if ctx.GlobalIsSet("batcher.limit") {
		cfg.Network.Limit = ctx.GlobalInt("batcher.limit")
	}
	if ctx.GlobalIsSet("analytics.endpoint") {
		ep := ctx.GlobalString("analytics.endpoint")
		cfg.Network.AnalyticsEndpoint = &ep
	}
	return nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create datadir %s: %w", dir, err)
	}
	return nil
}

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
