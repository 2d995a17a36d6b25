package launcher

// Defaults bundles the baseline configuration values the launcher uses
// before presets, config files and flags override them.
type Defaults struct {
	Node    NodeDefaults
	Network NetworkDefaults
	Store   StoreDefaults
	Metrics MetricsDefaults
}

// NodeDefaults captures process-wide settings.
type NodeDefaults struct {
	DataDir string // root of everything hermes writes; the bolt file lives here
	Name    string // identity attached to every log entry
}

// NetworkDefaults names the rules used when --network is not given.
type NetworkDefaults struct {
	Name string
}

// StoreDefaults configures the database.
type StoreDefaults struct {
	Path string // bolt file name, relative to DataDir unless absolute
}

type MetricsDefaults struct {
	HTTPAddr string
	HTTPPort int
}

// DefaultConfig returns a fully populated Defaults instance. Backend, metrics
// toggle and logging come from integration.DefaultPreset.
func DefaultConfig() Defaults {
	return Defaults{
		Node: NodeDefaults{
			DataDir: "~/.hermes",
			Name:    "hermes",
		},
		Network: NetworkDefaults{
			Name: "fake",
		},
		Store: StoreDefaults{
			Path: "hermes.db",
		},
		Metrics: MetricsDefaults{
			HTTPAddr: "127.0.0.1",
			HTTPPort: 6060,
		},
	}
}
