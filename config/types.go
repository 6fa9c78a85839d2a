package config

// GenesisConfig holds the configuration from genesis.yml. Admin becomes the
// deploying identity: ledger admin and first authorized minter.
type GenesisConfig struct {
	Admin    string   `yaml:"admin"`
	Minters  []string `yaml:"minters"`
	TokenURI string   `yaml:"token_uri"`
}

// ConfigFile is the top-level structure for genesis.yml
type ConfigFile struct {
	Config GenesisConfig `yaml:"config"`
}

// NodeConfig holds the process settings from the node .ini file
type NodeConfig struct {
	ListenAddr  string `ini:"listen_addr"`
	MetricsAddr string `ini:"metrics_addr"`
}

// StorageConfig holds the persistence settings from the node .ini file
type StorageConfig struct {
	Type      string `ini:"type"`
	Directory string `ini:"directory"`
}
