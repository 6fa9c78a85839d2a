package config

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/kanteakoisi/GreenPledge/logx"
)

// LoadGenesisConfig reads and parses the genesis.yml file
func LoadGenesisConfig(path string) (*GenesisConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		logx.Error("CONFIG", fmt.Sprintf("Failed to open genesis file %s: %v", path, err))
		return nil, err
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		logx.Error("CONFIG", fmt.Sprintf("Failed to decode genesis YAML: %v", err))
		return nil, err
	}

	if err := cfgFile.Config.Validate(); err != nil {
		return nil, err
	}

	logx.Info("CONFIG", fmt.Sprintf("Loaded genesis config: admin=%s, minters=%d", cfgFile.Config.Admin, len(cfgFile.Config.Minters)))
	return &cfgFile.Config, nil
}

// Validate rejects a genesis without a deploying identity
func (c *GenesisConfig) Validate() error {
	if c.Admin == "" {
		return fmt.Errorf("genesis admin cannot be empty")
	}
	if len(c.TokenURI) > MaxTokenURILength {
		return fmt.Errorf("genesis token_uri exceeds %d characters", MaxTokenURILength)
	}
	return nil
}

// LoadNodeConfig reads node process settings from an .ini file
func LoadNodeConfig(path string) (*NodeConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	nodeSection := cfg.Section("node")
	nodeCfg := &NodeConfig{}
	err = nodeSection.MapTo(nodeCfg)
	if err != nil {
		return nil, err
	}
	if nodeCfg.ListenAddr == "" {
		nodeCfg.ListenAddr = ":8545"
	}
	return nodeCfg, nil
}

// LoadStorageConfig reads persistence settings from an .ini file
func LoadStorageConfig(path string) (*StorageConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	storageSection := cfg.Section("storage")
	storageCfg := &StorageConfig{}
	err = storageSection.MapTo(storageCfg)
	if err != nil {
		return nil, err
	}
	if storageCfg.Type == "" {
		storageCfg.Type = "leveldb"
	}
	if storageCfg.Directory == "" {
		storageCfg.Directory = "./data"
	}
	return storageCfg, nil
}
