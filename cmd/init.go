package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kanteakoisi/GreenPledge/config"
	"github.com/kanteakoisi/GreenPledge/logx"
)

var (
	initAdmin   string
	initDir     string
	initStorage string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a genesis and node config skeleton",
	Long: `Initialize a new ledger deployment by writing:
- a genesis.yml naming the deploying identity as admin and first minter
- a node.ini with listen address and storage settings`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeInitFiles(initAdmin, initDir, initStorage); err != nil {
			logx.Error("CMD", "Init failed:", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initAdmin, "admin", "a", "", "Deploying identity (becomes admin and first minter)")
	initCmd.Flags().StringVarP(&initDir, "dir", "d", "config", "Directory to write config files into")
	initCmd.Flags().StringVarP(&initStorage, "storage", "s", "leveldb", "Storage backend: leveldb, bolt or memory")
	initCmd.MarkFlagRequired("admin")
}

func writeInitFiles(admin, dir, storage string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create config dir: %w", err)
	}

	genesis := config.ConfigFile{
		Config: config.GenesisConfig{
			Admin: admin,
		},
	}
	genesisBytes, err := yaml.Marshal(&genesis)
	if err != nil {
		return fmt.Errorf("could not marshal genesis: %w", err)
	}
	genesisPath := filepath.Join(dir, "genesis.yml")
	if err := os.WriteFile(genesisPath, genesisBytes, 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", genesisPath, err)
	}

	nodeIni := fmt.Sprintf(`[node]
listen_addr = :8545
metrics_addr = :9100

[storage]
type = %s
directory = ./data
`, storage)
	nodePath := filepath.Join(dir, "node.ini")
	if err := os.WriteFile(nodePath, []byte(nodeIni), 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", nodePath, err)
	}

	logx.Info("CMD", fmt.Sprintf("Wrote %s and %s", genesisPath, nodePath))
	return nil
}
