package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kanteakoisi/GreenPledge/config"
	"github.com/kanteakoisi/GreenPledge/events"
	"github.com/kanteakoisi/GreenPledge/exception"
	"github.com/kanteakoisi/GreenPledge/jsonrpc"
	"github.com/kanteakoisi/GreenPledge/ledger"
	"github.com/kanteakoisi/GreenPledge/logx"
	"github.com/kanteakoisi/GreenPledge/monitoring"
	"github.com/kanteakoisi/GreenPledge/store"
)

var (
	genesisPath string
	nodeConfig  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the carbon credit ledger node",
	Run: func(cmd *cobra.Command, args []string) {
		runNode(genesisPath, nodeConfig)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&genesisPath, "genesis", "g", "config/genesis.yml", "Path to the genesis YAML file")
	runCmd.Flags().StringVarP(&nodeConfig, "config", "c", "config/node.ini", "Path to the node INI file")
}

func runNode(genesisPath, nodeConfigPath string) {
	genesis, err := config.LoadGenesisConfig(genesisPath)
	if err != nil {
		logx.Error("NODE", "Failed to load genesis config:", err)
		os.Exit(1)
	}
	nodeCfg, err := config.LoadNodeConfig(nodeConfigPath)
	if err != nil {
		logx.Error("NODE", "Failed to load node config:", err)
		os.Exit(1)
	}
	storageCfg, err := config.LoadStorageConfig(nodeConfigPath)
	if err != nil {
		logx.Error("NODE", "Failed to load storage config:", err)
		os.Exit(1)
	}

	monitoring.InitMetrics()

	factory := store.NewStoreFactory()
	creditStore, journalStore, stateStore, provider, err := factory.CreateStoresWithProvider(&store.StoreConfig{
		Type:      store.StoreType(storageCfg.Type),
		Directory: storageCfg.Directory,
	})
	if err != nil {
		logx.Error("NODE", "Failed to open stores:", err)
		os.Exit(1)
	}
	defer func() {
		if err := provider.Close(); err != nil {
			logx.Error("NODE", "Failed to close store provider:", err)
		}
	}()

	eventBus := events.NewEventBus()
	lgr := ledger.NewLedger(creditStore, journalStore, stateStore, provider, eventBus, ledger.NewSystemClock())
	if err := lgr.Initialize(genesis); err != nil {
		logx.Error("NODE", "Failed to initialize ledger:", err)
		os.Exit(1)
	}
	if _, err := lgr.CheckConservation(); err != nil {
		logx.Error("NODE", "Ledger state is inconsistent:", err)
		os.Exit(1)
	}

	rpcMux := http.NewServeMux()
	rpcServer := jsonrpc.NewServer(nodeCfg.ListenAddr, lgr)
	rpcServer.SetCORSConfig(jsonrpc.CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	rpcServer.Start(rpcMux)
	exception.SafeGoWithPanic("jsonrpc", func() {
		if err := http.ListenAndServe(nodeCfg.ListenAddr, rpcMux); err != nil {
			logx.Error("NODE", "JSON-RPC server stopped:", err)
		}
	})
	logx.Info("NODE", fmt.Sprintf("JSON-RPC listening on %s", nodeCfg.ListenAddr))

	if nodeCfg.MetricsAddr != "" {
		metricsMux := http.NewServeMux()
		monitoring.RegisterMetrics(metricsMux)
		exception.SafeGo("metrics", func() {
			if err := http.ListenAndServe(nodeCfg.MetricsAddr, metricsMux); err != nil {
				logx.Error("NODE", "Metrics server stopped:", err)
			}
		})
		logx.Info("NODE", fmt.Sprintf("Metrics listening on %s", nodeCfg.MetricsAddr))
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	logx.Info("NODE", fmt.Sprintf("Received signal %s, shutting down", sig))
}
