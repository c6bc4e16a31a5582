package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"

	"github.com/TEENet-io/ordinals-go/cmd"
	"github.com/TEENet-io/ordinals-go/logconfig"
	"github.com/TEENet-io/ordinals-go/reporter"
)

const (
	ENV_CONFIG_FILE_PATH = "ORDINALS_CONFIG"

	DEFAULT_HTTP_IP   = "0.0.0.0"
	DEFAULT_HTTP_PORT = "3000"
)

func main() {
	if err := MakeCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func MakeCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "ordinals",
		Short: "Inscribes ordinals and collections on bitcoin.",
		Long: `
		Ordinals server builds, signs and broadcasts commit/reveal inscription transactions
		through a bitcoin core node and tracks their confirmations.

		Configuration comes from environment variables, optionally seeded by the file
		named in ORDINALS_CONFIG. Flags override both.`,
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			return loadConfig()
		},
	}
	rootCmd.PersistentFlags().String("http-ip", "", "http address of the server (HTTP_IP)")
	rootCmd.PersistentFlags().String("http-port", "", "http port of the server (HTTP_PORT)")
	_ = viper.BindPFlag("HTTP_IP", rootCmd.PersistentFlags().Lookup("http-ip"))
	_ = viper.BindPFlag("HTTP_PORT", rootCmd.PersistentFlags().Lookup("http-port"))

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the http api and the confirmation tracker until interrupted.",
		RunE: func(c *cobra.Command, args []string) error {
			if err := logconfig.ConfigProductionLogger(viper.GetString("LOG_LEVEL"), viper.GetString("LOG_FILE")); err != nil {
				return err
			}
			fmt.Println("Starting ordinals server... press Ctrl+C to kill the server")
			return cmd.StartOrdinalsServerAndWait(PrepareOrdinalsServerConfig())
		},
	}
	serveCmd.Flags().String("network", "", "default network: mainnet, testnet or regtest (DEFAULT_NETWORK)")
	serveCmd.Flags().Bool("mock-fallback", false, "serve fixture utxos when the node is down (ALLOW_MOCK_FALLBACK)")
	_ = viper.BindPFlag("DEFAULT_NETWORK", serveCmd.Flags().Lookup("network"))
	_ = viper.BindPFlag("ALLOW_MOCK_FALLBACK", serveCmd.Flags().Lookup("mock-fallback"))

	var queryNetwork string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Ask a running server whether its node is connected.",
		RunE: func(c *cobra.Command, args []string) error {
			body, err := reporter.Check(newReader().GetNodeStatus(queryNetwork))
			if err != nil {
				return err
			}
			data := gjson.Get(body, "data")
			fmt.Printf("network=%s connected=%t node=%s\n",
				data.Get("network").String(), data.Get("connected").Bool(), data.Get("nodeUrl").String())
			return nil
		},
	}
	feesCmd := &cobra.Command{
		Use:   "fees",
		Short: "Print the fee estimates (sat/vB) of a running server's node.",
		RunE: func(c *cobra.Command, args []string) error {
			body, err := reporter.Check(newReader().GetNodeInfo(queryNetwork))
			if err != nil {
				return err
			}
			fees := gjson.Get(body, "data.feeEstimates")
			fmt.Printf("chain=%s height=%d\n", gjson.Get(body, "data.chain").String(), gjson.Get(body, "data.blocks").Int())
			for _, tier := range []string{"fastestFee", "halfHourFee", "hourFee", "economyFee", "minimumFee"} {
				fmt.Printf("%-12s %d\n", tier, fees.Get(tier).Int())
			}
			return nil
		},
	}
	for _, c := range []*cobra.Command{statusCmd, feesCmd} {
		c.Flags().StringVar(&queryNetwork, "network", "", "network to ask about, the server default if empty")
	}

	rootCmd.AddCommand(serveCmd, statusCmd, feesCmd)
	return rootCmd
}

// loadConfig reads env vars, plus the config file when one is named.
func loadConfig() error {
	viper.AutomaticEnv()
	viper.SetDefault("BITCOIN_RPC_HOST", "127.0.0.1")
	viper.SetDefault("BITCOIN_RPC_TIMEOUT", "30s")
	viper.SetDefault("HTTP_IP", DEFAULT_HTTP_IP)
	viper.SetDefault("HTTP_PORT", DEFAULT_HTTP_PORT)
	viper.SetDefault("LOG_LEVEL", "info")

	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	if _config_file == "" {
		return nil
	}
	if !cmd.FileExists(_config_file) {
		return fmt.Errorf("ordinals server configuration file not found: %s", _config_file)
	}
	viper.SetConfigFile(_config_file)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading configuration file: %w", err)
	}
	return nil
}

func newReader() *reporter.HttpReader {
	ip := viper.GetString("HTTP_IP")
	if ip == DEFAULT_HTTP_IP {
		ip = "127.0.0.1"
	}
	return reporter.NewHttpReader(ip, viper.GetString("HTTP_PORT"))
}

// PrepareOrdinalsServerConfig reads configuration variables and returns a OrdinalsServerConfig.
func PrepareOrdinalsServerConfig() *cmd.OrdinalsServerConfig {
	return &cmd.OrdinalsServerConfig{
		// btc side
		BtcRpcHost:        viper.GetString("BITCOIN_RPC_HOST"),
		BtcRpcPort:        viper.GetString("BITCOIN_RPC_PORT"),
		BtcRpcTestnetPort: viper.GetString("BITCOIN_RPC_TESTNET_PORT"),
		BtcRpcUsername:    viper.GetString("BITCOIN_RPC_USERNAME"),
		BtcRpcPwd:         viper.GetString("BITCOIN_RPC_PASSWORD"),
		BtcRpcTimeout:     viper.GetDuration("BITCOIN_RPC_TIMEOUT"),
		AllowMockFallback: viper.GetBool("ALLOW_MOCK_FALLBACK"),
		DefaultNetwork:    viper.GetString("DEFAULT_NETWORK"),
		// state side
		DbFilePath:      viper.GetString("DB_FILE_PATH"),
		TrackerInterval: viper.GetDuration("TRACKER_INTERVAL"),
		// Http side
		HttpIp:   viper.GetString("HTTP_IP"),
		HttpPort: viper.GetString("HTTP_PORT"),
	}
}
