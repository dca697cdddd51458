package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/vasiliy-maslov/velora/internal/cart"
	"github.com/vasiliy-maslov/velora/internal/client"
	"github.com/vasiliy-maslov/velora/internal/geo"
)

var Version = "dev"

// app carries what every subcommand needs once the root command has loaded
// the configuration.
type app struct {
	cfg *cliConfig
	out io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:           "velora",
		Short:         "Velora shopper and admin command line",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

			path, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.velora/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(a.cartCmd())
	rootCmd.AddCommand(a.checkoutCmd())
	rootCmd.AddCommand(a.ordersCmd())
	rootCmd.AddCommand(a.orderCmd())
	rootCmd.AddCommand(a.trackCmd())
	rootCmd.AddCommand(a.adminCmd())

	return rootCmd
}

func (a *app) openCart() (*cart.Store, func(), error) {
	storage, err := cart.NewSQLiteStorage(a.cfg.CartPath)
	if err != nil {
		return nil, nil, err
	}
	return cart.NewStore(storage), func() { _ = storage.Close() }, nil
}

func (a *app) apiClient() *client.Client {
	return client.New(a.cfg.APIURL, a.cfg.Token, a.cfg.Timeout)
}

func (a *app) geoClient() *geo.Client {
	return geo.NewClient(a.cfg.PostalAPIURL, a.cfg.GeocodeAPIURL, a.cfg.Timeout)
}
