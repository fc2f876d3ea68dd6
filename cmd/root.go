/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/gofluid/model_problems/Fluid2D"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gofluid",
	Short: "Real time two dimensional stable fluids solver",
	Long: `
Solves the incompressible Euler equations on a uniform grid using the stable
fluids method: vorticity confinement, semi-Lagrangian advection and a Jacobi
pressure projection, driven by splats of dye and momentum.

gofluid 2D -I case.yaml -o run1
gofluid view`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			logger *slog.Logger
		)
		if logger, err = NewLogger(os.Stderr, viper.GetString("logLevel"), viper.GetString("logFormat")); err != nil {
			return
		}
		slog.SetDefault(logger)
		Fluid2D.SetLogger(logger)
		return
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gofluid.yaml)")
	rootCmd.PersistentFlags().String("logLevel", "warn", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("logFormat", "text", "log format: text or json")
	rootCmd.PersistentFlags().Int("procLimit", 0, "maximum goroutines per solver pass, 0 uses every CPU")
	for _, key := range []string{"logLevel", "logFormat", "procLimit"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".gofluid")
	}
	viper.SetEnvPrefix("GOFLUID")
	viper.AutomaticEnv() // read in environment variables that match

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// NewLogger builds the slog logger selected by the logLevel and logFormat settings.
func NewLogger(w io.Writer, level, format string) (logger *slog.Logger, err error) {
	var (
		lvl     slog.Level
		handler slog.Handler
	)
	if err = lvl.UnmarshalText([]byte(level)); err != nil {
		err = fmt.Errorf("log level %q: %w", level, err)
		return
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		err = fmt.Errorf("unknown log format %q", format)
		return
	}
	logger = slog.New(handler)
	return
}

// solverConfig is the solver configuration for an input file, limited by procLimit.
func solverConfig(up Fluid2D.ConfigUpdate) (cfg Fluid2D.Config) {
	cfg = Fluid2D.DefaultConfig().Merge(up)
	cfg.ParallelDegree = viper.GetInt("procLimit")
	return
}
