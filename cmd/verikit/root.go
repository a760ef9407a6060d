package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"
)

// EnvPrefix starts the names of the environment variables that provide flag
// defaults. The variable of a flag is the prefix followed by the flag name
// in upper case with dashes turned into underscores, e.g. VERIKIT_COUNT.
const EnvPrefix = "VERIKIT_"

// NewRootCommand creates the verikit command with all its subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "verikit",
		Short: "verikit runs constrained-random self-checking benches against " +
			"simulated devices.",
		Long: `verikit runs constrained-random self-checking benches against ` +
			`simulated devices. Every run drives randomized transactions into ` +
			`a device, checks what the device does against a reference model ` +
			`and reports a verdict per transaction.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadEnv,
	}

	rootCmd.PersistentFlags().String("env-file", ".env",
		"File with VERIKIT_* variables that provide flag defaults")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newProtocolsCommand())

	return rootCmd
}

// Execute runs the root command and exits. The exit status is 1 if the
// command fails.
func Execute() {
	err := NewRootCommand().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func loadEnv(cmd *cobra.Command, _ []string) error {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return err
	}

	err = godotenv.Load(envFile)
	if err != nil {
		missing := errors.Is(err, os.ErrNotExist)
		if !missing || cmd.Flags().Changed("env-file") {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	return applyEnvDefaults(cmd.Flags())
}

func envName(flag string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// applyEnvDefaults sets every flag not given on the command line from its
// environment variable.
func applyEnvDefaults(flags *pflag.FlagSet) error {
	var err error

	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}

		value, found := os.LookupEnv(envName(f.Name))
		if !found {
			return
		}

		if setErr := flags.Set(f.Name, value); setErr != nil {
			err = fmt.Errorf("%s: %w", envName(f.Name), setErr)
		}
	})

	return err
}
