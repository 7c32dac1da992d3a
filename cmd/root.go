package cmd

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/radiofrance/podgen/internal/logger"
	"github.com/radiofrance/podgen/pkg/podgen"
)

const (
	defaultLogLevel  = "info"
	defaultNamespace = podgen.DefaultNamespace
)

var (
	workingDir string
	cfgFile    string
)

var rootCmd = &cobra.Command{
	Use: "podgen",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Short: "Generate the Kubernetes pods of workflow tasks",
	Long: `podgen builds the pod running one try of a workflow task, by layering a per-task
override and the task identity on top of a base pod template.

Run podgen --help for more information`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	// Set logger level from flags as early as possible, then load config, then finalize from Viper
	cobra.OnInitialize(preInitLogLevelFromFlags, initConfig, initLogLevel)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.config/.podgen.yaml)")
	rootCmd.PersistentFlags().StringP("log-level", "l", defaultLogLevel,
		`Log level. Can be any standard log-level ("info", "debug", etc...)`)
	rootCmd.PersistentFlags().StringP("namespace", "n", defaultNamespace,
		"Namespace of the task pods, unless the pod override sets one.")
	rootCmd.PersistentFlags().String("image", "",
		"Image of the base container. Required when no pod template file is set.")
	rootCmd.PersistentFlags().String("pod-template-file", "",
		"Path to the YAML or JSON pod template every task pod is built on.")
	rootCmd.PersistentFlags().String("worker-id", "",
		"Id of the scheduler job launching the pods, stored in the podgen-worker label.")

	bindPFlagsSnakeCase(rootCmd.PersistentFlags())

	rootCmd.AddCommand(versionCommand())
	rootCmd.AddCommand(renderCommand())
	rootCmd.AddCommand(selectorCommand())
	rootCmd.AddCommand(labelsCommand())
	rootCmd.AddCommand(podsCommand())
	rootCmd.AddCommand(docgenCommand())
}

func initConfig() {
	var err error

	workingDir, err = os.Getwd()
	cobra.CheckErr(err)

	viper.SetConfigType("yaml")

	if cfgFile != "" {
		// Use config file from the flag.
		setConfigFile(cfgFile)
	} else if val := os.Getenv("PODGEN_CONFIG"); val != "" {
		// Use config file from the env variable.
		setConfigFile(val)
	} else {
		// Add $HOME/.config and current directory as paths for Viper to search for the config file in.
		homeDir, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(path.Join(homeDir, ".config"))
		viper.AddConfigPath(workingDir)

		// Search config file with name ".podgen.yaml" or ".podgen.yml".
		viper.SetConfigName(".podgen")
	}

	// Env vars starting with the PODGEN_ prefix can override any configuration.
	// e.g. PODGEN_LOG_LEVEL, PODGEN_POD_TEMPLATE_FILE, etc...
	viper.SetEnvPrefix("podgen")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	err = viper.ReadInConfig()
	if err != nil {
		// Non-blocking, every setting can come from flags or env.
		logger.Debugf("%s", err)
	} else {
		logger.Infof("Using config file: %s", viper.ConfigFileUsed())
	}
}

func initLogLevel() {
	logLevel := viper.GetString("log_level")
	logger.SetLevel(&logLevel)
}

// preInitLogLevelFromFlags sets the log level from Cobra flags or env before config/env are loaded by Viper,
// so that early logs (like config not found) respect user-provided preference.
// Precedence respected here: flag > env (PODGEN_LOG_LEVEL) > config (handled later in initLogLevel via Viper).
func preInitLogLevelFromFlags() {
	if rootCmd == nil {
		return
	}

	flag := rootCmd.PersistentFlags().Lookup("log-level")
	if flag != nil && flag.Changed {
		val, err := rootCmd.PersistentFlags().GetString("log-level")
		if err == nil {
			logger.SetLevel(&val)
			return
		}
	}

	if val, ok := os.LookupEnv("PODGEN_LOG_LEVEL"); ok && val != "" {
		logger.SetLevel(&val)
	}
}

func setConfigFile(name string) {
	_, err := os.Stat(name)
	if err != nil {
		cobra.CheckErr(fmt.Errorf("config file %q not found", name))
	}

	viper.SetConfigFile(name)
}

// hydrateOptsFromViper copies all the viper values into our config struct.
// The mapping between viper identifiers and struct field names
// is ensured by `mapstructure` struct tags.
func hydrateOptsFromViper(opts any) error {
	if err := viper.Unmarshal(opts); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// bindPFlagsSnakeCase binds the flags with viper values. The identifier of the viper value
// is the name of the flag with dashes replaced by underscores. This is required so we can
// retrieve values from viper with the same behaviour with config coming from files
// (my_config: "value") or from flags (--my-config=value).
func bindPFlagsSnakeCase(flags *pflag.FlagSet) {
	flags.VisitAll(func(flag *pflag.Flag) {
		_ = viper.BindPFlag(strings.ReplaceAll(flag.Name, "-", "_"), flag)
	})
}
