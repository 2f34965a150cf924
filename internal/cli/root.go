// Package cli implements the repose command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ammiranda/repose/config"
	"github.com/ammiranda/repose/logger"
	"github.com/ammiranda/repose/storage"
)

// EnvPrefix prefixes the environment variables read by the command line
const EnvPrefix = "REPOSE"

// app holds the state shared by every command of one invocation
type app struct {
	v        *viper.Viper
	settings *config.ViperProvider
	cfgFile  string
	envFile  string
	log      *zap.Logger
}

// Execute runs the root command against os.Args
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// NewRootCommand builds the command tree with its own configuration state
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New(), log: zap.NewNop()}
	a.settings = config.NewViperProvider(a.v, EnvPrefix)

	root := &cobra.Command{
		Use:           "repose",
		Short:         "Store and browse saved HTTP request collections",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	flags.String("driver", "", "storage driver: sqlite, postgres or memory")
	flags.String("data-dir", "", "directory holding the sqlite database")
	flags.String("cache", "", "read cache: none, memory, redis or dynamodb")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.String("log-file", "", "write logs to this file instead of stderr")

	a.bind("STORAGE_DRIVER", flags.Lookup("driver"))
	a.bind("DATA_DIR", flags.Lookup("data-dir"))
	a.bind("CACHE_BACKEND", flags.Lookup("cache"))
	a.bind("LOG_LEVEL", flags.Lookup("log-level"))
	a.bind("LOG_FILE", flags.Lookup("log-file"))

	root.AddCommand(
		newServeCommand(a),
		newCollectionsCommand(a),
		newNodesCommand(a),
	)
	return root
}

// bind makes key resolve to flag when it is set. BindPFlag only fails for a nil flag.
func (a *app) bind(key string, flag *pflag.Flag) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding %s: %v", key, err))
	}
}

// initConfig reads the dotenv file and the config file, then builds the logger
func (a *app) initConfig() error {
	if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading %s: %w", a.envFile, err)
	}

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	logCfg := &logger.Config{
		Level:      a.v.GetString("LOG_LEVEL"),
		Format:     "console",
		Output:     "stderr",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
	if path := a.v.GetString("LOG_FILE"); path != "" {
		logCfg.Output = "file"
		logCfg.Format = "json"
		logCfg.FilePath = path
	}
	a.log = logger.New(logCfg)
	return nil
}

// provider resolves configuration keys from flags, the config file and REPOSE_
// variables first, then from unprefixed environment variables
func (a *app) provider() config.Provider {
	return config.NewChainProvider(a.settings, config.NewEnvProvider(""))
}

func (a *app) openStorage(ctx context.Context) (*storage.Storage, error) {
	provider := a.provider()
	cfg, err := config.GetStorageConfig(ctx, provider)
	if err != nil {
		return nil, err
	}
	return storage.Open(ctx, cfg, provider, a.log.Named("storage"))
}

// withStorage opens the storage for the duration of fn
func (a *app) withStorage(cmd *cobra.Command, fn func(ctx context.Context, s *storage.Storage) error) (err error) {
	ctx := cmd.Context()
	s, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(ctx, s)
}
