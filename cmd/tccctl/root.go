package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/tccsite/internal/app/store/content"
	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/app/store/mdfiles"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// envPrefix matches the server's app config prefix, so TCCSITE_STORE_BACKEND
// and friends configure both.
const envPrefix = "TCCSITE"

// cli carries the settings shared by every subcommand.
type cli struct {
	v   *viper.Viper
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:           "tccctl",
		Short:         "Maintenance tool for the content store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(c.v.GetBool("verbose"))
			if err != nil {
				return err
			}
			c.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.String("store-backend", kv.BackendMongo, "Store backend: mongo, badger, sqlite or memory")
	f.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	f.String("mongo-database", "tccsite", "MongoDB database name")
	f.String("mongo-collection", kv.DefaultMongoCollection, "MongoDB collection holding store keys")
	f.String("badger-dir", "./data/badger", "BadgerDB directory")
	f.String("sqlite-path", "./data/tccsite.db", "SQLite database file")
	f.String("key-prefix", "", "Prefix prepended to every store key")
	f.String("content-dir", "./content", "Root directory of the markdown collections")
	f.Uint("connect-attempts", 3, "Store connection attempts before giving up")
	f.Duration("connect-delay", 2*time.Second, "Delay between store connection attempts")
	f.Duration("timeout", 2*time.Minute, "Overall timeout for the command")
	f.BoolP("verbose", "v", false, "Log at debug level")

	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	_ = c.v.BindPFlags(f)

	root.AddCommand(
		c.newMigrateCmd(),
		c.newBackupCmd(),
		c.newRestoreCmd(),
		c.newKeysCmd(),
		newHashTokenCmd(),
	)
	return root
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !verbose {
		cfg.Level.SetLevel(zapcore.InfoLevel)
	}
	return cfg.Build()
}

// commandContext bounds a command by the --timeout flag.
func (c *cli) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.v.GetDuration("timeout"))
}

// connect dials the configured store, retrying per the connect flags.
func (c *cli) connect(ctx context.Context) (*kv.Client, error) {
	dial, err := kv.Dialer(kv.Config{
		Backend:         c.v.GetString("store-backend"),
		MongoURI:        c.v.GetString("mongo-uri"),
		MongoDatabase:   c.v.GetString("mongo-database"),
		MongoCollection: c.v.GetString("mongo-collection"),
		BadgerDir:       c.v.GetString("badger-dir"),
		SQLitePath:      c.v.GetString("sqlite-path"),
	}, c.log)
	if err != nil {
		return nil, err
	}
	store := kv.NewClient(dial, kv.Options{Logger: c.log})
	if err := store.ConnectWithRetry(ctx, c.v.GetUint("connect-attempts"), c.v.GetDuration("connect-delay")); err != nil {
		return nil, fmt.Errorf("connect to %s store: %w", c.v.GetString("store-backend"), err)
	}
	c.log.Debug("connected to store", zap.String("backend", store.BackendName()))
	return store, nil
}

// repository connects and wraps the store in a content repository.
func (c *cli) repository(ctx context.Context) (*content.Repository, error) {
	store, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	files := mdfiles.NewReader(c.v.GetString("content-dir"))
	return content.New(store, files, content.Options{KeyPrefix: c.v.GetString("key-prefix")}, c.log), nil
}

func closeStore(store *kv.Client, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		log.Warn("failed to close store", zap.Error(err))
	}
}
