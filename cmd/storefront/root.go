package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/config"
	"storefront/internal/kvstore"
	"storefront/internal/logging"
	"storefront/internal/storefront"
)

const closeTimeout = 5 * time.Second

// cli holds the state shared by every subcommand of one invocation.
type cli struct {
	configPath string
	apiURL     string
	storePath  string
	verbose    bool

	logger *zap.Logger
	kv     *kvstore.SQLite
	app    *storefront.App
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront client: browse products, manage the cart and check out",
		Long: `storefront talks to the storefront backend on behalf of one customer.

The session token, email and cart are kept in a local store between runs, so a
cart built with "cart add" survives until checkout or logout.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return c.setup(cmd) },
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&c.apiURL, "api-url", "", "backend base URL (overrides STOREFRONT_API_URL)")
	pf.StringVar(&c.storePath, "store", "", "local store file (overrides STOREFRONT_STORE_PATH)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.statusCmd(),
		c.registerCmd(),
		c.passwordCmd(),
		c.productsCmd(),
		c.cartCmd(),
		c.checkoutCmd(),
		c.profileCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.APIBaseURL = c.apiURL
	}
	if c.storePath != "" {
		cfg.StorePath = c.storePath
	}
	level := cfg.LogLevel
	if c.verbose {
		level = "debug"
	}

	logger, err := logging.New("storefront", level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	c.logger = logger

	ctx := cmd.Context()
	kv, err := kvstore.OpenSQLite(ctx, cfg.StorePath, logger)
	if err != nil {
		return err
	}
	c.kv = kv

	api, err := apiclient.New(cfg.APIBaseURL,
		apiclient.WithTimeout(cfg.RequestTimeout),
		apiclient.WithTokenSource(apiclient.StoredToken(kv)),
		apiclient.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	app := storefront.New(api, kv,
		storefront.WithLogger(logger),
		storefront.WithLogoutOnAnyProfileError(cfg.LogoutOnAnyProfileError),
	)
	c.app = app
	app.Start(ctx)
	return nil
}

// close flushes the cart snapshot and releases the store.
func (c *cli) close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if c.app != nil {
		c.app.Close(ctx)
	}
	if c.kv != nil {
		if err := c.kv.Close(); err != nil {
			c.logger.Warn("close store", zap.Error(err))
		}
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func (c *cli) requireSession() error {
	if !c.app.Session().Authenticated() {
		return storefront.ErrNotSignedIn
	}
	return nil
}
