package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"auctionbook/internal/config"
	"auctionbook/internal/listing"
	"auctionbook/internal/logger"
	"auctionbook/pkg/client"
	"auctionbook/pkg/offline"
)

// cli carries what every subcommand needs. client and cfg are filled by
// setup unless a test has injected them.
type cli struct {
	apiURL  string
	offline bool
	timeout time.Duration

	cfg    *config.Config
	client *client.Client
	store  offline.Store
	now    func() time.Time
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&cli{now: time.Now})
}

func newRootCmdWith(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "auctionctl",
		Short:         "Record, list and print auction sales",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.teardown()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.apiURL, "api", "", "API base URL (default from API_BASE_URL)")
	flags.BoolVar(&c.offline, "offline", false, "treat the API as unreachable and read the cached snapshot")
	flags.DurationVar(&c.timeout, "timeout", 0, "request timeout (default from CLIENT_TIMEOUT)")

	root.AddCommand(
		newListCmd(c),
		newAddCmd(c),
		newUpdateCmd(c),
		newPayCmd(c),
		newDeleteCmd(c),
		newExportCmd(c),
		newReceiptCmd(c),
		newHealthCmd(c),
		newEventsCmd(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	if c.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		c.cfg = cfg
	}
	logger.Configure(c.cfg.App.LogLevel, c.cfg.App.LogFormat)
	logger.SetOutput(cmd.ErrOrStderr())

	if c.client != nil {
		return nil
	}

	store, err := offline.Open(cmd.Context(), c.cfg.Cache)
	if err != nil {
		logger.Warn("offline cache unavailable", map[string]any{"backend": c.cfg.Cache.Backend, "error": err.Error()})
	} else {
		c.store = store
	}

	baseURL := c.cfg.Client.BaseURL
	if c.apiURL != "" {
		baseURL = c.apiURL
	}
	timeout := c.cfg.Client.Timeout
	if c.timeout > 0 {
		timeout = c.timeout
	}

	opts := []client.Option{client.WithTimeout(timeout)}
	if c.store != nil {
		opts = append(opts, client.WithCache(c.store))
	}
	if c.offline {
		opts = append(opts, client.WithConnectivity(client.Static(false)))
	}
	c.client = client.New(baseURL, opts...)
	return nil
}

func (c *cli) teardown() error {
	if closer, ok := c.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// filterFlags are the list screen filters shared by list and export.
type filterFlags struct {
	search  string
	payment string
	filter  string
	month   string
	date    string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.search, "search", "s", "", "match person name or mobile number")
	flags.StringVar(&f.payment, "payment", string(listing.PaymentAll), "all, paid or unpaid")
	flags.StringVar(&f.filter, "filter", string(listing.DateAll), "all, month or date")
	flags.StringVar(&f.month, "month", "", "month for --filter=month, as YYYY-MM")
	flags.StringVar(&f.date, "date", "", "day for --filter=date, as YYYY-MM-DD")
}

func (f *filterFlags) state() (listing.FilterState, error) {
	return listing.ParseFilterState(f.search, f.payment, f.filter, f.month, f.date)
}
