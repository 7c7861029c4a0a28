package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kelsos/filestation/internal/async"
	"github.com/kelsos/filestation/internal/client"
	"github.com/kelsos/filestation/internal/config"
	"github.com/kelsos/filestation/internal/filestation"
	"github.com/kelsos/filestation/internal/logger"
	"github.com/kelsos/filestation/internal/tui"
	"github.com/kelsos/filestation/internal/utils"
)

type rootFlags struct {
	url      string
	user     string
	insecure bool
	timeout  time.Duration
	watch    bool
}

// loadConfig layers flags over environment over defaults.
func (f *rootFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.LoadFromEnvironment()

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.BaseURL = f.url
	}
	if flags.Changed("user") {
		cfg.Username = f.user
	}
	if flags.Changed("insecure") {
		cfg.Insecure = f.insecure
	}
	if flags.Changed("timeout") {
		cfg.OperationTimeout = f.timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// withSession logs in, runs op against a FileStation and logs out again.
// With --watch the asynchronous tasks are shown in the terminal monitor.
func (f *rootFlags) withSession(cmd *cobra.Command, op func(ctx context.Context, fs *filestation.FileStation) error) error {
	cfg, err := f.loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	api := client.NewAPIClient(cfg)
	if err := api.Login(ctx); err != nil {
		return err
	}
	defer func() {
		logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.RequestTimeout)
		defer cancel()
		if err := api.Logout(logoutCtx); err != nil {
			logger.Warn("Logout failed: %v", err)
		}
	}()

	if !f.watch {
		return op(ctx, filestation.New(cfg, api))
	}

	if err := logger.InitFileOnly("logs"); err != nil {
		return err
	}
	defer logger.Close()

	monitor := tui.NewMonitor(cmd.Name(), cfg.OperationTimeout)
	fs := filestation.New(cfg, api, async.WithObserver(monitor))
	return monitor.Run(ctx, 2*time.Second, func(ctx context.Context) error {
		monitor.AddLog(fmt.Sprintf("logged in to %s as %s", cfg.BaseURL, cfg.Username))
		err := op(ctx, fs)
		if err != nil {
			monitor.AddLog(fmt.Sprintf("%s failed: %v", cmd.Name(), err))
		} else {
			monitor.AddLog(cmd.Name() + " finished, logging out")
		}
		return err
	})
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "filestation",
		Short: "A CLI client for the Synology FileStation API",
		Long: `filestation talks to the FileStation web API of a Synology DSM box.
Searches, folder sizes and MD5 sums run as server-side tasks that are polled
until they finish or the operation timeout passes.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.url, "url", "u", "", "Base URL of the DSM web API (env FILESTATION_URL)")
	pf.StringVarP(&flags.user, "user", "", "", "Account to log in with (env FILESTATION_USER)")
	pf.BoolVarP(&flags.insecure, "insecure", "k", false, "Skip TLS certificate verification (env FILESTATION_INSECURE)")
	pf.DurationVarP(&flags.timeout, "timeout", "t", time.Hour, "Deadline for each asynchronous task, 0 disables it (env FILESTATION_OPERATION_TIMEOUT)")
	pf.BoolVarP(&flags.watch, "watch", "w", false, "Show running tasks in a terminal monitor")

	rootCmd.AddCommand(
		newSearchCommand(flags),
		newDirSizeCommand(flags),
		newMD5Command(flags),
		newInfoCommand(flags),
		newSharesCommand(flags),
		newListCommand(flags),
		newStatCommand(flags),
		newPermCommand(flags),
		newRemoveCommand(flags),
		newMkdirCommand(flags),
		newRenameCommand(flags),
		newThumbCommand(flags),
		newDownloadCommand(flags),
		newUploadCommand(flags),
		newPingCommand(flags),
	)

	return rootCmd
}

func main() {
	utils.LoadEnvironment()
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		logger.Fatal("Command failed: %v", err)
	}
}
