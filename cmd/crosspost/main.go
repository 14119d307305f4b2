package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-crosspost/internal/bootstrap"
	crosspostcmd "github.com/goliatone/go-crosspost/internal/commands/crosspost"
	"github.com/goliatone/go-crosspost/internal/runtimeconfig"
	"github.com/spf13/cobra"
)

var (
	configFile string
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "crosspost",
	Short: "Cross-post blog articles to dev.to, Medium, and Hashnode",
	Long: `crosspost watches a content repository for new blog articles and
republishes them to the configured platforms, keeping cross-links between
articles pointing at each platform's own copy.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Cross-post a single markdown file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		commit, _ := cmd.Flags().GetString("commit")
		notify, _ := cmd.Flags().GetBool("notify")

		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		app, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		return app.Handler.Execute(cmd.Context(), crosspostcmd.ProcessWorkItemCommand{
			FileName:        args[0],
			Commit:          commit,
			Content:         string(content),
			SendStatusEmail: notify,
		})
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Poll the source repository for new articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetBool("once")

		app, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := signalContext(cmd.Context())
		if once {
			return app.Poller.RunOnce(ctx)
		}
		err = app.Poller.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the content webhook endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if app.Webhook == nil {
			return fmt.Errorf("webhook is not enabled in the configuration")
		}

		ctx := signalContext(cmd.Context())
		server := &http.Server{
			Addr:    app.Config.Webhook.Addr,
			Handler: app.Webhook,
		}
		go func() {
			<-ctx.Done()
			server.Shutdown(context.Background())
		}()

		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func buildApp(ctx context.Context) (*bootstrap.App, error) {
	cfg := runtimeconfig.DefaultConfig()
	if configFile != "" {
		loaded, err := runtimeconfig.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if dryRun {
		cfg.Workflow.DryRun = true
	}
	return bootstrap.New(ctx, cfg)
}

func signalContext(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()
	return ctx
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Skip network calls and return stub publish responses")

	runCmd.Flags().String("commit", "local", "Commit identifier for the dedup record key")
	runCmd.Flags().Bool("notify", false, "Send an outcome notification for this run")
	pollCmd.Flags().Bool("once", false, "Run a single polling pass and exit")

	rootCmd.AddCommand(runCmd, pollCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
