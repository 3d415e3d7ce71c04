// Command transcriptfeed subscribes to live meeting transcripts and serves
// them, together with the call-event webhook, over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/transcriptfeed/app"
	"github.com/kbukum/transcriptfeed/bootstrap"
	"github.com/kbukum/transcriptfeed/config"
	"github.com/kbukum/transcriptfeed/logstore"
	"github.com/kbukum/transcriptfeed/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configFile, envFile string
	var showVersion bool

	flags := pflag.NewFlagSet(app.ServiceName, pflag.ContinueOnError)
	flags.StringVarP(&configFile, "config", "c", "", "path to config.yml (default: search ./cmd/transcriptfeed, ./config, .)")
	flags.StringVar(&envFile, "env-file", "", "path to a .env file loaded before the config")
	flags.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println(app.ServiceName, version.GetShortVersion())
		return nil
	}

	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}

	var cfg app.Config
	if err := config.LoadConfig(app.ServiceName, &cfg, opts...); err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version.GetShortVersion()
	}

	cfg.ApplyDefaults()
	logs := logstore.New(cfg.Logs.Capacity)
	a, err := bootstrap.NewApp(&cfg, bootstrap.WithLogSinks(logs))
	if err != nil {
		return err
	}

	svc, err := app.Build(a.Cfg, a.Logger, logs, a.Components.HealthAll)
	if err != nil {
		return err
	}
	for _, c := range svc.Components() {
		if err := a.RegisterComponent(c); err != nil {
			return err
		}
	}
	a.OnStart(func(context.Context) error {
		a.Logger.Info("Webhook endpoint", map[string]interface{}{
			"notification_url": a.Cfg.Graph.WebhookURL(),
			"addr":             svc.Server.Addr(),
		})
		return nil
	})

	return a.Run(context.Background())
}
