package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	appconfig "github.com/tombolabs/tombola/internal/app-config"
	"github.com/tombolabs/tombola/internal/config"
	"github.com/urfave/cli/v2"
)

// nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "tombolad",
		Usage:   "recurring multi-token pooled lottery daemon",
		Version: fmt.Sprintf("%s (%s, %s)", version, commit, date),
		Action:  runDaemon,
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "print the resolved configuration and exit",
				Action: printConfig,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runDaemon(_ *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	appCfg := &appconfig.Config{
		DbType:        cfg.DbType,
		EventDbType:   cfg.EventDbType,
		DbDir:         cfg.DbDir,
		EventDbDir:    cfg.EventDbDir,
		SchedulerType: cfg.SchedulerType,
		CustodyType:   cfg.CustodyType,
		Owner:         cfg.Owner,
		AutoDraw:      cfg.AutoDraw,
		PoolParams:    cfg.PoolParams(),
	}
	if err := appCfg.Validate(); err != nil {
		return fmt.Errorf("invalid app config: %w", err)
	}

	svc, err := appCfg.AppService()
	if err != nil {
		return err
	}

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, os.Interrupt)
	<-sigChan

	log.Info("shutting down service...")
	svc.Stop()
	appCfg.RepoManager().Close()
	return nil
}

func printConfig(_ *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	fmt.Println(cfg)
	return nil
}
