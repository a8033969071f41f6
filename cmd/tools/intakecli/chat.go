package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-reception/backend/internal/config"
	"github.com/zhouzirui/z-reception/backend/internal/logging"
	chatmodel "github.com/zhouzirui/z-reception/backend/internal/model/chat"
	"github.com/zhouzirui/z-reception/backend/internal/model/ward"
	"github.com/zhouzirui/z-reception/backend/internal/service/chat"
	"github.com/zhouzirui/z-reception/backend/internal/service/intake"
	"github.com/zhouzirui/z-reception/backend/internal/service/notify"
	"github.com/zhouzirui/z-reception/backend/internal/service/record"
)

func newChatCmd() *cobra.Command {
	var (
		sessionID string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run an intake conversation on stdin/stdout",
		Long: `Reads one message per line and prints the receptionist's reply.
The configured sink and webhook are used unless --dry-run is set.
The session ends at EOF or once the intake completes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dryRun {
				cfg.Sink.Kind = config.SinkNone
				cfg.Notifier.WebhookURL = ""
			}

			svc, closeFn, err := buildService(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			return converse(ctx, svc, sessionID, bufio.NewScanner(cmd.InOrStdin()), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", intake.DefaultSessionID, "Session id to use")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not persist or notify")
	return cmd
}

func buildService(ctx context.Context, cfg *config.Config) (*intake.Service, func(), error) {
	logCfg := cfg.Log
	if logCfg.Level == "info" {
		logCfg.Level = "warn"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, nil, err
	}

	wards := ward.Seed()
	if cfg.WardCatalogFile != "" {
		if wards, err = ward.LoadFile(cfg.WardCatalogFile); err != nil {
			return nil, nil, err
		}
	}

	sink, err := record.Open(ctx, cfg.Sink, logger)
	if err != nil {
		return nil, nil, err
	}
	notifier, err := notify.New(cfg.Notifier)
	if err != nil {
		sink.Close()
		return nil, nil, err
	}

	engine, err := intake.NewEngine(ctx, ward.NewMemoryStore(wards), sink, notifier,
		intake.WithLogger(logger),
		intake.WithNotifyTimeout(cfg.Notifier.Timeout),
	)
	if err != nil {
		sink.Close()
		return nil, nil, err
	}

	closeFn := func() {
		_ = sink.Close()
		_ = logger.Sync()
	}
	return intake.NewService(chat.NewMemoryStore(), engine), closeFn, nil
}

func converse(ctx context.Context, svc *intake.Service, sessionID string, in *bufio.Scanner, out io.Writer) error {
	fmt.Fprint(out, "> ")
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			fmt.Fprint(out, "> ")
			continue
		}

		reply, err := svc.Handle(ctx, sessionID, line)
		if err != nil {
			zap.L().Debug("turn failed", zap.Error(err))
			return err
		}
		fmt.Fprintln(out, reply.Text)

		if reply.Stage == chatmodel.StageComplete {
			return nil
		}
		fmt.Fprint(out, "> ")
	}
	return in.Err()
}
