package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/roundtable/archive"
	"github.com/hupe1980/roundtable/broadcast"
	"github.com/hupe1980/roundtable/config"
	"github.com/hupe1980/roundtable/console"
	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/logging"
	"github.com/hupe1980/roundtable/pipeline"
	"github.com/hupe1980/roundtable/scenario"
	"github.com/hupe1980/roundtable/team"
)

var version = "dev"

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "roundtable: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: roundtable <command>\n\nCommands:\n"+
		"  smalltalk  Two agents chat about their day\n"+
		"  panel      Visionary, planner and skeptic answer once each\n"+
		"  prove      A theorist and an implementer prove a lemma with Lean\n"+
		"  repair     Diagnose, plan and fix the configured Lean file\n"+
		"  history    List archived sessions\n"+
		"  version    Print version\n")
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return errUsage
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "roundtable %s\n", version)
		return nil
	case "smalltalk", "panel", "prove", "repair", "history":
	default:
		printUsage(stderr)
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:     logging.ParseLevel(cfg.Log.Level),
		Format:    cfg.Log.Format,
		Output:    stderr,
		Component: "roundtable",
	})

	if args[0] == "history" {
		return runHistory(cfg, logger, stdout)
	}

	printer := console.New(stdout)
	observers := core.Observers{printer}

	var store *archive.Store
	if cfg.Archive.Path != "" {
		store, err = archive.Open(cfg.Archive.Path, logger.WithComponent("archive"))
		if err != nil {
			return fmt.Errorf("init archive: %w", err)
		}
		defer store.Close()
		observers = append(observers, store)
		logger.Info("archive.enabled", "path", cfg.Archive.Path)
	}

	if cfg.Broadcast.Enabled() {
		pub, closeFn, err := openBroadcast(cfg.Broadcast, logger.WithComponent("broadcast"))
		if err != nil {
			return fmt.Errorf("init broadcast: %w", err)
		}
		defer closeFn()
		observers = append(observers, pub)
	}

	env := &scenario.Env{Config: cfg, Logger: logger, Observer: observers}
	rec := recorder{store: store, logger: logger}

	switch args[0] {
	case "smalltalk":
		conv, err := scenario.SmallTalk(env)
		if err != nil {
			return err
		}
		return runConversation(ctx, "smalltalk", conv, printer, rec)
	case "prove":
		conv, err := scenario.ProverPair(env)
		if err != nil {
			return err
		}
		return runConversation(ctx, "prove", conv, printer, rec)
	case "panel":
		// Contributions are printed with their labels; the raw messages stay off the console.
		env.Observer = observers[1:]
		panel, err := scenario.Panel(env, func(c team.Contribution) { printer.Contribution(c.Label, c.Text) })
		if err != nil {
			return err
		}
		_, err = panel.Run(ctx)
		return err
	default:
		return runRepair(ctx, env, printer, rec)
	}
}

func openBroadcast(cfg config.BroadcastConfig, logger *logging.SessionLogger) (*broadcast.Publisher, func(), error) {
	url := cfg.URL
	var srv *broadcast.Server
	if cfg.Embedded {
		var err error
		srv, err = broadcast.StartServer("127.0.0.1", cfg.Port)
		if err != nil {
			return nil, nil, err
		}
		url = srv.ClientURL()
	}

	pub, err := broadcast.Connect(url, cfg.SubjectPrefix, logger)
	if err != nil {
		if srv != nil {
			srv.Close()
		}
		return nil, nil, err
	}
	logger.Info("broadcast.enabled", "url", url, "subjects", broadcast.SubjectAll(pub.Prefix()))

	return pub, func() {
		if err := pub.Close(); err != nil {
			logger.Warn("broadcast.close", "error", err)
		}
		if srv != nil {
			srv.Close()
		}
	}, nil
}

// recorder finalizes archived sessions.
type recorder struct {
	store  *archive.Store
	logger logging.Logger
}

func (r recorder) finish(name string, res *team.Result) {
	if r.store == nil || res == nil {
		return
	}
	if err := r.store.FinishSession(res.SessionID, name, res.StopReason, res.Turns); err != nil {
		r.logger.Warn("archive.finish.failed", "session_id", res.SessionID, "error", err)
	}
}

func runConversation(ctx context.Context, name string, conv *scenario.Conversation, printer *console.Printer, rec recorder) error {
	res, err := conv.Run(ctx)
	rec.finish(name, res)
	if err != nil {
		return err
	}
	printer.StopReason(res.StopReason)
	return nil
}

func runRepair(ctx context.Context, env *scenario.Env, printer *console.Printer, rec recorder) error {
	pl, err := scenario.Repair(env, func(o *pipeline.Options) {
		o.OnPhase = func(p pipeline.Phase, cycle int) {
			printer.Section(fmt.Sprintf("%s (cycle %d)", p, cycle))
		}
	})
	if err != nil {
		return err
	}

	report, err := pl.Run(ctx)
	if report != nil {
		for _, ph := range report.Phases {
			rec.finish(string(ph.Phase), ph.Result)
		}
	}
	if err != nil {
		return err
	}

	if report.Verified {
		printer.Println(report.Final.String())
	}
	if report.Converged {
		printer.StopReason(fmt.Sprintf("artifact verified after %d cycle(s)", report.Cycles))
	} else {
		printer.StopReason(fmt.Sprintf("artifact still failing after %d cycle(s)", report.Cycles))
	}
	return nil
}

func runHistory(cfg *config.Config, logger *logging.SessionLogger, stdout io.Writer) error {
	if cfg.Archive.Path == "" {
		return errors.New("archive is disabled; set archive.path or ROUNDTABLE_ARCHIVE_PATH")
	}
	store, err := archive.Open(cfg.Archive.Path, logger.WithComponent("archive"))
	if err != nil {
		return fmt.Errorf("init archive: %w", err)
	}
	defer store.Close()

	sessions, err := store.Sessions(20)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		fmt.Fprintf(stdout, "%s  %-10s  %s  messages=%d turns=%d  %s\n",
			s.StartedAt.Local().Format("2006-01-02 15:04"), s.Name, s.ID, s.Messages, s.Turns, s.StopReason)
	}
	return nil
}
