package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	lerrors "github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/pkg/inspect"
)

func inspectCmd(opts *options) *cobra.Command {
	var (
		addr  string
		steps int
		save  bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [scenario]",
		Short: "Serve a live inspector for a mounted scenario",
		Long: `Mount a scenario and serve its tree over HTTP until interrupted.

Routes:
  GET  /snapshot                 tree and scheduler state
  GET  /html                     serialized document
  POST /dispatch/{hid}/{event}   fire a host event
  GET  /events                   WebSocket stream of scheduler events
  GET  /metrics                  Prometheus metrics

Examples:
  loom inspect
  loom inspect list --addr=:7070`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			name := "counter"
			if len(args) == 1 {
				name = args[0]
			}
			sc, err := lookupScenario(name)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = e.cfg.Inspect.Addr
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runInspector(ctx, e, sc, addr, steps, save)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from loom.toml)")
	cmd.Flags().IntVarP(&steps, "steps", "n", 5, "Size parameter passed to the scenario")
	cmd.Flags().BoolVar(&save, "save", false, "Write the profile to the profile store on exit")

	return cmd
}

func runInspector(ctx context.Context, e *env, sc scenario, addr string, steps int, save bool) error {
	hub := inspect.NewHub(e.cfg.Inspect.Buffer, e.logger)
	s := e.newSession(sc.name, hub)
	defer s.Close()

	def, _ := sc.build(s, steps)
	if err := s.Mount(def, nil); err != nil {
		return err
	}

	server := inspect.New(s.App, &inspect.Config{
		Document: s.Doc,
		Gatherer: s.registry,
		Logger:   e.logger,
		Hub:      hub,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		s.Loop.Run(ctx)
	}()

	fmt.Fprintln(e.out, titleStyle.Render("inspect "+sc.name))
	fmt.Fprintln(e.out, field("Listening", "http://"+addr))
	fmt.Fprintln(e.out, field("Events", "ws://"+addr+"/events"))

	err := server.Serve(ctx, addr)
	cancel()
	<-stopped
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return lerrors.New("L201").WithDetail(fmt.Sprintf("Could not listen on %s.", addr)).Wrap(err)
	}

	p := s.recorder.Finish()
	if save {
		return saveProfile(context.Background(), e, p)
	}
	return nil
}
