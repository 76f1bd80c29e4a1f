package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/loom/internal/profile"
)

func simulateCmd(opts *options) *cobra.Command {
	var (
		list  bool
		save  bool
		steps int
	)

	cmd := &cobra.Command{
		Use:   "simulate [scenario]",
		Short: "Run a built-in scenario and print its commit profile",
		Long: `Run a built-in scenario against an in-memory document.

Every scenario mounts a component tree, drives it through events and
checks what reached the document. The commit profile of the run is
printed and, with --save, written to the profile store.

Examples:
  loom simulate --list
  loom simulate counter --steps=20
  loom simulate race --save`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if list || len(args) == 0 {
				listScenarios(e)
				return nil
			}
			sc, err := lookupScenario(args[0])
			if err != nil {
				return err
			}
			return runScenario(commandContext(cmd), e, sc, steps, save)
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List the available scenarios")
	cmd.Flags().BoolVar(&save, "save", false, "Write the profile to the profile store")
	cmd.Flags().IntVarP(&steps, "steps", "n", 5, "Number of events the scenario drives")

	return cmd
}

func listScenarios(e *env) {
	fmt.Fprintln(e.out, titleStyle.Render("Scenarios"))
	for _, name := range scenarioNames() {
		fmt.Fprintln(e.out, field(name, scenarios[name].summary))
	}
}

func runScenario(ctx context.Context, e *env, sc scenario, steps int, save bool) error {
	s := e.newSession(sc.name)
	defer s.Close()

	def, drive := sc.build(s, steps)
	err := s.Mount(def, nil)
	if err == nil {
		err = drive()
	}
	p := s.recorder.Finish()

	fmt.Fprintln(e.out, titleStyle.Render("scenario "+sc.name))
	if err != nil {
		failure(e.out, "%s: %v", sc.name, err)
	} else {
		success(e.out, "%s: %d host patches", sc.name, len(s.Doc.Patches()))
	}
	writeProfile(e.out, p)

	if save {
		if serr := saveProfile(ctx, e, p); serr != nil {
			return serr
		}
	}
	return err
}

func saveProfile(ctx context.Context, e *env, p *profile.Profile) error {
	store := openStore(e)
	if err := store.Save(ctx, p); err != nil {
		return err
	}
	success(e.out, "saved profile %s", p.ID)
	return nil
}
