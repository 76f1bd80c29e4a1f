package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/loom/internal/profile"
)

// openStore returns the S3 store when a bucket is configured and the file
// store otherwise.
func openStore(e *env) profile.Store {
	pc := e.cfg.Profile
	if pc.S3Bucket != "" {
		return profile.NewS3Store(profile.NewS3Client(pc.S3Region, pc.S3Endpoint), pc.S3Bucket, pc.S3Prefix)
	}
	return profile.NewFileStore(pc.Dir)
}

func profilesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List and show stored commit profiles",
	}
	cmd.AddCommand(profilesListCmd(opts), profilesShowCmd(opts))
	return cmd
}

func profilesListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			store := openStore(e)
			ids, err := store.List(ctx)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				warn(e.out, "no stored profiles")
				return nil
			}
			for _, id := range ids {
				p, err := store.Load(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "%s  %-10s %s  %d commits\n",
					id, p.Scenario, p.Started.Format("2006-01-02 15:04:05"), len(p.Commits))
			}
			return nil
		},
	}
}

func profilesShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			p, err := openStore(e).Load(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			writeProfile(e.out, p)
			return nil
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
