package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Deathfireofdoom/staged-kv-store/internal/client"
	"github.com/spf13/cobra"
)

var (
	serverAddr = "http://127.0.0.1:4000"
	timeout    = 5 * time.Second
)

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "kvctl",
		Short:        "Command line client for the staged-write key/value server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&serverAddr, "server", "s", serverAddr, "server base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", timeout, "per-request timeout")
	root.SetOut(out)

	root.AddCommand(opCommands(out)...)
	root.AddCommand(newShellCommand(out))
	return root
}

// opCommands builds the one-shot operations. The shell reuses them.
func opCommands(out io.Writer) []*cobra.Command {
	return []*cobra.Command{
		{
			Use:                   "get key",
			Short:                 "Read a committed value",
			Args:                  cobra.ExactArgs(1),
			DisableFlagsInUseLine: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(func(ctx context.Context, c *client.Client) error {
					value, ok, err := c.Get(ctx, args[0])
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintf(out, "%s not found\n", args[0])
						return nil
					}
					fmt.Fprintln(out, value)
					return nil
				})
			},
		},
		{
			Use:                   "set key value",
			Short:                 "Stage a write",
			Args:                  cobra.ExactArgs(2),
			DisableFlagsInUseLine: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(func(ctx context.Context, c *client.Client) error {
					existed, err := c.Set(ctx, args[0], args[1])
					if err != nil {
						return err
					}
					if existed {
						fmt.Fprintln(out, "staged (overwrites existing key)")
					} else {
						fmt.Fprintln(out, "staged (new key)")
					}
					return nil
				})
			},
		},
		{
			Use:                   "delete key",
			Short:                 "Stage a delete",
			Args:                  cobra.ExactArgs(1),
			DisableFlagsInUseLine: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(func(ctx context.Context, c *client.Client) error {
					if err := c.Delete(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintln(out, "staged delete")
					return nil
				})
			},
		},
		{
			Use:                   "commit",
			Short:                 "Apply every staged write",
			Args:                  cobra.NoArgs,
			DisableFlagsInUseLine: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(func(ctx context.Context, c *client.Client) error {
					if err := c.Commit(ctx); err != nil {
						return err
					}
					fmt.Fprintln(out, "committed")
					return nil
				})
			},
		},
		{
			Use:                   "health",
			Short:                 "Show server phase, key count and pending actions",
			Args:                  cobra.NoArgs,
			DisableFlagsInUseLine: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(func(ctx context.Context, c *client.Client) error {
					h, err := c.Health(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "phase=%s keys=%d pending=%d\n", h.Phase, h.Keys, h.Pending)
					return nil
				})
			},
		},
	}
}

func withClient(fn func(ctx context.Context, c *client.Client) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx, client.New(serverAddr, nil))
}
