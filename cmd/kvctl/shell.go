package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
)

func newShellCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session: get, set, delete, commit, health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return shellLoop(out)
		},
	}
}

func shellLoop(out io.Writer) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "kv> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          out,
	})
	if err != nil {
		return err
	}
	defer l.Close()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		runShellLine(out, line)
	}
}

// runShellLine splits line like a POSIX shell would, so values may be
// quoted, and runs it as a one-shot kvctl subcommand.
func runShellLine(out io.Writer, line string) {
	args, err := shellwords.Parse(line)
	if err != nil {
		fmt.Fprintf(out, "parse error: %v\n", err)
		return
	}

	cmd := &cobra.Command{Use: "", SilenceUsage: true, SilenceErrors: true}
	cmd.SetOut(out)
	cmd.AddCommand(opCommands(out)...)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
	}
}
