package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kobzarvs/qscribe/internal/app"
	"github.com/kobzarvs/qscribe/internal/logger"
	"github.com/kobzarvs/qscribe/internal/pattern"
	"github.com/kobzarvs/qscribe/internal/prompt"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "qscribe"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:          programName + " [paths...]",
		Short:        "Multi-document text editor core",
		Long:         "Opens files and project directories into the stored session, searches and replaces across them.",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			watch, _ := cmd.Flags().GetBool("watch")
			return withApp(cmd.Flags(), watch, func(a *app.App) error {
				err := a.Open(args)
				if watch {
					ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
					defer stop()
					return a.Run(ctx)
				}
				return err
			})
		},
	}
	rootCmd.SetVersionTemplate(`{{.Version}}
`)
	app.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.Flags().Bool("watch", false, "Keep running and follow changes on disk until interrupted")

	searchCmd := &cobra.Command{
		Use:   "search PATTERN [LOCATION]",
		Short: "Print every occurrence of PATTERN as path:line:column: text",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Flags(), false, func(a *app.App) error {
				n, err := a.Search(cmd.Context(), args[0], argAt(args, 1), patternSettings(cmd.Flags()))
				if err == nil && n == 0 {
					fmt.Fprintln(cmd.ErrOrStderr(), "no occurrences")
				}
				return err
			})
		},
	}
	app.RegisterPatternFlags(searchCmd.Flags())

	replaceCmd := &cobra.Command{
		Use:   "replace PATTERN REPLACEMENT [LOCATION]",
		Short: "Replace PATTERN in files and write them",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive, _ := cmd.Flags().GetBool("interactive")
			return withApp(cmd.Flags(), false, func(a *app.App) error {
				var confirm prompt.Dialog
				if interactive {
					s, err := tcell.NewScreen()
					if err != nil {
						return err
					}
					if err := s.Init(); err != nil {
						return err
					}
					defer s.Fini()
					confirm = prompt.Terminal{Screen: s, Style: tcell.StyleDefault.Reverse(true)}
				}
				_, err := a.Replace(cmd.Context(), args[0], args[1], argAt(args, 2), patternSettings(cmd.Flags()), confirm)
				return err
			})
		},
	}
	app.RegisterPatternFlags(replaceCmd.Flags())
	replaceCmd.Flags().BoolP("interactive", "i", false, "Ask before writing each file")

	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "List the stored session entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.StoredSession(nil)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), entry)
			}
			return nil
		},
	}

	rootCmd.AddCommand(searchCmd, replaceCmd, sessionCmd)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func withApp(flags *pflag.FlagSet, watch bool, fn func(*app.App) error) error {
	opts, err := app.LoadOptions(flags)
	if err != nil {
		return err
	}
	if err := logger.Setup(opts.LogFile, opts.Debug); err != nil {
		return err
	}
	defer logger.Close()

	a, err := app.New(opts, app.Params{
		Dialog: prompt.Fixed{Answer: prompt.Discard},
		Watch:  watch,
	})
	if err != nil {
		return err
	}
	runErr := fn(a)
	if err := a.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func patternSettings(flags *pflag.FlagSet) pattern.Settings {
	var s pattern.Settings
	s.CaseSensitive, _ = flags.GetBool("case")
	s.WholeWord, _ = flags.GetBool("word")
	s.RegularExpressions, _ = flags.GetBool("regex")
	return s
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
