// Package main provides the labcore binary: command-line access to the
// sample tracking core against the configured persistence backend. Commands
// authenticate with credentials from the config file and dispatch typed
// commands through the service router.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"labcore/internal/report"
	"labcore/internal/service"
	"labcore/internal/store"
	"labcore/pkg/domain"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	configPath string
	user       string
	secret     string
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}
	root := &cobra.Command{
		Use:           "labcore",
		Short:         "Laboratory sample tracking core",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "labcore.yaml", "path to the configuration file")
	root.PersistentFlags().StringVar(&flags.user, "user", "", "identity to authenticate as")
	root.PersistentFlags().StringVar(&flags.secret, "secret", "", "secret for the identity")

	root.AddCommand(
		newAddCmd(flags),
		newListCmd(flags),
		newSearchCmd(flags),
		newTestsCmd(flags),
		newStatusCmd(flags),
		newUrgentCmd(flags),
		newRemoveCmd(flags),
		newReportCmd(flags),
	)
	return root
}

// dispatch builds the app, authenticates, and routes one command through
// the service router.
func dispatch(ctx context.Context, flags *cliFlags, cmd service.Command) (any, error) {
	a, err := buildApp(ctx, flags.configPath)
	if err != nil {
		return nil, err
	}
	defer a.close()
	if _, err := a.svc.Dispatch(ctx, flags.user, service.AuthenticateCommand{
		Identity: flags.user,
		Secret:   flags.secret,
	}); err != nil {
		return nil, err
	}
	defer a.svc.Logout(ctx, flags.user)
	return a.svc.Dispatch(ctx, flags.user, cmd)
}

func newAddCmd(flags *cliFlags) *cobra.Command {
	var number, department, tests string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]domain.TestName, 0)
			for _, t := range strings.Split(tests, ",") {
				if t = strings.TrimSpace(t); t != "" {
					names = append(names, domain.TestName(t))
				}
			}
			out, err := dispatch(cmd.Context(), flags, service.CreateSampleCommand{
				Number:     number,
				Department: domain.Department(department),
				Tests:      names,
			})
			if err != nil {
				return err
			}
			sample := out.(domain.Sample)
			fmt.Printf("added sample %s (%s), %d tests\n", sample.Number, sample.Department, len(sample.Tests))
			return nil
		},
	}
	cmd.Flags().StringVar(&number, "number", "", "sample number")
	cmd.Flags().StringVar(&department, "department", "", "department code")
	cmd.Flags().StringVar(&tests, "tests", "", "comma-separated test names")
	_ = cmd.MarkFlagRequired("number")
	_ = cmd.MarkFlagRequired("department")
	_ = cmd.MarkFlagRequired("tests")
	return cmd
}

func newListCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := dispatch(cmd.Context(), flags, service.SearchSamplesCommand{})
			if err != nil {
				return err
			}
			printMatches(out.([]store.Match))
			return nil
		},
	}
}

func newSearchCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find samples by number substring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := dispatch(cmd.Context(), flags, service.SearchSamplesCommand{Query: args[0]})
			if err != nil {
				return err
			}
			printMatches(out.([]store.Match))
			return nil
		},
	}
}

func newTestsCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tests <index>",
		Short: "List the tests of a sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			out, err := dispatch(cmd.Context(), flags, service.ListTestsCommand{Index: index})
			if err != nil {
				return err
			}
			for i, t := range out.([]domain.Test) {
				fmt.Printf("%d: %s  %s  transferred=%s  completed=%s\n",
					i, t.Name, t.Status, formatTime(t.TransferredAt), formatTime(t.CompletedAt))
			}
			return nil
		},
	}
}

func newStatusCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status <index> <test-index> <status>",
		Short: "Change a test's status",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			testIndex, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid test index %q", args[1])
			}
			out, err := dispatch(cmd.Context(), flags, service.SetTestStatusCommand{
				Index:     index,
				TestIndex: testIndex,
				Status:    domain.TestStatus(args[2]),
			})
			if err != nil {
				return err
			}
			sample := out.(domain.Sample)
			fmt.Printf("sample %s test %d is now %q\n", sample.Number, testIndex, sample.Tests[testIndex].Status)
			return nil
		},
	}
}

func newUrgentCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "urgent <index>",
		Short: "Toggle a sample's urgent flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			out, err := dispatch(cmd.Context(), flags, service.ToggleUrgentCommand{Index: index})
			if err != nil {
				return err
			}
			sample := out.(domain.Sample)
			fmt.Printf("sample %s urgent=%v\n", sample.Number, sample.Urgent)
			return nil
		},
	}
}

func newRemoveCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index>",
		Short: "Delete a sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			out, err := dispatch(cmd.Context(), flags, service.DeleteSampleCommand{Index: index})
			if err != nil {
				return err
			}
			fmt.Printf("removed sample %s\n", out.(domain.Sample).Number)
			return nil
		},
	}
}

func newReportCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the daily summary report",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := dispatch(cmd.Context(), flags, service.GenerateReportCommand{})
			if err != nil {
				return err
			}
			rep := out.(report.Report)
			fmt.Println(rep.Date)
			for _, table := range rep.Tables {
				fmt.Printf("\n%s\n", table.Title)
				for _, row := range table.Rows {
					fmt.Printf("  %-12s %s\n", row.Department, row.Samples)
				}
			}
			return nil
		},
	}
}

func printMatches(matches []store.Match) {
	for _, m := range matches {
		urgent := ""
		if m.Sample.Urgent {
			urgent = " [срочный]"
		}
		fmt.Printf("%d: %s (%s)%s, %d tests\n",
			m.Index, m.Sample.Number, m.Sample.Department, urgent, len(m.Sample.Tests))
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02.01.2006 15:04")
}
