package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taskplan/pkg/errors"
	"github.com/matzehuels/taskplan/pkg/store"
)

// runsCommand creates the runs command for browsing run history.
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse recorded solve runs",
	}

	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())
	cmd.AddCommand(c.runsDeleteCommand())

	return cmd
}

func (c *CLI) runsListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				runs, err := st.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					printInfo("No runs recorded yet")
					return nil
				}
				fmt.Println(runsTable(runs))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to show (0 for all)")
	return cmd
}

func (c *CLI) runsShowCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				run, err := findRun(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(run)
				}
				printRun(run)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run as JSON")
	return cmd
}

func (c *CLI) runsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				run, err := findRun(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				if err := st.Delete(cmd.Context(), run.ID); err != nil {
					return err
				}
				printSuccess("Deleted run %s", run.ID)
				return nil
			})
		},
	}
}

// withStore opens the configured run store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// findRun looks a run up by full ID or by a unique prefix of at least four
// characters, as printed by "runs list".
func findRun(ctx context.Context, st store.Store, id string) (*store.Run, error) {
	if store.ValidID(id) {
		run, err := st.Get(ctx, id)
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.Wrap(errors.ErrCodeRunNotFound, err, "run %s not found", id)
		}
		return run, err
	}
	if len(id) < 4 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "run ID prefix %q is too short", id)
	}

	runs, err := st.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	var match *store.Run
	for _, r := range runs {
		if len(r.ID) >= len(id) && r.ID[:len(id)] == id {
			if match != nil {
				return nil, errors.New(errors.ErrCodeInvalidInput, "run ID prefix %q is ambiguous", id)
			}
			match = r
		}
	}
	if match == nil {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
	}
	return match, nil
}

func printRun(run *store.Run) {
	printKeyValue("ID", run.ID)
	printKeyValue("Created", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	printKeyValue("Graph", shortSource(run.Source))
	printKeyValue("Tasks", strconv.Itoa(run.Tasks))
	printKeyValue("Processors", strconv.Itoa(run.Processors))
	printKeyValue("Algorithm", run.Algorithm)
	printKeyValue("Status", run.Status)
	if run.Solution == nil {
		return
	}
	printKeyValue("Makespan", strconv.Itoa(run.Makespan))
	printSearchStats(run.Stats, run.Cached)
	fmt.Println(scheduleTable(run.Solution))
}
