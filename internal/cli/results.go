package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kmallard/riverseq/pkg/store"
)

// resultsCommand creates the results command group for the persistent store.
func (c *CLI) resultsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Manage saved augmentation results",
		Long: `Manage augmentation results saved in the configured store.

Requires store.uri to be set in the config file. Results are saved with
"riverseq augment --save <name>".`,
	}

	cmd.AddCommand(c.resultsListCommand())
	cmd.AddCommand(c.resultsGetCommand())
	cmd.AddCommand(c.resultsDeleteCommand())

	return cmd
}

// openStore returns the configured store or an error when none is set up.
func (c *CLI) openStore(cmd *cobra.Command) (store.Store, error) {
	st, err := c.newStore(cmd)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("no store configured: set store.uri in the config file")
	}
	return st, nil
}

// resultsListCommand creates the "results list" subcommand.
func (c *CLI) resultsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved result names",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close(cmd.Context())

			names, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printInfo("No saved results")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

// resultsGetCommand creates the "results get" subcommand.
func (c *CLI) resultsGetCommand() *cobra.Command {
	var output string
	var format string

	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Fetch a saved result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close(cmd.Context())

			rec, err := st.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printKeyValue("name", rec.Name)
			printKeyValue("hash", rec.NetworkHash)
			printKeyValue("saved", rec.CreatedAt.Format("2006-01-02 15:04:05"))
			printKeyValue("rows", fmt.Sprintf("%d", len(rec.Rows)))

			if err := writeRows(rec.Rows, output, format); err != nil {
				return err
			}
			if output != "" {
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: json or csv (default: from output extension)")

	return cmd
}

// resultsDeleteCommand creates the "results rm" subcommand.
func (c *CLI) resultsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a saved result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close(cmd.Context())

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %q", args[0])
			return nil
		},
	}
}
