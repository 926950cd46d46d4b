package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/crm-dashboard/internal/config"
)

// NewDirectoryCmd creates the directory command
func NewDirectoryCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Show the user directory, stage order and goals in effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := config.DefaultDirectory()
			if file != "" {
				var err error
				if d, err = config.LoadDirectory(file); err != nil {
					return err
				}
			}
			printDirectory(cmd, d)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "directory YAML file (default: built-in)")
	return cmd
}

func printDirectory(cmd *cobra.Command, d config.Directory) {
	out := cmd.OutOrStdout()
	ids := make([]string, 0, len(d.Users))
	for id := range d.Users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return d.Users[ids[i]].Name < d.Users[ids[j]].Name })

	fmt.Fprintln(out, "Users:")
	for _, id := range ids {
		u := d.Users[id]
		fmt.Fprintf(out, "  - %s (%s) %s\n", u.Name, u.Role, id)
	}
	fmt.Fprintln(out, "Stage order:")
	for i, s := range d.StageOrder {
		fmt.Fprintf(out, "  %2d. %s\n", i+1, s)
	}
	fmt.Fprintln(out, "Goals:")
	fmt.Fprintf(out, "  Revenue:   %.2f\n", d.Goals.RevenueTarget)
	fmt.Fprintf(out, "  Contracts: %d\n", d.Goals.ContractsTarget)
	fmt.Fprintf(out, "  Cash flow: %.2f\n", d.Goals.CashFlowTarget)
	fmt.Fprintf(out, "  Member:    %.2f\n", d.Goals.MemberTarget)
}
