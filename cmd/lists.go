package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fency/outreach-pipeline/pkg/propertyradar"
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Print the PropertyRadar lists in the account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("lists"); err != nil {
			return err
		}

		lists, err := newPropertyRadar(cfg).Lists(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "fetch lists")
		}
		return printLists(cmd.OutOrStdout(), lists)
	},
}

func printLists(w io.Writer, lists []propertyradar.List) error {
	if len(lists) == 0 {
		_, err := fmt.Fprintln(w, "No lists found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tMONITORED\tITEMS") //nolint:errcheck
	for _, l := range lists {
		monitored := "no"
		if l.IsMonitored.Valid && l.IsMonitored.Value {
			monitored = "yes"
		}
		items := "-"
		if n := l.ItemCount.IntPtr(); n != nil {
			items = fmt.Sprintf("%d", *n)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.ListName, l.ListType, monitored, items) //nolint:errcheck
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(listsCmd)
}
