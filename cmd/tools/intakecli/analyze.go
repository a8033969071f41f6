package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/z-reception/backend/internal/analysis/extract"
	"github.com/zhouzirui/z-reception/backend/internal/analysis/intent"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>",
		Short: "Print the ward a message would be routed to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := intent.Classify(strings.Join(args, " "))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c, c.Ward())
			return nil
		},
	}
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <text>",
		Short: "Print the name and age found in a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			if name, ok := extract.Name(text); ok {
				fmt.Fprintf(out, "name\t%s\n", name)
			} else {
				fmt.Fprintln(out, "name\t-")
			}
			if age, ok := extract.Age(text); ok {
				fmt.Fprintf(out, "age\t%d\n", age)
			} else {
				fmt.Fprintln(out, "age\t-")
			}
			return nil
		},
	}
}
