package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/academic-radar/internal/classify"
	"github.com/JakeFAU/academic-radar/internal/listing"
)

// newClassifyCmd creates the 'classify' subcommand, a debugging aid that
// prints the categories assigned to each title argument.
func newClassifyCmd() *cobra.Command {
	var explain bool
	cmd := &cobra.Command{
		Use:         "classify TITLE...",
		Short:       "Prints the categories assigned to job titles",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{skipAppAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, title := range args {
				if _, err := fmt.Fprintf(out, "%s\t%s\n", title, joinCategories(classify.Classify(title))); err != nil {
					return err
				}
				if !explain {
					continue
				}
				for _, line := range classify.Explain(title) {
					if _, err := fmt.Fprintf(out, "  %s\n", line); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "print the rules that fired")
	return cmd
}

func joinCategories(cats []listing.Category) string {
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}
