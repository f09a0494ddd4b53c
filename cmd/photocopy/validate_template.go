package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adsamcik/photocopy/internal/pathtemplate"
	"github.com/adsamcik/photocopy/internal/pipeline"
)

var validateTemplateCmd = &cobra.Command{
	Use:   "validate-template <template>",
	Short: "Check a destination path template for syntax errors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		template := args[0]
		if err := pipeline.ValidateTemplateOnly(template); err != nil {
			return err
		}
		tree, _ := pathtemplate.Parse(template)
		fmt.Printf("ok: %d segment(s)\n", len(tree.Segments))
		if pathtemplate.ReferencesLocation(tree) {
			fmt.Println("uses location variables (requires --geocode)")
		}
		if pathtemplate.ReferencesNumber(tree) {
			fmt.Println("uses {number}: duplicate counters render in place rather than suffixing the filename")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateTemplateCmd)
}
