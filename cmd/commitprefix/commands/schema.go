package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/commitprefix/pkg/vanity"
)

// ErrOutcomeInvalid is returned when a validated outcome violates the schema.
var ErrOutcomeInvalid = errors.New("outcome does not match schema")

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "schema [outcome.json|-]",
		Short: "Print or check the JSON schema of search results",
		Long: `Without arguments, print the JSON schema of "search --format json" output.
With a file argument (or - for stdin), validate that output against it.

Examples:
  commitprefix schema
  commitprefix search --format json 00 | commitprefix schema -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_, err := cmd.OutOrStdout().Write(vanity.OutcomeSchema())

				return err
			}

			return validateOutcome(cmd, args[0], noColor)
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

func validateOutcome(cmd *cobra.Command, path string, noColor bool) error {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return fmt.Errorf("read outcome: %w", err)
	}

	violations, err := vanity.ValidateOutcomeJSON(data)
	if err != nil {
		return errors.Join(ErrInvalidArgs, err)
	}

	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	if noColor {
		ok.DisableColor()
		bad.DisableColor()
	}

	out := cmd.OutOrStdout()

	if len(violations) == 0 {
		ok.Fprintln(out, "outcome is valid")

		return nil
	}

	bad.Fprintf(out, "outcome is invalid (%d errors)\n", len(violations))

	for _, v := range violations {
		fmt.Fprintf(out, "  - %s\n", v)
	}

	return ErrOutcomeInvalid
}
