package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
)

// CatalogListing lists the generic ids a catalog can specialize.
type CatalogListing struct {
	Types    []ir.GenericTypeID    `json:"types"`
	LibFuncs []ir.GenericLibFuncID `json:"libfuncs"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the generic types and libfuncs programs may use",
		Long: `List every generic type id and generic libfunc id in the core catalog,
sorted. Programs may only reference these ids; validate reports anything
else as unknown.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(rootOpts, cmd)
		},
	}

	return cmd
}

func runCatalog(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	c := extensions.NewCoreCatalog()
	listing := CatalogListing{Types: c.TypeIDs(), LibFuncs: c.LibFuncIDs()}

	if formatter.Format == "json" {
		return formatter.Success(listing)
	}

	fmt.Fprintf(formatter.Writer, "Types (%d):\n", len(listing.Types))
	for _, id := range listing.Types {
		fmt.Fprintf(formatter.Writer, "  %s\n", id)
	}
	fmt.Fprintf(formatter.Writer, "Libfuncs (%d):\n", len(listing.LibFuncs))
	for _, id := range listing.LibFuncs {
		fmt.Fprintf(formatter.Writer, "  %s\n", id)
	}
	return nil
}
