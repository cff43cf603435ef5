package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/geocoder-bridge/internal/bridge"
	"github.com/couchcryptid/geocoder-bridge/internal/domain"
)

func queryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "query <address>",
		Short:   "Find addresses matching a free-text query",
		Example: "  geocode query 1600 Amphitheatre Parkway, Mountain View",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, bridge.MethodCall{
				Method:    domain.MethodFindByQuery,
				Arguments: map[string]any{"address": strings.Join(args, " ")},
			})
		},
	}
}
