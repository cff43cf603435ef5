package commands

import (
	"github.com/spf13/cobra"

	"github.com/couchcryptid/geocoder-bridge/internal/bridge"
	"github.com/couchcryptid/geocoder-bridge/internal/domain"
)

func reverseCmd(opts *rootOptions) *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:     "reverse --lat <latitude> --lon <longitude>",
		Short:   "Find addresses near a coordinate",
		Example: "  geocode reverse --lat 39.78 --lon -89.65",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, bridge.MethodCall{
				Method: domain.MethodFindByCoordinates,
				Arguments: map[string]any{
					"latitude":  lat,
					"longitude": lon,
				},
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude in degrees")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}
