package main

import (
	"context"
	"fmt"

	"petboard/api"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func init() {
	f := reportCmd.Flags()
	f.String("user", "", "reporting user id")
	f.String("breed", "", "breed of the pet")
	f.String("remarks", "", "free text description")
	f.String("location", "", "human readable location")
	f.Float64("lat", 0, "latitude where the pet was lost or found")
	f.Float64("lng", 0, "longitude where the pet was lost or found")
	f.String("image", "", "image URL")
	f.String("reward", "0", "reward amount")
}

var reportCmd = &cobra.Command{
	Use:       "report lost|found",
	Short:     "File a lost or found report",
	Args:      cobra.ExactValidArgs(1),
	ValidArgs: []string{"lost", "found"},
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		rewardText, _ := f.GetString("reward")
		reward, err := decimal.NewFromString(rewardText)
		if err != nil {
			return fmt.Errorf("invalid reward %q: %w", rewardText, err)
		}

		ra := &api.ReportArgs{
			Version: api.Version,
			Type:    args[0],
			Reward:  reward,
		}
		ra.UserID, _ = f.GetString("user")
		ra.Breed, _ = f.GetString("breed")
		ra.Remarks, _ = f.GetString("remarks")
		ra.Location, _ = f.GetString("location")
		ra.Latitude, _ = f.GetFloat64("lat")
		ra.Longitude, _ = f.GetFloat64("lng")
		ra.ImageURL, _ = f.GetString("image")

		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		resp, err := client.CreateReport(ctx, ra)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.ID)
		return nil
	},
}
