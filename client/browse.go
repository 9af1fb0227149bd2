package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"petboard/listing"

	"github.com/apex/log"
	"github.com/spf13/cobra"
)

func init() {
	f := browseCmd.Flags()
	f.String("filter", "all", "collections to show: all, lost, found or mine")
	f.String("mode", "all", "search mode: all or radius")
	f.String("query", "", "keyword to search for")
	f.String("category", "all", "keyword category: all, region or breed")
	f.Float64("lat", 0, "radius center latitude")
	f.Float64("lng", 0, "radius center longitude")
	f.Float64("radius", 0, "radius in meters (defaults to RADIUS_METERS)")
	f.Int("pages", 0, "additional pages to load after the first one")
	f.Bool("geojson", false, "print the collections as a GeoJSON FeatureCollection")
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "List lost and found reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		filterName, _ := f.GetString("filter")
		modeName, _ := f.GetString("mode")
		categoryName, _ := f.GetString("category")
		query, _ := f.GetString("query")
		pages, _ := f.GetInt("pages")
		asGeoJSON, _ := f.GetBool("geojson")

		filter, err := parseFilter(filterName)
		if err != nil {
			return err
		}
		mode, err := parseMode(modeName)
		if err != nil {
			return err
		}
		category, err := parseCategory(categoryName)
		if err != nil {
			return err
		}

		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		radius := cfg.RadiusMeters
		if f.Changed("radius") {
			radius, _ = f.GetFloat64("radius")
		}
		e := listing.NewEngine(client, listing.Options{
			PageSize:       cfg.PageSize,
			RequestTimeout: cfg.RequestTimeout,
			Radius:         radius,
		})

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if f.Changed("lat") || f.Changed("lng") {
			lat, _ := f.GetFloat64("lat")
			lng, _ := f.GetFloat64("lng")
			e.SetCenter(ctx, &listing.Location{Lat: lat, Lng: lng})
		}

		report(e.Search(ctx, query, category, mode, filter))
		for i := 0; i < pages; i++ {
			out := e.LoadMore(ctx)
			if out.Skipped {
				break
			}
			report(out)
		}

		s := e.Snapshot()
		if asGeoJSON {
			return json.NewEncoder(os.Stdout).Encode(s.FeatureCollection())
		}
		printSnapshot(os.Stdout, s)
		return nil
	},
}

func report(out listing.Outcome) {
	if out.Warning != nil {
		log.Warn(out.Warning.Error())
	}
	for t, err := range out.Errors {
		log.Errorf("Loading %s reports failed: %v", t, err)
	}
}

func printSnapshot(w io.Writer, s listing.Snapshot) {
	for _, t := range listing.ReportTypes {
		if !s.Filter.Relevant(t) {
			continue
		}
		c := s.Collection(t)
		fmt.Fprintf(w, "== %s (%d, more: %v)\n", strings.ToUpper(t.String()), len(c.Items), c.HasMore)
		for _, r := range c.Items {
			fmt.Fprintf(w, "%s  %-12s %-20s %.5f,%.5f", r.ID, r.Breed, r.Location, r.Lat, r.Lng)
			if r.Reward.IsPositive() {
				fmt.Fprintf(w, "  reward %s", r.Reward.StringFixed(0))
			}
			fmt.Fprintln(w)
		}
	}
}

func parseFilter(s string) (listing.ActiveFilter, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return listing.FilterAll, nil
	case "lost":
		return listing.FilterLostOnly, nil
	case "found":
		return listing.FilterFoundOnly, nil
	case "mine":
		return listing.FilterMine, nil
	}
	return 0, fmt.Errorf("unknown filter %q", s)
}

func parseMode(s string) (listing.SearchMode, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return listing.ModeAll, nil
	case "radius":
		return listing.ModeRadius, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

func parseCategory(s string) (listing.SearchCategory, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return listing.CategoryAll, nil
	case "region":
		return listing.CategoryRegion, nil
	case "breed":
		return listing.CategoryBreed, nil
	}
	return 0, fmt.Errorf("unknown category %q", s)
}
