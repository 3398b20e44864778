package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rahulyhg/trackbook/internal/core/export"
	"github.com/rahulyhg/trackbook/internal/core/model"
)

var inspectPolicy = model.DefaultStopOverPolicy()

var summaryCmd = &cobra.Command{
	Use:   "summary <file.json>",
	Short: "Print distance, duration and stop-overs of a stored track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		track, err := loadTrack(args[0])
		if err != nil {
			return err
		}
		return printSummary(cmd.OutOrStdout(), track)
	},
}

var geojsonCmd = &cobra.Command{
	Use:   "geojson <file.json>",
	Short: "Print a stored track as GeoJSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		track, err := loadTrack(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(export.TrackGeoJSON(track))
	},
}

func init() {
	for _, c := range []*cobra.Command{summaryCmd, geojsonCmd} {
		c.Flags().Float64Var(&inspectPolicy.MinDistanceMeters, "min-distance", inspectPolicy.MinDistanceMeters, "stop-over distance floor in meters")
		c.Flags().Float64Var(&inspectPolicy.AccuracyFactor, "accuracy-factor", inspectPolicy.AccuracyFactor, "stop-over accuracy multiplier")
		rootCmd.AddCommand(c)
	}
}

// loadTrack accepts either a flattened track or a full recording document.
func loadTrack(path string) (*model.Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read track file: %w", err)
	}
	return decodeTrack(data, inspectPolicy)
}

func decodeTrack(data []byte, policy model.StopOverPolicy) (*model.Track, error) {
	var doc struct {
		model.TrackRecord
		Track *model.TrackRecord `json:"track"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode track file: %w", err)
	}
	if doc.Track != nil {
		return model.RestoreTrack(*doc.Track, policy), nil
	}
	return model.RestoreTrack(doc.TrackRecord, policy), nil
}

func printSummary(w io.Writer, track *model.Track) error {
	s := track.Summary()
	_, err := fmt.Fprintf(w, "distance:   %s\nduration:   %s\nwaypoints:  %d\nstop-overs: %d\n",
		s.Distance, s.Duration, s.Size, s.StopOvers)
	return err
}
