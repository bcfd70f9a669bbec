// Command shotcalib inspects a shot calibration file: it loads and validates
// the entries, builds the interpolation table, and prints the firing
// parameters for a queried distance or a sweep across the calibrated range.
package main

import (
	"context"
	"flag"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/SCool62/Crescendo/autoaim"
)

var logger = golog.NewDevelopmentLogger("shotcalib")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	calibPath := flags.String("calibration", "", "path to the calibration JSON file")
	distance := flags.Float64("distance", -1, "distance in meters to query; omit for a sweep")
	steps := flags.Int("steps", 10, "number of sweep points across the calibrated range")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}
	if *calibPath == "" {
		return errors.New("-calibration is required")
	}

	cfg, err := autoaim.LoadShotTableConfig(*calibPath)
	if err != nil {
		return err
	}
	table, err := cfg.Table()
	if err != nil {
		return err
	}
	logger.Infow("calibration loaded", "path", *calibPath, "entries", table.Len())

	if *distance >= 0 {
		return printShot(logger, table, *distance)
	}

	minDist := *cfg.Entries[0].DistanceMeters
	maxDist := minDist
	for _, entry := range cfg.Entries {
		if *entry.DistanceMeters < minDist {
			minDist = *entry.DistanceMeters
		}
		if *entry.DistanceMeters > maxDist {
			maxDist = *entry.DistanceMeters
		}
	}
	if *steps < 2 || minDist == maxDist {
		return printShot(logger, table, minDist)
	}
	for i := 0; i < *steps; i++ {
		d := minDist + (maxDist-minDist)*float64(i)/float64(*steps-1)
		if err := printShot(logger, table, d); err != nil {
			return err
		}
	}
	return nil
}

func printShot(logger golog.Logger, table *autoaim.Table[autoaim.ShotData], distance float64) error {
	shot, err := table.Lookup(distance)
	if err != nil {
		return err
	}
	logger.Infow("shot",
		"distance_m", distance,
		"angle_rads", shot.AngleRads,
		"left_rps", shot.LeftSpeedRPS,
		"right_rps", shot.RightSpeedRPS,
		"flight_time_s", shot.FlightTimeSecs,
	)
	return nil
}
