package autoaim

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
)

// ShotEntryConfig is one calibrated data point: the firing parameters
// measured at a known distance from the target.
type ShotEntryConfig struct {
	DistanceMeters *float64 `json:"distance_meters"`
	AngleRads      *float64 `json:"angle_rads"`
	LeftSpeedRPS   *float64 `json:"left_speed_rps"`
	RightSpeedRPS  *float64 `json:"right_speed_rps"`
	FlightTimeSecs *float64 `json:"flight_time_secs"`
}

// Validate ensures all fields of the entry are present.
func (cfg *ShotEntryConfig) Validate(path string) error {
	if cfg.DistanceMeters == nil {
		return goutils.NewConfigValidationFieldRequiredError(path, "distance_meters")
	}
	if cfg.AngleRads == nil {
		return goutils.NewConfigValidationFieldRequiredError(path, "angle_rads")
	}
	if cfg.LeftSpeedRPS == nil {
		return goutils.NewConfigValidationFieldRequiredError(path, "left_speed_rps")
	}
	if cfg.RightSpeedRPS == nil {
		return goutils.NewConfigValidationFieldRequiredError(path, "right_speed_rps")
	}
	if cfg.FlightTimeSecs == nil {
		return goutils.NewConfigValidationFieldRequiredError(path, "flight_time_secs")
	}
	if *cfg.DistanceMeters < 0 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("distance_meters must be non-negative, got %f", *cfg.DistanceMeters))
	}
	return nil
}

// ShotTableConfig is the offline-produced calibration data loaded once at
// startup.
type ShotTableConfig struct {
	Entries []ShotEntryConfig `json:"entries"`
}

// Validate ensures the calibration holds at least one complete entry.
func (cfg *ShotTableConfig) Validate(path string) error {
	if len(cfg.Entries) == 0 {
		return goutils.NewConfigValidationError(path, errors.New("calibration requires at least one entry"))
	}
	var err error
	for i, entry := range cfg.Entries {
		err = multierr.Combine(err, entry.Validate(fmt.Sprintf("%s.entries.%d", path, i)))
	}
	return err
}

// Table builds the interpolation table from the validated config.
func (cfg *ShotTableConfig) Table() (*Table[ShotData], error) {
	tb := NewTable[ShotData]()
	for _, entry := range cfg.Entries {
		if err := tb.Insert(*entry.DistanceMeters, ShotData{
			AngleRads:      *entry.AngleRads,
			LeftSpeedRPS:   *entry.LeftSpeedRPS,
			RightSpeedRPS:  *entry.RightSpeedRPS,
			FlightTimeSecs: *entry.FlightTimeSecs,
		}); err != nil {
			return nil, err
		}
	}
	return tb, nil
}

// LoadShotTableConfig reads and validates a calibration file.
func LoadShotTableConfig(path string) (*ShotTableConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read calibration file %q", path)
	}
	var cfg ShotTableConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse calibration file %q", path)
	}
	if err := cfg.Validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}
