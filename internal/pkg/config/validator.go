package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts the 6-field schedule format used throughout the daemon:
// second, minute, hour, day-of-month, month, day-of-week. Standard ranges,
// `*`, `/step`, lists and ranges are supported.
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// ParseCronSpec parses a 6-field cron expression into a schedule that can
// compute fire times. It is the single parser used by both validation and
// the scheduler, so an expression that validates here always registers.
func ParseCronSpec(spec string) (cron.Schedule, error) {
	if spec == "" {
		return nil, fmt.Errorf("invalid cron spec: cannot be empty")
	}
	schedule, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec '%s': %w", spec, err)
	}
	return schedule, nil
}

// ValidateCronSpec validates a 6-field cron expression.
//
// Examples:
//   - "0 30 5 * * *"   (every day at 05:30:00)
//   - "0 0 */6 * * *"  (every 6 hours, on the hour)
//   - "*/15 * * * * *" (every 15 seconds)
func ValidateCronSpec(spec string) error {
	_, err := ParseCronSpec(spec)
	return err
}

// ValidateTimezone validates an IANA timezone name by loading it.
// Depends on timezone data being present on the host (tzdata package in
// minimal container images).
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}
	return nil
}

// ValidateDuration validates that a duration falls within [min, max].
func ValidateDuration(duration, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}
	if duration < min {
		return fmt.Errorf("duration %v is below minimum %v", duration, min)
	}
	if duration > max {
		return fmt.Errorf("duration %v exceeds maximum %v", duration, max)
	}
	return nil
}

// ValidateIntRange validates that an integer falls within [min, max].
func ValidateIntRange(value, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}
	if value < min {
		return fmt.Errorf("value %d is below minimum %d", value, min)
	}
	if value > max {
		return fmt.Errorf("value %d exceeds maximum %d", value, max)
	}
	return nil
}

// ValidatePositiveDuration validates that a duration is strictly positive.
func ValidatePositiveDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}
	return nil
}
