package config

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidValue is wrapped by every validator error.
var ErrInvalidValue = errors.New("invalid configuration value")

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronSchedule accepts five-field expressions such as "*/15 * * * *"
// and descriptors such as "@hourly".
func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("%w: cron schedule cannot be empty", ErrInvalidValue)
	}
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("%w: cron schedule %q: %v", ErrInvalidValue, schedule, err)
	}
	return nil
}

// ValidateTimezone requires an IANA zone name loadable by time.LoadLocation.
func ValidateTimezone(tz string) error {
	if tz == "" {
		return fmt.Errorf("%w: timezone cannot be empty", ErrInvalidValue)
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidValue, tz, err)
	}
	return nil
}

// ValidatePositiveDuration rejects zero and negative durations.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidValue, d)
	}
	return nil
}

// ValidateDurationRange checks min <= d <= max.
func ValidateDurationRange(d, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("%w: min %v exceeds max %v", ErrInvalidValue, min, max)
	}
	if d < min || d > max {
		return fmt.Errorf("%w: duration %v outside [%v, %v]", ErrInvalidValue, d, min, max)
	}
	return nil
}

// ValidateIntRange checks min <= v <= max.
func ValidateIntRange(v, min, max int) error {
	if min > max {
		return fmt.Errorf("%w: min %d exceeds max %d", ErrInvalidValue, min, max)
	}
	if v < min || v > max {
		return fmt.Errorf("%w: %d outside [%d, %d]", ErrInvalidValue, v, min, max)
	}
	return nil
}

// ValidateTrustedProxies requires every entry to be a CIDR prefix or a bare IP.
func ValidateTrustedProxies(entries []string) error {
	for _, e := range entries {
		if _, err := netip.ParsePrefix(e); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(e); err == nil {
			continue
		}
		return fmt.Errorf("%w: trusted proxy %q is neither a CIDR nor an IP", ErrInvalidValue, e)
	}
	return nil
}
