// Package rates turns hourly day-ahead prices into the per-minute series used
// for window selection. Feed points follow the hour-ending convention and are
// expanded so that each minute carries the timestamp of its own start.
package rates
