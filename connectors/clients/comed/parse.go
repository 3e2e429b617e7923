package comed

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/kilianp07/chargewindow/core/model"
)

// pointRe matches one "[Date.UTC(2020,6,18,0,0,0), 1.8]" entry. The month is zero based.
var pointRe = regexp.MustCompile(`Date\.UTC\((\d+),\s*(\d+),\s*(\d+),\s*(\d+),\s*0,\s*0\),\s*(-?\d+(?:\.\d+)?)`)

// Parse extracts hourly rate points from a ServletFeed payload. The feed's
// hour-ending labels are local wall-clock readings; they are returned as UTC
// times carrying the same reading (see rates.WallClock).
func Parse(payload string) ([]model.RatePoint, error) {
	matches := pointRe.FindAllStringSubmatch(payload, -1)
	if len(matches) == 0 {
		return nil, &model.FeedDataError{Reason: "no price points in feed payload", Index: -1}
	}
	out := make([]model.RatePoint, 0, len(matches))
	for i, m := range matches {
		var parts [4]int
		for j := range parts {
			v, err := strconv.Atoi(m[j+1])
			if err != nil {
				return nil, &model.FeedDataError{Reason: fmt.Sprintf("bad date field %q", m[j+1]), Index: i}
			}
			parts[j] = v
		}
		year, monthIndex, day, hour := parts[0], parts[1], parts[2], parts[3]
		if monthIndex > 11 || day < 1 || day > 31 || hour > 24 {
			return nil, &model.FeedDataError{Reason: fmt.Sprintf("date out of range in %q", m[0]), Index: i}
		}
		price, err := strconv.ParseFloat(m[5], 64)
		if err != nil {
			return nil, &model.FeedDataError{Reason: fmt.Sprintf("bad price %q", m[5]), Index: i}
		}
		out = append(out, model.RatePoint{
			Time:  time.Date(year, time.Month(monthIndex+1), day, hour, 0, 0, 0, time.UTC),
			Price: price,
		})
	}
	return out, nil
}
