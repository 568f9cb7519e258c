package bot

import (
	"context"
	"strings"
	"time"

	"vetadmin/internal/slots"
)

// StartDigest sends managers the day's blocked slots every day at hour,
// in the clinic's time zone.
func (b *Bot) StartDigest(ctx context.Context, hour int, loc *time.Location) {
	if b == nil || len(b.managers) == 0 {
		return
	}

	go func() {
		timer := time.NewTimer(timeUntilNextHour(time.Now().In(loc), hour))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				b.sendDigest(ctx)
				timer.Reset(timeUntilNextHour(time.Now().In(loc), hour))
			}
		}
	}()
}

func (b *Bot) sendDigest(ctx context.Context) {
	screen, err := b.svc.Slots(ctx, "", b.svc.Today())
	if err != nil {
		b.logger.Error().Err(err).Msg("digest: load slots")
		return
	}
	if screen.Day == nil {
		return
	}
	b.broadcast(digestText(screen.Day.Date, screen.Day.WholeDay, blockedTimes(screen.Day.Times)))
}

func digestText(date string, wholeDay bool, times []string) string {
	switch {
	case wholeDay:
		return "Today " + date + ": the whole day is blocked."
	case len(times) == 0:
		return "Today " + date + ": no blocked slots."
	default:
		return "Today " + date + " blocked: " + strings.Join(times, ", ")
	}
}

func blockedTimes(times []slots.TimeState) []string {
	var out []string
	for _, ts := range times {
		if ts.Blocked {
			out = append(out, ts.Label+" "+string(ts.Period))
		}
	}
	return out
}

func timeUntilNextHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
