package helper

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// IST — биржевое время NSE. Сервер может жить в UTC,
// все решения по фазам сессии принимаются в IST.
var IST = time.FixedZone("IST", 5*3600+30*60)

// ParseClock разбирает "10:00" в минуты от полуночи.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad clock %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("bad clock %q: %v", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("bad clock %q: %v", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad clock %q", s)
	}
	return h*60 + m, nil
}

// MinuteOfDay — минуты от полуночи локального времени t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// RoundToTick — к ближайшему тику (NSE: 0.05).
func RoundToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Round(px / tick)
	return steps * tick
}

func RoundDownToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Floor(px/tick + 1e-12)
	return steps * tick
}

func RoundUpToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Ceil(px/tick - 1e-12)
	return steps * tick
}
