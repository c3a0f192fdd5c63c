// Package session — фазы торгового дня и шедулер, который раз в интервал
// прогоняет один цикл решений.
package session

import (
	"time"

	"github.com/pkg/errors"

	"intraday_bot/internal/helper"
	"intraday_bot/internal/modules/config"
)

// Phase — чистая функция от времени суток IST, без памяти о прошлом.
// Назад по времени машина не ходит.
type Phase int

const (
	PhasePreOpen Phase = iota
	PhaseEntryWindow
	PhaseMonitorOnly
	PhaseForceExit
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhasePreOpen:
		return "PRE_OPEN"
	case PhaseEntryWindow:
		return "ENTRY_WINDOW"
	case PhaseMonitorOnly:
		return "MONITOR_ONLY"
	case PhaseForceExit:
		return "FORCE_EXIT"
	case PhaseClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Windows — границы окон в минутах от полуночи. Все интервалы [start, end):
// начало включительно, конец — нет. Форс-выход тянется до самого закрытия,
// чтобы позиции, не закрывшиеся с первого прохода, добивались повторно.
type Windows struct {
	EntryStart int
	EntryEnd   int
	ExitStart  int
	Close      int
}

func WindowsFromConfig(cfg *config.Config) (Windows, error) {
	var w Windows
	var err error
	if w.EntryStart, err = helper.ParseClock(cfg.EntryWindowStart); err != nil {
		return w, errors.Wrap(err, "entry_window_start")
	}
	if w.EntryEnd, err = helper.ParseClock(cfg.EntryWindowEnd); err != nil {
		return w, errors.Wrap(err, "entry_window_end")
	}
	if w.ExitStart, err = helper.ParseClock(cfg.ForceExitStart); err != nil {
		return w, errors.Wrap(err, "force_exit_start")
	}
	if w.Close, err = helper.ParseClock(cfg.MarketClose); err != nil {
		return w, errors.Wrap(err, "market_close")
	}
	if !(w.EntryStart < w.EntryEnd && w.EntryEnd <= w.ExitStart && w.ExitStart < w.Close) {
		return w, errors.New("session windows out of order")
	}
	return w, nil
}

func PhaseAt(t time.Time, w Windows) Phase {
	m := helper.MinuteOfDay(t)
	switch {
	case m >= w.Close:
		return PhaseClosed
	case m >= w.ExitStart:
		return PhaseForceExit
	case m >= w.EntryEnd:
		return PhaseMonitorOnly
	case m >= w.EntryStart:
		return PhaseEntryWindow
	default:
		return PhasePreOpen
	}
}
