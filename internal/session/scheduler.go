package session

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"intraday_bot/internal/broker"
	"intraday_bot/internal/executor"
	"intraday_bot/internal/helper"
	"intraday_bot/internal/models"
	"intraday_bot/internal/modules/config"
	"intraday_bot/internal/notify"
	"intraday_bot/internal/positions"
	"intraday_bot/internal/strategy"
	"intraday_bot/pkg/logger"
)

// Scheduler гоняет один и тот же цикл решений в двух режимах:
// Run — бесконечный цикл со сном до CLOSED, RunOnce — один цикл на вызов
// (перезапуск отдаёт внешнему шедулеру). Логика цикла в обоих одна.
type Scheduler struct {
	cfg *config.Config
	api broker.SessionAPI
	pm  *positions.Manager
	ev  *strategy.Evaluator
	ex  *executor.Executor
	n   notify.Notifier

	win Windows
	uni []models.Instrument

	now func() time.Time // подменяется в тестах
}

func NewScheduler(cfg *config.Config, api broker.SessionAPI, n notify.Notifier) (*Scheduler, error) {
	win, err := WindowsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		cfg: cfg,
		api: api,
		pm:  positions.NewManager(api, cfg, n),
		ev:  strategy.NewEvaluator(api, cfg, strategy.NewBlast(cfg, api)),
		ex:  executor.New(api, cfg, n),
		n:   n,
		win: win,
		now: time.Now,
	}, nil
}

// Bootstrap: сессия + вселенная. Ошибка логина фатальна — дальше жить нельзя.
func (s *Scheduler) Bootstrap(ctx context.Context) error {
	if err := s.api.Login(ctx); err != nil {
		return errors.Wrap(err, "login")
	}
	uni, err := s.api.Instruments(ctx)
	if err != nil {
		return errors.Wrap(err, "instruments")
	}
	if len(uni) == 0 {
		return errors.New("empty instrument universe")
	}
	s.uni = uni
	logger.Info("[BOOT] вселенная собрана: %d бумаг", len(uni))
	return nil
}

// RunOnce — один цикл. Порядок жёсткий: форс-выход вытесняет всё,
// иначе сначала трейлинг, потом подсчёт позиций, и только в окне входа —
// тренд и скан с максимум одной сделкой.
func (s *Scheduler) RunOnce(ctx context.Context) Phase {
	nowIST := s.now().In(helper.IST)
	ph := PhaseAt(nowIST, s.win)
	logger.Info("[SCAN] %s фаза=%s", nowIST.Format("15:04:05"), ph)

	switch ph {
	case PhaseClosed:
		return ph
	case PhaseForceExit:
		s.pm.ForceExit(ctx)
		return ph
	}

	s.pm.TrailStops(ctx)

	open, err := s.pm.CountOpenIntraday(ctx)
	if err != nil {
		// fail-open: при упавшем чтении считаем 0 открытых и продолжаем
		// сканировать. Во время аутэджа это может дать лишний вход —
		// политика осознанная, менять только вместе с этим комментарием.
		logger.Warn("[SCAN] чтение позиций упало, считаем 0 открытых: %v", err)
		open = 0
	}
	if open >= s.cfg.MaxOpenPositions {
		logger.Info("[SCAN] лимит позиций достигнут (%d/%d), входы пропущены", open, s.cfg.MaxOpenPositions)
		return ph
	}

	if ph != PhaseEntryWindow {
		return ph
	}

	trend := s.ev.Trend(ctx)
	if trend == models.TrendNeutral {
		logger.Info("[SCAN] тренд NEUTRAL, входы подавлены")
		return ph
	}

	sig := s.ev.Scan(ctx, s.uni, trend)
	if sig == nil {
		return ph
	}

	s.n.Sendf("🔔 [%s] SIGNAL %s @ %.2f", sig.Instrument.Name, sig.Side, sig.Price)
	if err := s.ex.Enter(ctx, *sig); err != nil {
		logger.Error("[ORDER] вход не прошёл: %v", err)
	}
	return ph
}

// Run — непрерывный режим: цикл, сон, и так до закрытия рынка.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		ph := s.RunOnce(ctx)
		if ph == PhaseClosed {
			logger.Info("[SCAN] рынок закрыт, останавливаемся")
			s.n.Send("😴 Рынок закрыт. Бот выключается.")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.PollInterval):
		}
	}
}
