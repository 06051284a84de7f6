package push

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/hogarfin/hogarfin/internal/model"
	"github.com/hogarfin/hogarfin/internal/store"
)

// Scheduler nudges the household to enter the day's BCV rate. Once the
// configured hour passes with no rate saved for today, every subscribed
// device gets one reminder.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	push     *store.PushStore
	rates    *store.RateStore
	settings *store.SettingsStore
	logger   *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}

	lastSent string // YYYY-MM-DD of the last reminder, at most one per day
}

func NewScheduler(svc *Service, ps *store.PushStore, rs *store.RateStore, ss *store.SettingsStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:  svc,
		push:     ps,
		rates:    rs,
		settings: ss,
		logger:   logger,
		interval: 60 * time.Second,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(now time.Time) {
	reminder, err := s.settings.GetReminderSettings()
	if err != nil {
		s.logger.Error("reminder settings", "error", err)
		return
	}
	if reminder["rate_reminder_enabled"] != "true" {
		return
	}
	hour, err := strconv.Atoi(reminder["rate_reminder_hour"])
	if err != nil {
		hour = 9
	}
	if now.Hour() < hour {
		return
	}

	today := now.UTC().Format("2006-01-02")

	s.mu.Lock()
	alreadySent := s.lastSent == today
	s.mu.Unlock()
	if alreadySent {
		return
	}

	entry, err := s.rates.GetForDate(today)
	if err != nil {
		s.logger.Error("rate lookup", "error", err)
		return
	}
	if entry != nil {
		// Today's rate is already in; nothing to remind about.
		s.markSent(today)
		return
	}

	enabled, err := s.push.IsPreferenceEnabled(model.NotifTypeRateReminder)
	if err != nil || !enabled {
		return
	}

	s.sendReminder(today)
	s.markSent(today)
}

func (s *Scheduler) markSent(date string) {
	s.mu.Lock()
	s.lastSent = date
	s.mu.Unlock()
}

func (s *Scheduler) sendReminder(date string) {
	subs, err := s.push.List()
	if err != nil {
		s.logger.Error("list push subscriptions", "error", err)
		return
	}

	payload := Payload{
		Title: "Tasa BCV",
		Body:  "No rate entered for today yet. Add the BCV rate to keep conversions current.",
		URL:   "/rates",
		Tag:   "rate-reminder-" + date,
	}

	for _, sub := range subs {
		if err := s.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				s.push.DeleteByEndpoint(sub.Endpoint)
			} else {
				s.logger.Error("send rate reminder", "error", err)
			}
		}
	}
}
