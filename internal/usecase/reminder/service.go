// Package reminder scans for upcoming appointments and dispatches
// reminders through the configured notifier. It is driven by the cron
// scheduler in the reminder worker; each run covers one scan window.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/repository"
)

// Notifier delivers a single appointment reminder. Implemented by the
// notifier package (Slack, generic webhook, no-op).
type Notifier interface {
	Notify(ctx context.Context, reminder *entity.Reminder) error
}

// Config controls the reminder scan window and delivery concurrency.
type Config struct {
	// LeadTime is how far ahead of the appointment start the reminder
	// fires. Appointments starting within [now+LeadTime, now+LeadTime+Window)
	// are reminded on each run.
	LeadTime time.Duration

	// Window is the width of each scan window. It should match the
	// scheduler interval so consecutive runs cover adjacent windows.
	Window time.Duration

	// MaxConcurrent limits parallel reminder deliveries per run.
	MaxConcurrent int

	// SentTTL is how long delivered appointment IDs are remembered to
	// suppress duplicates when scan windows overlap. Zero defaults to
	// 48 hours.
	SentTTL time.Duration
}

// DefaultConfig returns the production reminder configuration: remind
// 24 hours ahead, scan every 15 minutes, deliver up to 5 in parallel.
func DefaultConfig() Config {
	return Config{
		LeadTime:      24 * time.Hour,
		Window:        15 * time.Minute,
		MaxConcurrent: 5,
		SentTTL:       48 * time.Hour,
	}
}

// Result summarizes one reminder run.
type Result struct {
	Scanned int
	Sent    int
	Failed  int
	Skipped int
}

// Service scans upcoming appointments and sends reminders.
type Service struct {
	appointments repository.AppointmentRepository
	clients      repository.ClientRepository
	notifier     Notifier
	config       Config

	// now is swappable for tests.
	now func() time.Time

	mu   sync.Mutex
	sent map[uuid.UUID]time.Time
}

// NewService creates a reminder Service.
func NewService(appointments repository.AppointmentRepository, clients repository.ClientRepository, n Notifier, config Config) *Service {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	if config.SentTTL <= 0 {
		config.SentTTL = 48 * time.Hour
	}
	return &Service{
		appointments: appointments,
		clients:      clients,
		notifier:     n,
		config:       config,
		now:          time.Now,
		sent:         make(map[uuid.UUID]time.Time),
	}
}

// Run executes one reminder scan. It lists scheduled appointments whose
// start falls in the current window, resolves each client, and fans out
// deliveries bounded by MaxConcurrent. Delivery failures are counted and
// logged but do not abort the run; Run returns an error only when the
// scan itself fails.
func (s *Service) Run(ctx context.Context) (Result, error) {
	recordScan()
	s.pruneSent()

	from := s.now().Add(s.config.LeadTime)
	to := from.Add(s.config.Window)

	appointments, err := s.appointments.ListUpcoming(ctx, from, to)
	if err != nil {
		return Result{}, fmt.Errorf("list upcoming appointments: %w", err)
	}

	result := Result{Scanned: len(appointments)}
	if len(appointments) == 0 {
		return result, nil
	}

	slog.Info("reminder scan",
		slog.Time("from", from),
		slog.Time("to", to),
		slog.Int("appointments", len(appointments)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrent)

	for _, appt := range appointments {
		appt := appt
		if !s.markPending(appt.ID) {
			recordSkipped("already_sent")
			mu.Lock()
			result.Skipped++
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			err := s.remind(gctx, appt)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				s.unmark(appt.ID)
			} else {
				result.Sent++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, fmt.Errorf("reminder fan-out: %w", err)
	}
	return result, nil
}

// remind resolves the client and delivers one reminder.
func (s *Service) remind(ctx context.Context, appt *entity.Appointment) error {
	client, err := s.clients.Get(ctx, appt.WorkspaceID, appt.ClientID)
	if err != nil {
		slog.Warn("reminder client lookup failed",
			slog.String("appointment_id", appt.ID.String()),
			slog.Any("error", err))
		return fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		recordSkipped("client_missing")
		slog.Warn("reminder skipped: client not found",
			slog.String("appointment_id", appt.ID.String()),
			slog.String("client_id", appt.ClientID.String()))
		return fmt.Errorf("client %s not found", appt.ClientID)
	}

	reminder := &entity.Reminder{
		AppointmentID:  appt.ID,
		WorkspaceID:    appt.WorkspaceID,
		ClientName:     client.FullName(),
		ScheduledStart: appt.ScheduledStart,
		ScheduledEnd:   appt.ScheduledEnd,
		Location:       appt.LocationType,
		Notes:          appt.Notes,
	}

	start := s.now()
	err = s.notifier.Notify(ctx, reminder)
	recordResult(err, time.Since(start))
	if err != nil {
		slog.Warn("reminder delivery failed",
			slog.String("appointment_id", appt.ID.String()),
			slog.Any("error", err))
		return err
	}
	return nil
}

// markPending reserves an appointment for delivery. It returns false when
// the appointment was already delivered within SentTTL.
func (s *Service) markPending(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sent[id]; ok {
		return false
	}
	s.sent[id] = s.now()
	return true
}

// unmark releases a failed delivery so the next overlapping scan can
// retry it.
func (s *Service) unmark(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sent, id)
}

func (s *Service) pruneSent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.config.SentTTL)
	for id, at := range s.sent {
		if at.Before(cutoff) {
			delete(s.sent, id)
		}
	}
}
