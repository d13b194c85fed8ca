package reminder

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/domain/account"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/domain/report"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/notification"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/runlock"
)

// LockName is the run lock held while a reconciliation runs.
const LockName = "pending-report-reminders"

// SubmissionSource lists the submissions awaiting review.
type SubmissionSource interface {
	ListPending(ctx context.Context) ([]*report.Submission, error)
}

// RecipientSource lists the accounts that receive a barangay's digest.
type RecipientSource interface {
	ListActiveByBarangay(ctx context.Context, barangayID uuid.UUID) ([]*account.User, error)
}

// Observer receives run and delivery outcomes, e.g. for metrics.
type Observer interface {
	ObserveRun(mode string, facts int)
	ObserveDelivery(err error)
}

type nopObserver struct{}

func (nopObserver) ObserveRun(string, int) {}
func (nopObserver) ObserveDelivery(error)  {}

// Reconciler decides which barangays have reports due soon or overdue and
// mails each active recipient one digest per run. Nothing is recorded about
// past runs, so running it again re-sends the same digests.
type Reconciler struct {
	submissions SubmissionSource
	recipients  RecipientSource
	dispatcher  notification.Dispatcher
	clock       Clock
	loc         *time.Location
	out         io.Writer
	logger      zerolog.Logger
	observer    Observer
	locker      runlock.Locker
}

type Option func(*Reconciler)

func WithClock(c Clock) Option { return func(r *Reconciler) { r.clock = c } }

// WithLocation sets the zone due dates are read in. Without WithClock the
// run date is today in the same zone.
func WithLocation(loc *time.Location) Option {
	return func(r *Reconciler) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithOutput sets where ModeCheck prints its report.
func WithOutput(w io.Writer) Option { return func(r *Reconciler) { r.out = w } }

func WithLogger(l zerolog.Logger) Option { return func(r *Reconciler) { r.logger = l } }

func WithObserver(o Observer) Option { return func(r *Reconciler) { r.observer = o } }

// WithLocker serializes runs across processes.
func WithLocker(l runlock.Locker) Option { return func(r *Reconciler) { r.locker = l } }

func NewReconciler(subs SubmissionSource, recipients RecipientSource, dispatcher notification.Dispatcher, opts ...Option) *Reconciler {
	r := &Reconciler{
		submissions: subs,
		recipients:  recipients,
		dispatcher:  dispatcher,
		loc:         time.UTC,
		out:         io.Discard,
		logger:      zerolog.Nop(),
		observer:    nopObserver{},
		locker:      runlock.NoopLocker{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.clock == nil {
		r.clock = SystemClock(r.loc)
	}
	return r
}

// Run reconciles as of the clock's date.
func (r *Reconciler) Run(ctx context.Context, mode Mode) (*RunReport, error) {
	return r.RunOn(ctx, mode, r.clock.Today())
}

// RunOn reconciles as of the calendar date of today. Only data-access
// failures are returned; failed deliveries are recorded in the report.
func (r *Reconciler) RunOn(ctx context.Context, mode Mode, today time.Time) (*RunReport, error) {
	var rep *RunReport
	err := r.locker.Run(ctx, LockName, func(ctx context.Context) error {
		var err error
		rep, err = r.reconcile(ctx, mode, CivilDate(today, today.Location()))
		return err
	})
	if err != nil {
		return nil, err
	}

	r.observer.ObserveRun(mode.String(), rep.FactCount())
	r.logger.Info().
		Str("mode", mode.String()).
		Str("date", rep.Date.Format("2006-01-02")).
		Int("barangays", len(rep.Barangays)).
		Int("facts", rep.FactCount()).
		Int("dispatched", rep.Dispatched()).
		Int("failed", rep.Failed()).
		Msg("pending report reminders finished")

	if mode == ModeCheck {
		if err := rep.Print(r.out); err != nil {
			r.logger.Error().Err(err).Msg("failed to write reminder report")
		}
	}
	return rep, nil
}

func (r *Reconciler) reconcile(ctx context.Context, mode Mode, today time.Time) (*RunReport, error) {
	subs, err := r.submissions.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending submissions: %w", err)
	}

	rep := &RunReport{Date: today, Mode: mode}
	for _, g := range groupByBarangay(subs) {
		facts := selectFacts(g, today, r.loc)
		if len(facts) == 0 {
			continue
		}

		users, err := r.recipients.ListActiveByBarangay(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("list recipients of barangay %s: %w", g.ID, err)
		}

		run := BarangayRun{ID: g.ID, Name: g.Name, Facts: facts}
		msg := Compose(g.Name, facts)
		for _, u := range users {
			run.Deliveries = append(run.Deliveries, r.deliver(ctx, g, u.Email, msg))
		}
		if len(users) == 0 {
			r.logger.Warn().Str("barangay", g.Name).Int("facts", len(facts)).
				Msg("reminders due but barangay has no active recipients")
		}
		rep.Barangays = append(rep.Barangays, run)
	}
	return rep, nil
}

func (r *Reconciler) deliver(ctx context.Context, g *barangayGroup, to string, msg notification.Message) Delivery {
	err := r.dispatcher.Send(ctx, to, msg)
	r.observer.ObserveDelivery(err)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("barangay", g.Name).
			Str("recipient", to).
			Msg("failed to send report reminder")
	} else {
		r.logger.Debug().
			Str("barangay", g.Name).
			Str("recipient", to).
			Msg("report reminder sent")
	}
	return Delivery{Recipient: to, Err: err}
}
