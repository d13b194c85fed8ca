package appointment

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"html/template"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/notification"
)

type Service struct {
	repo    Repository
	mail    notification.Dispatcher
	otpTTL  time.Duration
	logger  zerolog.Logger
	cost    int
	now     func() time.Time
	newCode func() (string, error)
}

func NewService(repo Repository, mail notification.Dispatcher, otpTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		mail:    mail,
		otpTTL:  otpTTL,
		logger:  logger,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
		newCode: randomCode,
	}
}

// randomCode returns a uniformly random 6-digit code.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Book stores a pending appointment and emails its confirmation code. When
// the email fails the appointment is kept and ErrOTPDelivery is returned
// with it so the caller can offer a resend.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	a.PatientName = strings.TrimSpace(a.PatientName)
	a.PatientEmail = strings.ToLower(strings.TrimSpace(a.PatientEmail))
	a.Service = strings.TrimSpace(a.Service)
	if a.PatientName == "" || a.PatientEmail == "" || a.Service == "" {
		return fmt.Errorf("patient_name, patient_email and service are required")
	}
	if !a.ScheduledAt.After(s.now()) {
		return fmt.Errorf("scheduled_at must be in the future")
	}

	code, err := s.issueCode(a)
	if err != nil {
		return err
	}
	a.Status = StatusPending
	a.ConfirmedAt = nil
	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}
	return s.sendCode(ctx, a, code)
}

// ResendOTP replaces the code of a pending appointment and emails it again.
func (s *Service) ResendOTP(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != StatusPending {
		return fmt.Errorf("%w: appointment is %s", ErrInvalidTransition, a.Status)
	}
	code, err := s.issueCode(a)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return err
	}
	return s.sendCode(ctx, a, code)
}

// Confirm checks code against the pending appointment. A used or expired
// code cannot confirm twice.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, code string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusPending {
		return nil, fmt.Errorf("%w: appointment is %s", ErrInvalidTransition, a.Status)
	}
	now := s.now()
	if a.OTPExpiresAt == nil || now.After(*a.OTPExpiresAt) {
		return nil, ErrOTPExpired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.OTPHash), []byte(strings.TrimSpace(code))); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidOTP
		}
		return nil, fmt.Errorf("compare code: %w", err)
	}

	a.Status = StatusConfirmed
	a.ConfirmedAt = &now
	a.OTPHash = ""
	a.OTPExpiresAt = nil
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: appointment is already cancelled", ErrInvalidTransition)
	}
	a.Status = StatusCancelled
	a.OTPHash = ""
	a.OTPExpiresAt = nil
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, status, limit, offset)
}

func (s *Service) issueCode(a *Appointment) (string, error) {
	code, err := s.newCode()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}
	expires := s.now().Add(s.otpTTL)
	a.OTPHash = string(hash)
	a.OTPExpiresAt = &expires
	return code, nil
}

func (s *Service) sendCode(ctx context.Context, a *Appointment, code string) error {
	if err := s.mail.Send(ctx, a.PatientEmail, otpMessage(a, code, s.otpTTL)); err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).Msg("failed to send confirmation code")
		return fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}
	return nil
}

func otpMessage(a *Appointment, code string, ttl time.Duration) notification.Message {
	when := a.ScheduledAt.Format("Monday, January 2, 2006 3:04 PM")
	minutes := int(ttl.Minutes())
	text := fmt.Sprintf("Hello %s,\n\nYour confirmation code for the %s appointment on %s is %s.\n"+
		"The code expires in %d minutes.\n\nCity Health Office\n", a.PatientName, a.Service, when, code, minutes)
	html := fmt.Sprintf("<p>Hello %s,</p><p>Your confirmation code for the %s appointment on %s is <strong>%s</strong>.</p>"+
		"<p>The code expires in %d minutes.</p><p>City Health Office</p>",
		template.HTMLEscapeString(a.PatientName), template.HTMLEscapeString(a.Service), when, code, minutes)
	return notification.Message{Subject: "Your appointment confirmation code", HTML: html, Text: text}
}
