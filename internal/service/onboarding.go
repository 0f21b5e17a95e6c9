package service

import (
	"context"
	"time"

	"github.com/flexprice/grants/internal/email"
)

// OnboardingService runs the side effects of an account's first paid entitlement.
// Nothing here can fail a grant: every error is logged and dropped.
type OnboardingService interface {
	// OnEntitlementGranted completes a pending registration and sends the welcome email
	// unless it was already sent
	OnEntitlementGranted(ctx context.Context, accountID string, planName string)
}

type onboardingService struct {
	ServiceParams
}

func NewOnboardingService(params ServiceParams) OnboardingService {
	return &onboardingService{ServiceParams: params}
}

func (s *onboardingService) OnEntitlementGranted(ctx context.Context, accountID string, planName string) {
	s.completeRegistration(ctx, accountID, planName)
	s.sendWelcomeOnce(ctx, accountID, planName)
}

func (s *onboardingService) completeRegistration(ctx context.Context, accountID string, planName string) {
	completed, err := s.RegistrationRepo.Complete(ctx, accountID, time.Now().UTC())
	if err != nil {
		s.Logger.Errorw("failed to complete pending registration",
			"account_id", accountID,
			"error", err)
		return
	}
	if !completed {
		s.Logger.Debugw("no open registration for account", "account_id", accountID)
		return
	}

	s.Logger.Infow("completed pending registration", "account_id", accountID)
	s.Notifier.NotifyAdmin(ctx, accountID, email.AdminNotification{
		Subject: "Registration completed",
		Body:    "A new account finished registration after payment",
		Fields: map[string]string{
			"account_id": accountID,
			"plan":       planName,
		},
	})
}

// sendWelcomeOnce is read-then-write on the welcome flag, so concurrent deliveries for
// the same account may both send.
func (s *onboardingService) sendWelcomeOnce(ctx context.Context, accountID string, planName string) {
	acct, err := s.AccountRepo.GetByID(ctx, accountID)
	if err != nil {
		s.Logger.Errorw("failed to read account for welcome email",
			"account_id", accountID,
			"error", err)
		return
	}
	if acct.WelcomeEmailSent {
		return
	}

	s.Notifier.NotifyWelcome(ctx, acct.ID, email.WelcomeEmail{
		ToAddress:   acct.Email,
		PlanName:    planName,
		DisplayName: email.ExtractNameFromEmail(acct.Email),
	})

	if err := s.AccountRepo.MarkWelcomeEmailSent(ctx, acct.ID); err != nil {
		s.Logger.Errorw("failed to mark welcome email as sent",
			"account_id", acct.ID,
			"error", err)
		return
	}
	s.Logger.Infow("queued welcome email", "account_id", acct.ID)
}
