package banksms

import (
	"context"
	"fmt"

	"github.com/saeidmoini/salehi-panel/pkg/logger"
)

// ManagerNotifier forwards a text to a profile's manager numbers. Failures
// must never block ingestion.
type ManagerNotifier interface {
	SendToManagers(ctx context.Context, profile Profile, text string) error
}

// Service handles the inbound SMS webhook: profile resolution, forwarding,
// parsing, and selective storage.
type Service struct {
	repo     Repository
	parser   *Parser
	profiles []Profile
	notifier ManagerNotifier
}

// NewService creates a bank SMS service. notifier may be nil.
func NewService(repo Repository, parser *Parser, profiles []Profile, notifier ManagerNotifier) *Service {
	return &Service{repo: repo, parser: parser, profiles: profiles, notifier: notifier}
}

// Ingest processes one incoming SMS. Messages from a known bank sender are
// always forwarded to the managers; only parse-clean credit messages are
// stored. Returns nil without error when the message is dropped.
func (s *Service) Ingest(ctx context.Context, sender string, receiver *string, body string) (*IncomingSms, error) {
	profile := ResolveProfile(s.profiles, sender)
	if profile == nil {
		logger.Debug(ctx, "sms from unknown sender dropped", "sender", sender)
		return nil, nil
	}

	if s.notifier != nil && len(profile.ManagerNumbers) > 0 {
		forwarded := fmt.Sprintf("%s:\n%s", profile.BankName, body)
		if err := s.notifier.SendToManagers(ctx, *profile, forwarded); err != nil {
			logger.Warn(ctx, "manager forward failed",
				"bank", profile.Key,
				"error", err.Error(),
			)
		}
	}

	parsed, parseErr := s.parser.Parse(body)
	if parsed == nil {
		logger.Info(ctx, "bank sms not stored",
			"bank", profile.Key,
			"parse_error", parseErr,
		)
		return nil, nil
	}
	if !parsed.IsCredit {
		return nil, nil
	}

	sms := &IncomingSms{
		Sender:              sender,
		Receiver:            receiver,
		Body:                body,
		IsBankSender:        true,
		ParsedAmountRial:    &parsed.AmountRial,
		ParsedAmountToman:   &parsed.AmountToman,
		ParsedTransactionAt: &parsed.TransactionAtUTC,
		ParsedIsCredit:      &parsed.IsCredit,
	}
	if err := s.repo.Insert(ctx, sms); err != nil {
		return nil, err
	}

	logger.Info(ctx, "bank sms stored",
		"bank", profile.Key,
		"sms_id", sms.ID,
		"amount_toman", parsed.AmountToman,
	)
	return sms, nil
}
