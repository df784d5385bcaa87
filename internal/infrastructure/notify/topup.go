package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/saeidmoini/salehi-panel/internal/core/jalali"
	"github.com/saeidmoini/salehi-panel/internal/domain/banksms"
	"github.com/saeidmoini/salehi-panel/internal/domain/billing"
	"github.com/saeidmoini/salehi-panel/pkg/logger"
)

// sheetCompanySlug is the only tenant whose deposits are mirrored to the
// spreadsheet webhook.
const sheetCompanySlug = "salehi"

// TopupNotifier fans a matched top-up out to the owning bank's managers and,
// for the spreadsheet tenant, to the deposit webhook. Everything here is
// best-effort: the wallet credit has already committed.
type TopupNotifier struct {
	sms      *SmsClient
	sheet    *SheetWebhook
	profiles []banksms.Profile
	cal      *jalali.Calendar
}

var _ billing.TopupNotifier = (*TopupNotifier)(nil)

// NewTopupNotifier creates a top-up notifier. sms and sheet may be nil.
func NewTopupNotifier(sms *SmsClient, sheet *SheetWebhook, profiles []banksms.Profile, cal *jalali.Calendar) *TopupNotifier {
	return &TopupNotifier{sms: sms, sheet: sheet, profiles: profiles, cal: cal}
}

// NotifyTopup announces a matched bank deposit.
func (n *TopupNotifier) NotifyTopup(ctx context.Context, companySlug string, walletTx *billing.WalletTransaction, sms *banksms.IncomingSms) {
	if walletTx == nil || sms == nil {
		return
	}

	if n.sms != nil {
		if profile := banksms.ResolveProfile(n.profiles, sms.Sender); profile != nil {
			text := n.receiptText(companySlug, walletTx)
			if err := n.sms.SendToManagers(ctx, *profile, text); err != nil {
				logger.Warn(ctx, "topup manager notification failed",
					"company", companySlug,
					"bank", profile.Key,
					"error", err.Error(),
				)
			}
		}
	}

	if n.sheet.Enabled() && strings.EqualFold(companySlug, sheetCompanySlug) {
		date := walletTx.TransactionAt.In(n.cal.Location()).Format("2006-01-02")
		if err := n.sheet.RecordDeposit(ctx, walletTx.AmountToman, date); err != nil {
			logger.Warn(ctx, "deposit webhook failed",
				"company", companySlug,
				"error", err.Error(),
			)
		}
	}
}

// receiptText builds the Persian manager receipt.
func (n *TopupNotifier) receiptText(companySlug string, walletTx *billing.WalletTransaction) string {
	return fmt.Sprintf("شارژ کیف پول %s\nمبلغ: %s تومان\nتاریخ: %s\nموجودی جدید: %s تومان",
		companySlug,
		groupDigits(walletTx.AmountToman),
		n.cal.FormatJalaliMinute(walletTx.TransactionAt),
		groupDigits(walletTx.BalanceAfter),
	)
}

// groupDigits renders 1500000 as "1.500.000".
func groupDigits(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := fmt.Sprintf("%d", v)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return sign + strings.Join(parts, ".")
}
