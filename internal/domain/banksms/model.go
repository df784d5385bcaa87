// Package banksms ingests bank deposit notification SMS messages and parses
// them into wallet top-up candidates. Stored rows are matched and consumed by
// the billing service.
package banksms

import "time"

// IncomingSms is one stored bank SMS. Only messages from a configured bank
// sender that parse as credits are persisted; everything else is forwarded
// (when a profile matches) and dropped.
type IncomingSms struct {
	ID                  int64      `db:"id" json:"id"`
	Sender              string     `db:"sender" json:"sender"`
	Receiver            *string    `db:"receiver" json:"receiver,omitempty"`
	Body                string     `db:"body" json:"body"`
	IsBankSender        bool       `db:"is_bank_sender" json:"is_bank_sender"`
	ParsedAmountRial    *int64     `db:"parsed_amount_rial" json:"parsed_amount_rial,omitempty"`
	ParsedAmountToman   *int64     `db:"parsed_amount_toman" json:"parsed_amount_toman,omitempty"`
	ParsedTransactionAt *time.Time `db:"parsed_transaction_at" json:"parsed_transaction_at,omitempty"`
	ParsedIsCredit      *bool      `db:"parsed_is_credit" json:"parsed_is_credit,omitempty"`
	ParseError          *string    `db:"parse_error" json:"parse_error,omitempty"`
	Consumed            bool       `db:"consumed" json:"consumed"`
	ConsumedAt          *time.Time `db:"consumed_at" json:"consumed_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}

// Profile describes one bank's SMS integration: which sender numbers belong
// to it and where manager notifications go.
type Profile struct {
	Key            string
	BankName       string
	SMSSenders     []string
	ManagerNumbers []string
	NotifyFrom     string
	NotifyAPIKey   string
	ParserKey      string
}

// ResolveProfile finds the profile owning the sender, or nil.
func ResolveProfile(profiles []Profile, sender string) *Profile {
	normalized := NormalizeSender(sender)
	if normalized == "" {
		return nil
	}
	for i := range profiles {
		for _, s := range profiles[i].SMSSenders {
			if s == normalized {
				return &profiles[i]
			}
		}
	}
	return nil
}
