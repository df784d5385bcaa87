package dto

// AdjustWalletRequest is a manual wallet adjustment.
type AdjustWalletRequest struct {
	AmountToman int64   `json:"amount_toman" binding:"required"`
	Operation   string  `json:"operation" binding:"required"`
	Note        *string `json:"note"`
}

// MatchTopupRequest claims a bank deposit by amount and Jalali minute.
type MatchTopupRequest struct {
	AmountToman int64  `json:"amount_toman" binding:"required"`
	JalaliDate  string `json:"jalali_date" binding:"required"`
	Hour        int    `json:"hour"`
	Minute      int    `json:"minute"`
}
