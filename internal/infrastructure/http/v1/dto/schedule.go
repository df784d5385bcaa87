package dto

import "github.com/saeidmoini/salehi-panel/internal/domain/schedule"

// WindowRequest is one calling window.
type WindowRequest struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// UpdateScheduleRequest patches config and optionally replaces all windows.
type UpdateScheduleRequest struct {
	Windows      *[]WindowRequest `json:"windows"`
	SkipHolidays *bool            `json:"skip_holidays"`
	Enabled      *bool            `json:"enabled"`
}

// ToInput converts the request to the service input.
func (r *UpdateScheduleRequest) ToInput() schedule.UpdateInput {
	in := schedule.UpdateInput{
		SkipHolidays: r.SkipHolidays,
		Enabled:      r.Enabled,
	}
	if r.Windows != nil {
		windows := make([]schedule.Window, 0, len(*r.Windows))
		for _, w := range *r.Windows {
			windows = append(windows, schedule.Window{
				DayOfWeek: w.DayOfWeek,
				StartTime: w.StartTime,
				EndTime:   w.EndTime,
			})
		}
		in.Windows = &windows
	}
	return in
}

// WalletOverrideRequest is the superuser direct wallet/cost write.
type WalletOverrideRequest struct {
	WalletBalance    *int64 `json:"wallet_balance"`
	CostPerConnected *int64 `json:"cost_per_connected"`
}
