package dto

// ScenarioRequest creates or patches a scenario.
type ScenarioRequest struct {
	Name             string `json:"name"`
	DisplayName      string `json:"display_name"`
	CostPerConnected *int64 `json:"cost_per_connected"`
	IsActive         *bool  `json:"is_active"`
}

// OutboundLineRequest creates or patches an outbound line.
type OutboundLineRequest struct {
	PhoneNumber string `json:"phone_number"`
	DisplayName string `json:"display_name"`
	IsActive    *bool  `json:"is_active"`
}
