package dto

// AddNumbersRequest bulk-adds phones to the shared pool.
type AddNumbersRequest struct {
	Numbers []string `json:"numbers" binding:"required"`
}

// UpdateNumberStatusRequest overrides the latest per-company status.
type UpdateNumberStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// BulkResetRequest returns pairs to the queue.
type BulkResetRequest struct {
	NumberIDs []int64 `json:"number_ids" binding:"required"`
}
