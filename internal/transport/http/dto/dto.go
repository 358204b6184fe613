package dto

type ErrorResponse struct {
	Error string `json:"error"`
}

type SwipeRequest struct {
	ToUserID string `json:"toUserId"`
	Action   string `json:"action"`
}

type UnmatchResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type LikeCountResponse struct {
	Count int64 `json:"count"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Redis     string `json:"redis,omitempty"`
}
