package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitActionRequest struct {
	Amount     string `json:"amount"`
	Proof      string `json:"proof"`
	ActionType uint8  `json:"action_type"`
	CityCode   uint32 `json:"city_code"`
}

type SubmitActionResponse struct {
	Status string `json:"status"`
	Data   struct {
		SubmissionID string `json:"submission_id"`
		Day          uint64 `json:"day"`
		Streak       uint32 `json:"streak"`
		TotalDays    uint32 `json:"total_days"`
		SubmittedAt  string `json:"submitted_at"`
	} `json:"data"`
}

type UserStatsResponse struct {
	Status string `json:"status"`
	Data   struct {
		UserAddress   string `json:"user_address"`
		TotalDays     uint32 `json:"total_days"`
		Streak        uint32 `json:"streak"`
		LastSubmitDay uint64 `json:"last_submit_day"`
		TotalLiters   string `json:"total_liters"`
	} `json:"data"`
}

type SubmissionDTO struct {
	SubmissionID string `json:"submission_id"`
	Day          uint64 `json:"day"`
	ActionType   uint8  `json:"action_type"`
	ActionName   string `json:"action_name"`
	CityCode     uint32 `json:"city_code"`
	Amount       string `json:"amount"`
	SubmittedAt  string `json:"submitted_at"`
}

type SubmissionListResponse struct {
	Status string          `json:"status"`
	Data   []SubmissionDTO `json:"data"`
}
