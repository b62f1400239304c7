package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ClaimBadgeRequest struct {
	Level uint8 `json:"level"`
}

type ClaimBadgeResponse struct {
	Status string `json:"status"`
	Data   struct {
		UserAddress string `json:"user_address"`
		Level       uint8  `json:"level"`
		LevelName   string `json:"level_name"`
		Highest     uint8  `json:"highest"`
		ClaimedAt   string `json:"claimed_at"`
	} `json:"data"`
}

type RevokeBadgeRequest struct {
	UserAddress string `json:"user_address"`
	Level       uint8  `json:"level"`
}

type RevokeBadgeResponse struct {
	Status string `json:"status"`
	Data   struct {
		UserAddress string `json:"user_address"`
		Level       uint8  `json:"level"`
		Highest     uint8  `json:"highest"`
	} `json:"data"`
}

type UserBadgeResponse struct {
	Status string `json:"status"`
	Data   struct {
		UserAddress string `json:"user_address"`
		Level       uint8  `json:"level"`
		LevelName   string `json:"level_name"`
	} `json:"data"`
}

type EligibilityEntryDTO struct {
	Level     uint8  `json:"level"`
	LevelName string `json:"level_name"`
	Threshold uint32 `json:"threshold"`
	Eligible  bool   `json:"eligible"`
	Claimed   bool   `json:"claimed"`
}

type EligibilityResponse struct {
	Status string                `json:"status"`
	Data   []EligibilityEntryDTO `json:"data"`
}

type BadgeNameResponse struct {
	Status string `json:"status"`
	Data   struct {
		Level uint8  `json:"level"`
		Name  string `json:"name"`
	} `json:"data"`
}
