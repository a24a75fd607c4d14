package dto

type HelpdeskLoginRequest struct {
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required"`
	TwoFactorCode string `json:"two_factor_code"`
}

type BroadcastRequest struct {
	Message string `json:"message" binding:"required,max=500"`
	Region  string `json:"region"`
}
