package model

type AuthRequest struct {
	Email    string `json:"email" binding:"required,email" example:"test@test.com"`
	Password string `json:"password" binding:"required" example:"test"`
}

type TokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthUser is the identity the access guard attaches to a request.
type AuthUser struct {
	ID    int64
	Email string
	User  *User
}

// RefreshIdentity is what the refresh guard attaches to a request. The raw
// token travels with it so the session hash can be compared.
type RefreshIdentity struct {
	ID           int64
	RefreshToken string
}
