package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims are the claims embedded in issued access tokens. CourseIDs is
// populated for teacher accounts only and drives API-layer visibility
// scoping.
type JWTClaims struct {
	UserID    int64    `json:"uid"`
	Username  string   `json:"username"`
	Role      UserRole `json:"role"`
	CourseIDs []int64  `json:"course_ids,omitempty"`
	jwt.RegisteredClaims
}

// LoginResponse carries the issued token and account info.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        *User  `json:"user"`
}
