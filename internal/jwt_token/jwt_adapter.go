package jwttoken

import (
	authmw "hayat/pkg/platform/middleware/auth"
)

// Validator adapts Service to the auth middleware.
type Validator struct {
	service *Service
}

func NewValidator(service *Service) *Validator {
	return &Validator{service: service}
}

func (v *Validator) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := v.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{
		UserID:      claims.UserID,
		HouseholdID: claims.HouseholdID,
		JTI:         claims.ID,
	}, nil
}
