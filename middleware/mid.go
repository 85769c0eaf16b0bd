package middleware

import (
	"fmt"

	"order-service/internal/auth"
)

type Mid struct {
	keys *auth.Keys
}

func NewMid(keys *auth.Keys) (*Mid, error) {
	if keys == nil {
		return nil, fmt.Errorf("auth keys are nil")
	}
	return &Mid{keys: keys}, nil
}
