package domain

import "errors"

var (
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrSupplyExhausted     = errors.New("number supply exhausted")
	ErrAllocationExhausted = errors.New("number allocation retries exhausted")
	ErrNumberTaken         = errors.New("number already claimed")
	ErrUpstreamTimeout     = errors.New("payment provider timeout")
	ErrInvalidSignature    = errors.New("invalid event signature")
	ErrOrderNotFound       = errors.New("order not found")
	ErrSessionRefTaken     = errors.New("payment session ref already attached")
	ErrInvalidID           = errors.New("invalid id")
)
