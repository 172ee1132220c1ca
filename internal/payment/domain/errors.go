package domain

import "errors"

var (
	ErrMissingSignature  = errors.New("missing_signature")
	ErrInvalidSignature  = errors.New("invalid_signature")
	ErrInvalidPayload    = errors.New("invalid_payload")
	ErrInvalidEvent      = errors.New("invalid_event")
	ErrPartnerUnresolved = errors.New("partner_unresolved")
	ErrOrderNotFound     = errors.New("order_not_found")
)
