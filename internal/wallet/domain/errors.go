package domain

import "errors"

var (
	ErrAlreadyProcessed = errors.New("payment_already_processed")
	ErrPartnerNotFound  = errors.New("partner_not_found")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrInvalidReference = errors.New("invalid_reference")
)
