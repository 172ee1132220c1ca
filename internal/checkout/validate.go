package checkout

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	merchantTxnIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,30}$`)
	customerNamePattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z .'-]{0,99}$`)
	emailPattern         = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	mobilePattern        = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	addressPattern       = regexp.MustCompile(`^[A-Za-z0-9 ,./#'()-]{1,200}$`)
	currencyPattern      = regexp.MustCompile(`^[A-Z]{3}$`)
)

func (s *Service) validate(req OrderRequest) error {
	if req.AmountMajor < s.cfg.MinAmountMajor || req.AmountMajor > s.cfg.MaxAmountMajor {
		return fmt.Errorf("%w: must be between %d and %d",
			ErrInvalidAmount, s.cfg.MinAmountMajor, s.cfg.MaxAmountMajor)
	}
	if !merchantTxnIDPattern.MatchString(req.MerchantTxnID) {
		return ErrInvalidTxnID
	}
	if !currencyPattern.MatchString(req.Currency) {
		return fmt.Errorf("%w: currency", ErrInvalidCustomer)
	}
	if !customerNamePattern.MatchString(req.CustomerName) {
		return fmt.Errorf("%w: customer_name", ErrInvalidCustomer)
	}
	if !emailPattern.MatchString(req.CustomerEmail) {
		return fmt.Errorf("%w: customer_email", ErrInvalidCustomer)
	}
	if !mobilePattern.MatchString(req.CustomerMobile) {
		return fmt.Errorf("%w: customer_mobile", ErrInvalidCustomer)
	}
	if strings.TrimSpace(req.CustomerAddress) != "" && !addressPattern.MatchString(req.CustomerAddress) {
		return fmt.Errorf("%w: customer_address", ErrInvalidCustomer)
	}
	return s.checkTimestamp(req.Timestamp)
}
