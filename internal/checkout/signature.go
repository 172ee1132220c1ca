package checkout

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

const (
	fieldAmount            = "amount"
	fieldCurrency          = "currency"
	fieldCustomerEmail     = "customer_email"
	fieldCustomerMobile    = "customer_mobile"
	fieldCustomerName      = "customer_name"
	fieldMerchantID        = "merchant_id"
	fieldMerchantTxnID     = "merchant_txn_id"
	fieldProviderPaymentID = "provider_payment_id"
	fieldStatus            = "status"
	fieldTimestamp         = "timestamp"
)

var requestSignatureFields = []string{
	fieldAmount,
	fieldCurrency,
	fieldCustomerEmail,
	fieldCustomerMobile,
	fieldCustomerName,
	fieldMerchantID,
	fieldMerchantTxnID,
	fieldTimestamp,
}

var callbackSignatureFields = []string{
	fieldAmount,
	fieldMerchantTxnID,
	fieldProviderPaymentID,
	fieldStatus,
	fieldTimestamp,
}

// signFields filters the ordered field list down to names with non-empty
// values, sorts those names alphabetically, concatenates the values in that
// order, appends the secret and returns the hex SHA-256 of the result. Both
// the outbound request and the callback verification depend on this exact
// sequence.
func signFields(values map[string]string, fields []string, secret string) string {
	present := make([]string, 0, len(fields))
	for _, name := range fields {
		if strings.TrimSpace(values[name]) != "" {
			present = append(present, name)
		}
	}
	sort.Strings(present)

	var b strings.Builder
	for _, name := range present {
		b.WriteString(values[name])
	}
	b.WriteString(secret)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func equalConstantTime(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
