package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"slices"
	"strings"
	"time"
)

const (
	ParamVersion        = "vnp_Version"
	ParamCommand        = "vnp_Command"
	ParamTmnCode        = "vnp_TmnCode"
	ParamAmount         = "vnp_Amount"
	ParamCurrCode       = "vnp_CurrCode"
	ParamTxnRef         = "vnp_TxnRef"
	ParamOrderInfo      = "vnp_OrderInfo"
	ParamOrderType      = "vnp_OrderType"
	ParamLocale         = "vnp_Locale"
	ParamReturnURL      = "vnp_ReturnUrl"
	ParamIPAddr         = "vnp_IpAddr"
	ParamCreateDate     = "vnp_CreateDate"
	ParamExpireDate     = "vnp_ExpireDate"
	ParamResponseCode   = "vnp_ResponseCode"
	ParamTransactionNo  = "vnp_TransactionNo"
	ParamBankCode       = "vnp_BankCode"
	ParamSecureHash     = "vnp_SecureHash"
	ParamSecureHashType = "vnp_SecureHashType"

	ResponseCodeSuccess = "00"

	protocolVersion = "2.1.0"
	commandPay      = "pay"
	currencyVND     = "VND"
	orderTypeOther  = "other"
	localeVN        = "vn"
	dateLayout      = "20060102150405"
)

// Gateway timestamps are always Indochina Time.
var gatewayLocation = time.FixedZone("ICT", 7*60*60)

func formatGatewayTime(t time.Time) string {
	return t.In(gatewayLocation).Format(dateLayout)
}

// Canonicalize builds the string that is signed: parameters sorted by key,
// each key and value query-escaped, joined with '&'. Empty values and the
// signature fields themselves are left out.
func Canonicalize(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if key == ParamSecureHash || key == ParamSecureHashType {
			continue
		}

		if params.Get(key) == "" {
			continue
		}

		keys = append(keys, key)
	}

	slices.Sort(keys)

	var sb strings.Builder
	for i, key := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}

		sb.WriteString(url.QueryEscape(key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(params.Get(key)))
	}

	return sb.String()
}

// Sign returns the lowercase hex HMAC-SHA512 of data keyed with secret.
func Sign(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))

	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the signature over params and compares it with
// the received vnp_SecureHash, ignoring case.
func VerifySignature(secret string, params url.Values) bool {
	received := strings.ToLower(params.Get(ParamSecureHash))
	if received == "" {
		return false
	}

	expected := Sign(secret, Canonicalize(params))

	return hmac.Equal([]byte(received), []byte(expected))
}
