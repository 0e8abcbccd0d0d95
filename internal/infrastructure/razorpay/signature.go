package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureVerifier checks a payment callback signature: HMAC-SHA256 over
// "{orderID}|{paymentID}" keyed by the store secret, hex encoded.
type SignatureVerifier struct{}

func NewSignatureVerifier() SignatureVerifier { return SignatureVerifier{} }

func (SignatureVerifier) Verify(secret, gatewayOrderID, paymentID, signature string) bool {
	expected := Sign(secret, gatewayOrderID, paymentID)
	// hmac.Equal avoids short-circuit timing leaks.
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the provider signature for a gateway order / payment pair.
func Sign(secret, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
