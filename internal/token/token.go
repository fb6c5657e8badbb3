package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// TokenLength is the number of hex characters kept from the HMAC digest.
const TokenLength = 32

// QRPayload is the value embedded in a ticket's QR code. The token binds
// booking and holder to this server's secret; tampering with either id
// invalidates it.
type QRPayload struct {
	BookingID uuid.UUID `json:"booking_id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
}

// Generator derives and checks ticket verification tokens.
type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	return &Generator{secret: []byte(secret)}
}

// Token computes the truncated HMAC-SHA256 over bookingID:userID.
func (g *Generator) Token(bookingID, userID uuid.UUID) string {
	mac := hmac.New(sha256.New, g.secret)
	fmt.Fprintf(mac, "%s:%s", bookingID, userID)
	return hex.EncodeToString(mac.Sum(nil))[:TokenLength]
}

// Payload builds the QR payload for a confirmed booking.
func (g *Generator) Payload(bookingID, userID uuid.UUID) QRPayload {
	return QRPayload{
		BookingID: bookingID,
		UserID:    userID,
		Token:     g.Token(bookingID, userID),
	}
}

// Check recomputes the token from the claimed ids and compares it in
// constant time against the embedded one.
func (g *Generator) Check(p QRPayload) bool {
	expected := g.Token(p.BookingID, p.UserID)
	return hmac.Equal([]byte(expected), []byte(p.Token))
}

// Encode serializes a payload to the base64 string placed in the QR code.
func Encode(p QRPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode parses a scanned QR string back into a payload.
func Decode(encoded string) (QRPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return QRPayload{}, fmt.Errorf("decode qr payload: %w", err)
	}
	var p QRPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return QRPayload{}, fmt.Errorf("unmarshal qr payload: %w", err)
	}
	return p, nil
}
