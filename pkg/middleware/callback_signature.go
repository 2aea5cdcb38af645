package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
)

const SignatureHeader = "X-Signature"

// SignPayload returns the X-Signature value for body.
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayloadSignature accepts the signature with or without its
// "sha256=" prefix.
func VerifyPayloadSignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	received := strings.TrimPrefix(signature, "sha256=")
	expected := strings.TrimPrefix(SignPayload(secret, body), "sha256=")
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(received)))
}

// CallbackSignature rejects provider callbacks whose X-Signature is not the
// HMAC-SHA256 of the raw body under secret. An empty secret disables the
// check.
func CallbackSignature(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			signature := r.Header.Get(SignatureHeader)
			if signature == "" {
				rejectCallback(w, log, r, "Missing X-Signature header")
				return
			}

			body, err := io.ReadAll(r.Body)
			_ = r.Body.Close()
			if err != nil {
				apperrors.WriteError(w, apperrors.BadRequest("Failed to read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !VerifyPayloadSignature(secret, body, signature) {
				rejectCallback(w, log, r, "Invalid callback signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectCallback(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Payment callback verification failed",
		"request_id", RequestIDFromContext(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	apperrors.WriteError(w, apperrors.Unauthorized("Invalid callback signature"))
}
