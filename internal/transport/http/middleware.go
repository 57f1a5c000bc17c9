package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/contriboost/chat-relay/internal/proto"
	"github.com/contriboost/chat-relay/internal/verify"
)

const (
	// ContextKeyIdentity holds the verified wallet of the caller.
	ContextKeyIdentity = "identity"

	// HeaderWalletAddress carries the caller's claimed wallet.
	HeaderWalletAddress = "X-Wallet-Address"

	roomParam = "contract_address"
)

// VerifyParticipant admits only verified participants of the room named in the path.
func VerifyParticipant(verifier verify.Verifier, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		room := c.Param(roomParam)
		claimed := credentialFromRequest(c.Request)

		identity, err := verifier.Verify(c.Request.Context(), claimed, room)
		if err != nil {
			status := verifyStatus(err)
			ev := logger.Debug()
			if status >= http.StatusInternalServerError {
				ev = logger.Warn()
			}
			ev.Err(err).Str("room", room).Str("path", c.FullPath()).Msg("participant verification failed")
			c.AbortWithStatusJSON(status, proto.Error{Error: verifyMessage(err)})
			return
		}

		c.Set(ContextKeyIdentity, identity)
		c.Next()
	}
}

// credentialFromRequest picks the first credential present: bearer token,
// wallet header, then the token and address query parameters used by browsers.
func credentialFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if wallet := strings.TrimSpace(r.Header.Get(HeaderWalletAddress)); wallet != "" {
		return wallet
	}
	q := r.URL.Query()
	if token := q.Get("token"); token != "" {
		return token
	}
	return strings.TrimSpace(q.Get("address"))
}

func verifyStatus(err error) int {
	switch {
	case errors.Is(err, verify.ErrMissingIdentity), errors.Is(err, verify.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, verify.ErrInvalidAddress), errors.Is(err, verify.ErrUnknownGroup):
		return http.StatusBadRequest
	case errors.Is(err, verify.ErrNotParticipant):
		return http.StatusForbidden
	default:
		return http.StatusServiceUnavailable
	}
}

func verifyMessage(err error) string {
	switch {
	case errors.Is(err, verify.ErrMissingIdentity):
		return "missing wallet address"
	case errors.Is(err, verify.ErrInvalidToken):
		return "invalid token"
	case errors.Is(err, verify.ErrInvalidAddress):
		return "invalid address"
	case errors.Is(err, verify.ErrUnknownGroup):
		return "invalid contract"
	case errors.Is(err, verify.ErrNotParticipant):
		return "not a participant"
	default:
		return "verification unavailable"
	}
}

func identityFrom(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextKeyIdentity)
	if !ok {
		return "", false
	}
	identity, ok := v.(string)
	return identity, ok && identity != ""
}

// LoggerMiddleware logs every HTTP request.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
