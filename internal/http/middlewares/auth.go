package middlewares

import (
	"net/http"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/seatd/internal/http/errors"
)

// RequireAuth valida Authorization: Bearer <JWT> (HS256, emitido por el panel)
// y guarda el id del ocupante (claim "sub") en el contexto. Si el token es
// inválido o no está presente, responde 401.
//
// Los tokens ya verificados se cachean por su forma compacta para no repetir
// la verificación de firma en cada heartbeat (uno por ocupante por ~30s).
func RequireAuth(hmacSecret string, cacheTTL time.Duration) Middleware {
	verified := gocache.New(cacheTTL, 2*cacheTTL)
	secret := []byte(hmacSecret)

	parser := jwtv5.NewParser(
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="seats", error="invalid_token", error_description="missing bearer token"`)
				errors.WriteError(w, errors.ErrUnauthenticated.WithDetail("missing bearer token"))
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])

			if sub, ok := verified.Get(raw); ok {
				ctx := WithOccupantID(r.Context(), sub.(string))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			claims := jwtv5.MapClaims{}
			if _, err := parser.ParseWithClaims(raw, claims, func(t *jwtv5.Token) (any, error) {
				return secret, nil
			}); err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="seats", error="invalid_token"`)
				errors.WriteError(w, errors.ErrUnauthenticated.WithDetail(err.Error()))
				return
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				errors.WriteError(w, errors.ErrUnauthenticated.WithDetail("token without subject"))
				return
			}

			// Cachear hasta el mínimo entre cacheTTL y el exp del token
			ttl := cacheTTL
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				if until := time.Until(exp.Time); until < ttl {
					ttl = until
				}
			}
			if ttl > 0 {
				verified.Set(raw, sub, ttl)
			}

			ctx := WithOccupantID(r.Context(), sub)
			ctx = WithClaims(ctx, map[string]any(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireAuthDisabledDetail documenta el modo sin secreto para entornos dev.
const requireAuthDisabledDetail = "auth disabled: set auth.hmac_secret"

// RequireAuthOrDev devuelve RequireAuth, o un middleware que rechaza todo con
// un detalle explícito cuando no hay secreto configurado. Evita arrancar un
// servicio que acepta ocupantes anónimos por accidente.
func RequireAuthOrDev(hmacSecret string, cacheTTL time.Duration) Middleware {
	if hmacSecret != "" {
		return RequireAuth(hmacSecret, cacheTTL)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			errors.WriteError(w, errors.ErrUnauthenticated.WithDetail(requireAuthDisabledDetail))
		})
	}
}
