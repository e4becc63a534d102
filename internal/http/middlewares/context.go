package middlewares

import "context"

type ctxKey string

const (
	// ctxOccupantKey guarda el id del ocupante autenticado
	ctxOccupantKey ctxKey = "occupant_id"
	// ctxClaimsKey guarda las claims JWT parseadas
	ctxClaimsKey ctxKey = "claims"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithOccupantID inyecta el id del ocupante en el contexto.
func WithOccupantID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxOccupantKey, id)
}

// WithClaims inyecta claims en el contexto.
func WithClaims(ctx context.Context, claims map[string]any) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, claims)
}

// setRequestID inyecta el request ID en el contexto (interno).
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetOccupantID obtiene el id del ocupante autenticado.
// Retorna cadena vacía si no hay ocupante (middleware no aplicado o token inválido).
func GetOccupantID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxOccupantKey).(string); ok {
		return v
	}
	return ""
}

// GetClaims obtiene las claims JWT del contexto. Retorna nil si no hay claims.
func GetClaims(ctx context.Context) map[string]any {
	if v, ok := ctx.Value(ctxClaimsKey).(map[string]any); ok {
		return v
	}
	return nil
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return v
	}
	return ""
}
