// Package token emite las credenciales de sala firmadas con RS256.
//
// El JWT resultante lo consume el servidor de media: sub y context.user.id
// llevan el slot id asignado, de modo que el seat se prueba por posesión de
// la credencial. El claim kid viaja en el header JWS y duplicado en el
// payload porque el verificador downstream lo lee del payload.
package token

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured indica que el issuer no tiene clave privada cargada.
// El allocator sigue funcionando sin credenciales; sólo la emisión falla.
var ErrNotConfigured = errors.New("token: signing key not configured")

const (
	defaultAudience = "jitsi"
	defaultIssuer   = "chat"
	defaultTTL      = time.Hour
	// clockSkew retrocede nbf para tolerar relojes desincronizados.
	clockSkew = 10 * time.Second
)

// Config parametriza el Issuer.
type Config struct {
	// Tenant identifica al inquilino ante el servidor de media (claim "tenant"
	// y dominio del email sintético).
	Tenant string

	// KID identifica la clave de firma; va en el header JWS y en el payload.
	KID string

	// PrivateKeyPEM contiene la clave RSA en PEM (PKCS#1 o PKCS#8). Tiene
	// prioridad sobre PrivateKeyPath.
	PrivateKeyPEM string

	// PrivateKeyPath apunta a un archivo PEM con la clave.
	PrivateKeyPath string

	// Audience / Iss / TTL permiten override; defaults: "jitsi", "chat", 1h.
	Audience string
	Iss      string
	TTL      time.Duration
}

// Issuer firma credenciales de sala. Es seguro para uso concurrente: todo su
// estado es inmutable después de New.
type Issuer struct {
	tenant   string
	kid      string
	key      *rsa.PrivateKey
	audience string
	issuer   string
	ttl      time.Duration

	now func() time.Time // inyectable en tests
}

// New construye un Issuer a partir de la config. Retorna ErrNotConfigured si
// no hay clave; el caller decide si eso es fatal o si arranca degradado.
func New(cfg Config) (*Issuer, error) {
	pemData := cfg.PrivateKeyPEM
	if pemData == "" && cfg.PrivateKeyPath != "" {
		raw, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("token: read private key: %w", err)
		}
		pemData = string(raw)
	}
	if pemData == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Tenant == "" {
		return nil, errors.New("token: tenant is required")
	}
	if cfg.KID == "" {
		return nil, errors.New("token: kid is required")
	}

	key, err := parsePrivateKey([]byte(pemData))
	if err != nil {
		return nil, err
	}

	iss := &Issuer{
		tenant:   cfg.Tenant,
		kid:      cfg.KID,
		key:      key,
		audience: cfg.Audience,
		issuer:   cfg.Iss,
		ttl:      cfg.TTL,
		now:      time.Now,
	}
	if iss.audience == "" {
		iss.audience = defaultAudience
	}
	if iss.issuer == "" {
		iss.issuer = defaultIssuer
	}
	if iss.ttl <= 0 {
		iss.ttl = defaultTTL
	}
	return iss, nil
}

func parsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("token: invalid PEM data")
	}
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("token: parse private key: %w", err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("token: private key is not RSA")
	}
	return rsaKey, nil
}

// Grant describe el seat por el que se emite la credencial.
type Grant struct {
	RoomID       string
	SlotID       string
	DisplayLabel string
	Moderator    bool
}

// Issue firma una credencial para el grant dado y retorna el JWT compacto.
func (i *Issuer) Issue(g Grant) (string, error) {
	if i == nil || i.key == nil {
		return "", ErrNotConfigured
	}

	now := i.now().UTC()
	features := map[string]any{
		"livestreaming": g.Moderator,
		"recording":     g.Moderator,
		"transcription": g.Moderator,
		"outbound-call": g.Moderator,
	}
	claims := jwtv5.MapClaims{
		"iss":    i.issuer,
		"aud":    i.audience,
		"sub":    g.SlotID,
		"room":   g.RoomID,
		"tenant": i.tenant,
		"kid":    i.kid,
		"iat":    now.Unix(),
		"nbf":    now.Add(-clockSkew).Unix(),
		"exp":    now.Add(i.ttl).Unix(),
		"context": map[string]any{
			"user": map[string]any{
				"id":        g.SlotID,
				"name":      g.DisplayLabel,
				"email":     fmt.Sprintf("%s@%s.com", g.SlotID, i.tenant),
				"avatar":    "",
				"moderator": g.Moderator,
			},
			"features": features,
		},
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tk.Header["kid"] = i.kid
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// PublicKey expone la clave pública, útil para verificación en tests.
func (i *Issuer) PublicKey() *rsa.PublicKey {
	if i == nil || i.key == nil {
		return nil
	}
	return &i.key.PublicKey
}
