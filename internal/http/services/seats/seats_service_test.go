package seats

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"testing"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/seatd/internal/allocator"
	"github.com/dropDatabas3/seatd/internal/catalog"
	dto "github.com/dropDatabas3/seatd/internal/http/dto/seats"
	httperrors "github.com/dropDatabas3/seatd/internal/http/errors"
	"github.com/dropDatabas3/seatd/internal/store/memory"
	"github.com/dropDatabas3/seatd/internal/token"
)

func testService(t *testing.T) (Service, *token.Issuer) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemData := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	issuer, err := token.New(token.Config{Tenant: "acme", KID: "k1", PrivateKeyPEM: string(pemData)})
	require.NoError(t, err)

	st := memory.New()
	cat := catalog.New(catalog.DefaultSizes)
	return New(Deps{
		Allocator: allocator.New(st, cat, allocator.Config{}),
		Issuer:    issuer,
		Store:     st,
		Catalog:   cat,
	}), issuer
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	appErr := httperrors.FromError(err)
	require.Equal(t, status, appErr.HTTPStatus)
}

func TestAllocate_PoolFromLabelPrefix(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	cases := []struct {
		label string
		pool  string
		slot  string
	}{
		{"src.cam1", "collector", "collector_01"},
		{"mon.wall", "monitor", "monitor_01"},
		{"productor", "crew", "crew_01"},
		{"SRC.cam2", "collector", "collector_02"},
		{"Mon.Wall2", "monitor", "monitor_02"},
	}
	for i, tc := range cases {
		resp, err := svc.Allocate(ctx, occupant(i), dto.AllocateRequest{Room: "ops", DisplayLabel: tc.label})
		require.NoError(t, err, tc.label)
		require.Equal(t, tc.pool, resp.Pool)
		require.Equal(t, tc.slot, resp.SlotID)
		require.NotEmpty(t, resp.Credential)
		require.Equal(t, 60, resp.TTLSeconds)
		require.Equal(t, i+1, resp.Counts.Total)
	}
}

func TestAllocate_CredentialMatchesSeat(t *testing.T) {
	svc, issuer := testService(t)

	resp, err := svc.Allocate(context.Background(), "u1", dto.AllocateRequest{
		Room:         "  Sala-OPS ",
		DisplayLabel: "src.cam1",
		Role:         "admin",
	})
	require.NoError(t, err)
	require.Equal(t, "sala-ops", resp.Room)

	claims := jwtv5.MapClaims{}
	_, err = jwtv5.ParseWithClaims(resp.Credential, claims, func(tk *jwtv5.Token) (any, error) {
		return issuer.PublicKey(), nil
	}, jwtv5.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)
	require.Equal(t, resp.SlotID, claims["sub"])
	require.Equal(t, "sala-ops", claims["room"])

	user := claims["context"].(map[string]any)["user"].(map[string]any)
	require.Equal(t, true, user["moderator"])
}

func TestAllocate_NonAdminRoleIsNotModerator(t *testing.T) {
	svc, issuer := testService(t)

	resp, err := svc.Allocate(context.Background(), "u1", dto.AllocateRequest{
		Room:         "ops",
		DisplayLabel: "src.cam1",
		Role:         "viewer",
	})
	require.NoError(t, err)

	claims := jwtv5.MapClaims{}
	_, err = jwtv5.ParseWithClaims(resp.Credential, claims, func(tk *jwtv5.Token) (any, error) {
		return issuer.PublicKey(), nil
	}, jwtv5.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)

	user := claims["context"].(map[string]any)["user"].(map[string]any)
	require.Equal(t, false, user["moderator"])
}

func TestAllocate_ValidationErrors(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, err := svc.Allocate(ctx, "", dto.AllocateRequest{Room: "ops", DisplayLabel: "src.cam1"})
	requireStatus(t, err, http.StatusUnauthorized)

	_, err = svc.Allocate(ctx, "u1", dto.AllocateRequest{Room: "!!!", DisplayLabel: "src.cam1"})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = svc.Allocate(ctx, "u1", dto.AllocateRequest{Room: "ops", DisplayLabel: "   "})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestAllocate_WithoutIssuerIs503(t *testing.T) {
	st := memory.New()
	cat := catalog.New(catalog.DefaultSizes)
	svc := New(Deps{
		Allocator: allocator.New(st, cat, allocator.Config{}),
		Store:     st,
		Catalog:   cat,
	})

	_, err := svc.Allocate(context.Background(), "u1", dto.AllocateRequest{Room: "ops", DisplayLabel: "src.cam1"})
	requireStatus(t, err, http.StatusServiceUnavailable)
}

func TestAllocate_Exhausted(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.Allocate(ctx, occupant(i), dto.AllocateRequest{Room: "ops", DisplayLabel: "mon.wall"})
		require.NoError(t, err)
	}

	_, err := svc.Allocate(ctx, "late", dto.AllocateRequest{Room: "ops", DisplayLabel: "mon.wall"})
	requireStatus(t, err, http.StatusTooManyRequests)
}

func TestHeartbeatAndRevoke(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	alloc, err := svc.Allocate(ctx, "u1", dto.AllocateRequest{Room: "ops", DisplayLabel: "host"})
	require.NoError(t, err)

	hb, err := svc.Heartbeat(ctx, "u1", dto.HeartbeatRequest{Room: "ops"})
	require.NoError(t, err)
	require.True(t, hb.OK)

	// Heartbeat sin seat es igualmente OK: nunca crea asignaciones.
	hb, err = svc.Heartbeat(ctx, "ghost", dto.HeartbeatRequest{Room: "ops"})
	require.NoError(t, err)
	require.True(t, hb.OK)

	_, err = svc.Heartbeat(ctx, "", dto.HeartbeatRequest{Room: "ops"})
	requireStatus(t, err, http.StatusUnauthorized)

	rv, err := svc.Revoke(ctx, dto.RevokeRequest{Room: "ops", SlotID: alloc.SlotID})
	require.NoError(t, err)
	require.True(t, rv.OK)

	seats, err := svc.RoomSeats(ctx, "ops")
	require.NoError(t, err)
	require.Empty(t, seats.Seats)
}

func TestRevoke_UnknownSlotIsInvalid(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.Revoke(context.Background(), dto.RevokeRequest{Room: "ops", SlotID: "dj_01"})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestRoomSeats_SortedWithCounts(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, err := svc.Allocate(ctx, "u2", dto.AllocateRequest{Room: "ops", DisplayLabel: "productor"})
	require.NoError(t, err)
	_, err = svc.Allocate(ctx, "u1", dto.AllocateRequest{Room: "ops", DisplayLabel: "src.cam1"})
	require.NoError(t, err)

	resp, err := svc.RoomSeats(ctx, "OPS")
	require.NoError(t, err)
	require.Len(t, resp.Seats, 2)
	require.Equal(t, "collector_01", resp.Seats[0].SlotID)
	require.Equal(t, "crew_01", resp.Seats[1].SlotID)
	require.Equal(t, 2, resp.Counts.Total)
	require.Equal(t, 1, resp.Counts.Collector)
	require.Equal(t, 1, resp.Counts.Crew)
}

func occupant(i int) string {
	return "user-" + string(rune('a'+i))
}
