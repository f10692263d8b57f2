package users

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/akorchagin/vidstream/internal/service/auth"
	"github.com/akorchagin/vidstream/internal/testutil"
	"github.com/akorchagin/vidstream/tests/e2e"
)

func Test_ChannelProfile(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	e2e.ServeInTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
		for _, username := range []string{"alice", "bob"} {
			_, err := s.Sessions.Register(t.Context(), auth.RegisterParams{
				FullName:  "Test User",
				Email:     username + "@x.com",
				Username:  username,
				Password:  "p1",
				AvatarURL: "https://cdn.test/media/" + username + ".png",
			})
			require.NoError(t, err)
		}

		_, pair, err := s.Sessions.Login(t.Context(), "alice", "p1")
		require.NoError(t, err)

		req, err := http.NewRequest(http.MethodGet, srvURL+"/api/v1/users/c/bob", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+pair.Access.Value)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

		var e struct {
			Data struct {
				Username         string `json:"username"`
				SubscribersCount int64  `json:"subscribersCount"`
				IsSubscribed     bool   `json:"isSubscribed"`
			} `json:"data"`
			Success bool `json:"success"`
		}
		require.NoError(t, json.Unmarshal(body, &e))
		require.True(t, e.Success)
		require.Equal(t, "bob", e.Data.Username)
		require.Zero(t, e.Data.SubscribersCount)
		require.False(t, e.Data.IsSubscribed)
	})
}
