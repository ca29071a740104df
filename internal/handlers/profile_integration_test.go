package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/autodetail/internal/handlers/testutil"
	"github.com/charlesng35/autodetail/internal/models"
)

type profilePayload struct {
	User  models.Account   `json:"user"`
	Posts []models.Listing `json:"posts"`
}

func TestProfileLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	account, token := env.Token(models.RoleUser)
	createListing(t, env, token)

	resp := env.Request(http.MethodGet, "/api/profile", nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = env.Request(http.MethodGet, "/api/profile", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var profile profilePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &profile)
	require.Equal(t, account.Email, profile.User.Email)
	require.Len(t, profile.Posts, 1)

	resp = env.Request(http.MethodPut, "/api/profile", map[string]string{"name": "Renamed", "phone": "+994551234567"}, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var updated models.Account
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &updated)
	require.Equal(t, "Renamed", updated.DisplayName)
	require.Equal(t, "+994551234567", *updated.Phone)

	resp = env.Request(http.MethodPut, "/api/profile", map[string]string{"phone": "123"}, token)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestProfileImage(t *testing.T) {
	env := testutil.NewEnv(t)
	_, token := env.Token(models.RoleUser)

	resp := env.Multipart(http.MethodPost, "/api/profile/image", nil, nil, token)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	resp = env.Multipart(http.MethodPost, "/api/profile/image", nil, []testutil.File{
		{Field: "image", Name: "me.jpg", Data: []byte("avatar")},
	}, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var uploaded struct {
		URL string `json:"profile_image_url"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &uploaded)
	require.NotEmpty(t, uploaded.URL)

	resp = env.Request(http.MethodGet, uploaded.URL, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = env.Request(http.MethodGet, "/api/profile", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var profile profilePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &profile)
	require.NotNil(t, profile.User.ProfileImageURL)
	require.Equal(t, uploaded.URL, *profile.User.ProfileImageURL)

	resp = env.Request(http.MethodDelete, "/api/profile/image", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodGet, uploaded.URL, nil, "")
	require.Equal(t, http.StatusNotFound, resp.Code)

	oversized := []testutil.File{{Field: "image", Name: "big.jpg", Data: make([]byte, (1<<20)+1)}}
	resp = env.Multipart(http.MethodPost, "/api/profile/image", nil, oversized, token)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestFavorites(t *testing.T) {
	env := testutil.NewEnv(t)
	_, ownerToken := env.Token(models.RoleUser)
	_, token := env.Token(models.RoleUser)
	id := createListing(t, env, ownerToken)

	resp := env.Request(http.MethodPost, "/api/favorites", map[string]string{"post_id": "missing"}, token)
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
	resp = env.Request(http.MethodPost, "/api/favorites", map[string]string{}, token)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	for i := 0; i < 2; i++ {
		resp = env.Request(http.MethodPost, "/api/favorites", map[string]string{"post_id": id}, token)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	}

	resp = env.Request(http.MethodGet, "/api/favorites", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var favorites []models.Listing
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &favorites)
	require.Len(t, favorites, 1)
	require.Equal(t, id, favorites[0].ID)

	resp = env.Request(http.MethodDelete, "/api/favorites/"+id, nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodGet, "/api/favorites", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &favorites)
	require.Empty(t, favorites)
}
