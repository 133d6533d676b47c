package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"recipe-finder/internal/api"
	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/infrastructure/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliSeed = `
ingredients:
  - name: Rice
  - name: Egg
  - name: Carrot
recipes:
  - title: Egg Fried Rice
    slug: egg-fried-rice
    is_finger_food: true
    created_at: 2024-01-01T00:00:00Z
    ingredients:
      - name: rice
      - name: egg
  - title: Veggie Rice
    slug: veggie-rice
    created_at: 2024-01-02T00:00:00Z
    ingredients:
      - name: rice
      - name: egg
      - name: carrot
`

func newServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	seed, err := store.ParseSeed([]byte(cliSeed))
	require.NoError(t, err)
	require.NoError(t, st.Seed(context.Background(), seed))

	router, err := api.SetupRouter(config.Default(), st, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	server := newServer(t)

	out, err := run(t, server, "search", "rice", "egg")
	require.NoError(t, err)
	assert.Contains(t, out, "1 matching recipes")
	assert.Contains(t, out, "egg-fried-rice")
	assert.Contains(t, out, "almost there:")
	assert.Contains(t, out, "veggie-rice")

	out, err = run(t, server, "search", "--finger-food", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_count": 1`)
}

func TestRenameAndRedirectCommands(t *testing.T) {
	server := newServer(t)

	out, err := run(t, server, "rename", "egg-fried-rice", "--title", "Egg Rice Bites")
	require.NoError(t, err)
	assert.Contains(t, out, "redirect egg-fried-rice -> egg-rice-bites")

	out, err = run(t, server, "redirect", "egg-fried-rice")
	require.NoError(t, err)
	assert.Equal(t, "egg-fried-rice -> egg-rice-bites\n", out)

	out, err = run(t, server, "redirects")
	require.NoError(t, err)
	assert.Contains(t, out, "1 redirects")

	out, err = run(t, server, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "redirects: 1")
}

func TestRenameCommandReportsConflict(t *testing.T) {
	server := newServer(t)

	_, err := run(t, server, "rename", "veggie-rice", "--title", "X", "--slug", "egg-fried-rice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}

func TestSuggestAndReindexCommands(t *testing.T) {
	server := newServer(t)

	out, err := run(t, server, "suggest", "carot")
	require.NoError(t, err)
	assert.Contains(t, out, "Carrot")

	out, err = run(t, server, "reindex")
	require.NoError(t, err)
	assert.Equal(t, "indexed 3 ingredients\n", out)
}
