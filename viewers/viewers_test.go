package viewers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const body = `{
  "chatter_count": 5,
  "chatters": {
    "moderators": ["mod1"],
    "staff": [],
    "admins": ["admin1"],
    "global_mods": [],
    "viewers": ["v1", "v2", "v3"]
  }
}`

func TestFetch(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	l, err := Fetch(context.Background(), srv.Client(), srv.URL+"/group/user/:channel/chatters", "dallas")
	require.NoError(t, err)
	assert.Equal(t, "/group/user/dallas/chatters", path)
	assert.Equal(t, 5, l.Total())
	assert.Equal(t, []string{"viewers", "moderators", "global_mods", "admins", "staff"}, l.Groups())
	assert.Equal(t, []string{"mod1"}, l.Viewers(GroupModerators))
	assert.Nil(t, l.Viewers("nobody"))
	assert.Equal(t, []string{"v1", "v2", "v3", "mod1", "admin1"}, l.All())
}

func TestFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad/chatters" {
			_, _ = w.Write([]byte("{not json"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.Client(), srv.URL+"/missing/:channel", "dallas")
	assert.Error(t, err)

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/:channel/chatters", "bad")
	assert.Error(t, err)

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/:channel", "")
	assert.Error(t, err)
}
