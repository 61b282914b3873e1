package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limmweb/instagram-ai-commentator/pkg/storage"
)

func TestSelectSession(t *testing.T) {
	var out bytes.Buffer

	name, err := selectSession(strings.NewReader(""), &out, []string{"only"})
	require.NoError(t, err)
	assert.Equal(t, "only", name)

	name, err = selectSession(strings.NewReader("2\n"), &out, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, "b", name)
	assert.Contains(t, out.String(), "3: c")

	_, err = selectSession(strings.NewReader("7\n"), &out, []string{"a", "b"})
	assert.Error(t, err)

	_, err = selectSession(strings.NewReader(""), &out, nil)
	assert.Error(t, err)
}

func TestPromptCredentials(t *testing.T) {
	var out bytes.Buffer
	creds, err := promptCredentials(strings.NewReader("user\npass"), &out)
	require.NoError(t, err)
	assert.Equal(t, "user", creds.Login)
	assert.Equal(t, "pass", creds.Password)

	_, err = promptCredentials(strings.NewReader("user\n\n"), &out)
	assert.ErrorIs(t, err, storage.ErrMissingCredentials)
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()
	for _, path := range [][]string{{"run"}, {"session", "create"}, {"session", "list"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}
