package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/micropost/internal/model"
	"github.com/forgo/micropost/pkg/jwt"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		stdin    string
		args     []string
		wantErr  bool
		wantText []string
	}{
		{
			name:     "accepted",
			args:     []string{"check", "--author", "user:alice", "hello"},
			wantText: []string{"accepted"},
		},
		{
			name:     "no author flag",
			args:     []string{"check", "hello"},
			wantErr:  true,
			wantText: []string{"missing_author"},
		},
		{
			name:     "empty author flag",
			args:     []string{"check", "--author", "", "hello"},
			wantErr:  true,
			wantText: []string{"missing_author"},
		},
		{
			name:     "nothing supplied",
			args:     []string{"check"},
			wantErr:  true,
			wantText: []string{"missing_content", "missing_author"},
		},
		{
			name:     "exactly at limit",
			args:     []string{"check", "--author", "user:alice", strings.Repeat("a", 140)},
			wantText: []string{"accepted"},
		},
		{
			name:     "over limit",
			args:     []string{"check", "--author", "user:alice", strings.Repeat("a", 141)},
			wantErr:  true,
			wantText: []string{"content_too_long"},
		},
		{
			name:     "stdin",
			stdin:    "from stdin\n",
			args:     []string{"check", "--stdin", "--author", "user:alice"},
			wantText: []string{"accepted"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := run(t, tt.stdin, tt.args...)
			if tt.wantErr {
				assert.ErrorIs(t, err, errRejected)
			} else {
				assert.NoError(t, err)
			}
			for _, s := range tt.wantText {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestCheck_JSON(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "check", "--json", "")
	require.ErrorIs(t, err, errRejected)

	var res model.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Accepted)
	assert.Equal(t, []model.ViolationKind{model.ViolationMissingContent, model.ViolationMissingAuthor}, res.Violations)
}

func TestKeysAndToken(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	out, err := run(t, "", "keys", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "private.pem")

	_, err = run(t, "", "keys", "--dir", dir)
	assert.Error(t, err, "existing keys should not be overwritten")

	out, err = run(t, "", "token",
		"--key", filepath.Join(dir, "private.pem"),
		"--user", "user:alice",
		"--issuer", "micropost-test",
		"--exp", "10m",
		"--json",
	)
	require.NoError(t, err)

	var tok tokenOutput
	require.NoError(t, json.Unmarshal([]byte(out), &tok))
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, int64(600), tok.ExpiresIn)

	verifier, err := jwt.NewService(jwt.Config{
		PublicKeyPath: filepath.Join(dir, "public.pem"),
		Issuer:        "micropost-test",
	})
	require.NoError(t, err)

	claims, err := verifier.Validate(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user:alice", claims.AuthorID())
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), time.Unix(claims.ExpiresAt, 0), time.Minute)
}

func TestToken_Errors(t *testing.T) {
	t.Parallel()

	_, err := run(t, "", "token", "--key", filepath.Join(t.TempDir(), "missing.pem"))
	assert.ErrorContains(t, err, "--user is required")

	_, err = run(t, "", "token", "--user", "user:a", "--key", filepath.Join(t.TempDir(), "missing.pem"))
	assert.ErrorContains(t, err, "load key")

	_, err = run(t, "", "token", "--user", "user:a", "--exp", "0s")
	assert.ErrorContains(t, err, "--exp must be positive")
}
