package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/arbor/internal/testutils"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDeclaration = `name: app
children:
  scene:
    - name: home
      default_action: show
      children:
        feature:
          - name: menu
    - name: settings
`

func setup(t *testing.T) (declPath, locPath string) {
	t.Helper()
	dir := t.TempDir()
	declPath = testutils.WriteFile(t, dir, "arbor.yaml", testDeclaration)
	return declPath, filepath.Join(dir, "location.json")
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCLI_Validate(t *testing.T) {
	decl, _ := setup(t)
	assert.Contains(t, run(t, "validate", decl), "Declaration is valid! ✅")
}

func TestReport(t *testing.T) {
	var out bytes.Buffer
	err := multierror.Append(nil, errors.New("duplicate name \"menu\""), errors.New("unknown router type \"modal\""))
	assert.False(t, report(&out, err))
	assert.Equal(t, "Validation failed:\n  - duplicate name \"menu\"\n  - unknown router type \"modal\"\n", out.String())

	out.Reset()
	assert.True(t, report(&out, nil))
	assert.Equal(t, "Declaration is valid! ✅\n", out.String())
}

func TestCLI_SharedLocation(t *testing.T) {
	decl, loc := setup(t)
	flags := []string{"--file", decl, "--location-file", loc}

	out := run(t, append([]string{"exec", "settings", "show"}, flags...)...)
	assert.Equal(t, "/settings", strings.TrimSpace(out))

	// A later invocation starts from the stored location.
	out = run(t, append([]string{"link", "menu", "show"}, flags...)...)
	assert.Equal(t, "/home?menu=true", strings.TrimSpace(out))

	out = run(t, append([]string{"state", "--json"}, flags...)...)
	assert.Contains(t, out, `"location": "/settings"`)

	out = run(t, append([]string{"navigate", "/home?menu=true"}, flags...)...)
	assert.Equal(t, "/home?menu=true", strings.TrimSpace(out))

	out = run(t, append([]string{"graph", "--state"}, flags...)...)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"), out)
	assert.Contains(t, out, "class menu visible;")
}

func TestCLI_Version(t *testing.T) {
	assert.Contains(t, run(t, "version"), "arbor version ")
}
