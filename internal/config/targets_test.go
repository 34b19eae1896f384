package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazz-dev/sitepulse/internal/config"
)

func TestParseTargets_KeepsOrderAndDuplicateNames(t *testing.T) {
	targets, err := config.ParseTargets([]byte(`
targets:
  - name: ktbcs
    url: http://ktbcs.xyz
    expected: "<title>KTBCS"
  - name: ktbcs
    url: https://ktbcs.xyz
    expected: "<title>KTBCS"
  - name: nas
    url: http://100.114.180.102:5000/#/sign
    expected: "<title>KTBMES-NAS-01"
`))
	require.NoError(t, err)
	require.Len(t, targets, 3)

	assert.Equal(t, "http://ktbcs.xyz", targets[0].URL)
	assert.Equal(t, "https://ktbcs.xyz", targets[1].URL)
	assert.Equal(t, "nas", targets[2].Name)
	assert.Equal(t, "<title>KTBMES-NAS-01", targets[2].Expected)
}

func TestParseTargets_EmptyExpectedAllowed(t *testing.T) {
	targets, err := config.ParseTargets([]byte(`
targets:
  - name: bare
    url: http://example.com
`))
	require.NoError(t, err)
	assert.Empty(t, targets[0].Expected)
}

func TestParseTargets_Errors(t *testing.T) {
	cases := map[string]struct {
		yaml    string
		mention string
	}{
		"empty": {
			yaml:    `targets: []`,
			mention: "at least one target",
		},
		"empty document": {
			yaml:    ``,
			mention: "at least one target",
		},
		"missing name": {
			yaml: `
targets:
  - url: http://example.com
`,
			mention: "name",
		},
		"missing url": {
			yaml: `
targets:
  - name: site
`,
			mention: "url",
		},
		"url without host": {
			yaml: `
targets:
  - name: site
    url: /just/a/path
`,
			mention: "host",
		},
		"unknown field": {
			yaml: `
targets:
  - name: site
    url: http://example.com
    expect: typo
`,
			mention: "expect",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.ParseTargets([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.mention)
		})
	}
}
