package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootRegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"import", "import-sheet", "plan"} {
		assert.True(t, names[want], want)
	}

	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("env"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
}

func TestLeafCommandBuild(t *testing.T) {
	cmd := LeafCommand{
		Use:       "demo",
		BoolFlags: []BoolFlag{{Name: "dry-run"}},
		StrFlags:  []StringFlag{{Name: "policy", Default: "proportional"}},
	}.Build()

	policy, err := cmd.Flags().GetString("policy")
	assert.NoError(t, err)
	assert.Equal(t, "proportional", policy)
	assert.NotNil(t, cmd.Flags().Lookup("dry-run"))
	assert.True(t, cmd.SilenceUsage)
}
