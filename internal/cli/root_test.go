package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "diamondx", cmd.Use)
	assert.Contains(t, cmd.Long, "reproducible from its seed")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"game", "montecarlo", "replay", "trace", "runs", "validate", "scenario"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestMonteCarloAlias(t *testing.T) {
	cmd := NewRootCommand()
	subCmd, _, err := cmd.Find([]string{"mc"})
	require.NoError(t, err)
	assert.Equal(t, "montecarlo", subCmd.Name())
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestGameCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	gameCmd, _, err := cmd.Find([]string{"game"})
	require.NoError(t, err)

	for name, def := range map[string]string{
		"home":          "hawks",
		"away":          "miners",
		"matchup":       "true",
		"weather":       "false",
		"max-steps":     "2000",
		"pitch-seconds": "20",
	} {
		f := gameCmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, def, f.DefValue, name)
	}
}

func TestFlagDefaultsFromEnv(t *testing.T) {
	t.Setenv("DIAMONDX_GAMES", "250")
	t.Setenv("DIAMONDX_SEED", "99")
	t.Setenv("DIAMONDX_DB", "/tmp/from-env.db")

	cmd := NewRootCommand()
	mc, _, err := cmd.Find([]string{"montecarlo"})
	require.NoError(t, err)
	assert.Equal(t, "250", mc.Flags().Lookup("games").DefValue)
	assert.Equal(t, "99", mc.Flags().Lookup("seed").DefValue)

	replay, _, err := cmd.Find([]string{"replay"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.db", replay.Flags().Lookup("db").DefValue)
}

func TestInvalidEnvironment(t *testing.T) {
	t.Setenv("DIAMONDX_GAMES", "lots")

	_, _, err := executeRoot(t, nil, "validate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid environment configuration")
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := executeRoot(t, nil, "validate", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))

	wrapped := WrapExitError(ExitFailure, "replay", errors.New("digest mismatch"))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, "replay: digest mismatch", wrapped.Error())
}
