package corelog

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetLevelParsesValidLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	SetLevel("debug")
	require.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestSetLevelFallsBackToInfoOnInvalid(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	SetLevel("not-a-level")
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestNewScopesLoggerToComponentWithoutPanicking(t *testing.T) {
	log := New("test-component")
	require.NotPanics(t, func() {
		log.Debugf("debug %s", "line")
		log.Infof("info %d", 1)
		log.Warnf("warn")
		log.Errorf("error %v", true)
		log.Err(nil).Msg("wrapped")
	})
}
