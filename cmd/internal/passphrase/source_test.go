package passphrase

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSource(env map[string]string, prompted string, promptErr error) (*Source, *int) {
	calls := 0
	s := NewSource("FARMER_TEST_PASS", "admin keystore")
	s.lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	s.prompt = func(string) (string, error) {
		calls++
		return prompted, promptErr
	}
	return s, &calls
}

func TestSourcePrefersEnvironment(t *testing.T) {
	s, calls := newTestSource(map[string]string{"FARMER_TEST_PASS": "from-env"}, "typed", nil)
	got, err := s.Get()
	require.NoError(t, err)
	require.Equal(t, "from-env", got)
	require.Zero(t, *calls)
}

func TestSourceRejectsEmptyEnvironment(t *testing.T) {
	s, _ := newTestSource(map[string]string{"FARMER_TEST_PASS": "  "}, "typed", nil)
	_, err := s.Get()
	require.Error(t, err)
}

func TestSourcePromptsOnceAndCaches(t *testing.T) {
	s, calls := newTestSource(nil, "typed", nil)
	for i := 0; i < 3; i++ {
		got, err := s.Get()
		require.NoError(t, err)
		require.Equal(t, "typed", got)
	}
	require.Equal(t, 1, *calls)
}

func TestSourceWithoutTerminal(t *testing.T) {
	s, _ := newTestSource(nil, "", errNoTerminal)
	_, err := s.Get()
	require.ErrorContains(t, err, "FARMER_TEST_PASS")

	blank, _ := newTestSource(nil, "   ", nil)
	_, err = blank.Get()
	require.ErrorContains(t, err, "cannot be empty")
}
