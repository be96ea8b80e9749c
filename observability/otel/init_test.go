package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" x-token = abc ,broken,=nokey, tenant=farm ")
	require.Equal(t, map[string]string{"x-token": "abc", "tenant": "farm"}, got)
	require.Empty(t, ParseHeaders(""))
}

func TestInitRequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{})
	require.Error(t, err)
}

func TestInitWithoutExporters(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "farmerd"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
