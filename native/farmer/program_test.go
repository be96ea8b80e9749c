package farmer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	ferrors "farmercore/core/errors"
	"farmercore/crypto"
)

func TestInitializeSpanNestsUnderTransaction(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	n := newNode(t)
	admin := n.funded(t)
	_, err := n.initialize(t, admin, InitializeArgs{FeeWallet: crypto.Pubkey{0xfe}, AllowedPaymentTokens: mints(2)})
	require.NoError(t, err)
	_, err = n.initialize(t, admin, InitializeArgs{FeeWallet: crypto.Pubkey{0xfe}})
	require.ErrorIs(t, err, ferrors.ErrAlreadyInitialized)

	byName := make(map[string][]sdktrace.ReadOnlySpan)
	for _, span := range spans.Ended() {
		byName[span.Name()] = append(byName[span.Name()], span)
	}
	require.Len(t, byName["farmer.initialize"], 2)
	require.Len(t, byName["runtime.Execute"], 2)

	for i, child := range byName["farmer.initialize"] {
		parent := byName["runtime.Execute"][i]
		require.Equal(t, parent.SpanContext().SpanID(), child.Parent().SpanID())
	}
	if len(byName["farmer.initialize"][1].Events()) == 0 {
		t.Fatalf("rejected initialize recorded no error event")
	}
}
