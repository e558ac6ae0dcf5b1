package errors

import (
	stderrs "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = stderrs.New("sentinel")

func TestIsMatchesThroughCause(t *testing.T) {
	err := New("Logic.Op", "error.internal", errSentinel)
	assert.True(t, stderrs.Is(err, errSentinel))
}

func TestCodePropagatesThroughWrap(t *testing.T) {
	inner := New("Logic.Op", "error.notfound", nil).Code(http.StatusNotFound)
	outer := Wrap(inner, "Handler.Op", "error.notfound")
	assert.Equal(t, http.StatusNotFound, outer.GetCode())
}

func TestTraceAppendsCallPath(t *testing.T) {
	err := New("Store.Get", "error.internal", errSentinel)
	traced := Trace("Logic.Get", err)
	assert.Contains(t, traced.Error(), "Store.Get->Logic.Get")
	assert.True(t, stderrs.Is(traced, errSentinel))
}

func TestMessageFallsBackToCause(t *testing.T) {
	err := New("Logic.Op", "", errSentinel)
	assert.Equal(t, "sentinel", err.Message())
}
