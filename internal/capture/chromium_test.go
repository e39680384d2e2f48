package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_WithDefaults(t *testing.T) {
	o, err := Options{URL: "http://127.0.0.1:8080/", OutputPath: "out.png"}.withDefaults()
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, o.Width)
	assert.Equal(t, DefaultHeight, o.Height)
	assert.Equal(t, DefaultTimeoutSec*time.Second, o.Timeout)

	o, err = Options{URL: "x", OutputPath: "y", Width: 800, Height: 600, Timeout: time.Second}.withDefaults()
	require.NoError(t, err)
	assert.Equal(t, 800, o.Width)
	assert.Equal(t, 600, o.Height)
	assert.Equal(t, time.Second, o.Timeout)
}

func TestCapturePagePNG_RequiresURLAndOutput(t *testing.T) {
	err := CapturePagePNG(context.Background(), Options{OutputPath: "out.png"})
	assert.ErrorContains(t, err, "URL is required")

	err = CapturePagePNG(context.Background(), Options{URL: "http://127.0.0.1/"})
	assert.ErrorContains(t, err, "OutputPath is required")
}
