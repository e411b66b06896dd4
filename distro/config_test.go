// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package distro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/distro/errors"
)

func TestConfig(t *testing.T) {
	t.Run("With defaults", func(t *testing.T) {
		config := NewConfig()
		require.NoError(t, config.Validate())
		assert.Equal(t, DefaultSyncDelay, config.SyncDelay())
		assert.Equal(t, DefaultVerifyInterval, config.VerifyInterval())
		assert.Positive(t, config.workers)
	})
	t.Run("With overrides", func(t *testing.T) {
		config := NewConfig().
			WithSyncDelay(0).
			WithRetryBackoff(time.Millisecond, time.Second).
			WithVerifyInterval(time.Second).
			WithVerifyTimeout(500 * time.Millisecond).
			WithLoadRetry(5, 10*time.Millisecond).
			WithRequestTimeout(time.Second).
			WithTaskScanInterval(time.Millisecond).
			WithWorkers(2)
		require.NoError(t, config.Validate())
		assert.Zero(t, config.SyncDelay())
		assert.Equal(t, 5, config.loadRetryAttempts)
		assert.Equal(t, 2, config.workers)
	})
	t.Run("With invalid values", func(t *testing.T) {
		config := NewConfig().
			WithSyncDelay(-time.Second).
			WithRetryBackoff(time.Minute, time.Second).
			WithWorkers(0)
		err := config.Validate()
		require.Error(t, err)

		var invalid *gerrors.InvalidConfigError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, err.Error(), "sync delay")
		assert.Contains(t, err.Error(), "workers")
	})
}
