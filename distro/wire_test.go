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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/distro/errors"
)

func TestWireErrors(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		sentinel error
		code     errorCode
	}{
		{name: "not initialized", err: gerrors.ErrNotInitialized, sentinel: gerrors.ErrNotInitialized, code: codeNotInitialized},
		{name: "not found", err: fmt.Errorf("%w: instances/svc", gerrors.ErrDatumNotFound), sentinel: gerrors.ErrDatumNotFound, code: codeNotFound},
		{name: "unknown type", err: gerrors.ErrUnknownBusinessType, sentinel: gerrors.ErrUnknownBusinessType, code: codeUnknownType},
		{name: "verify in progress", err: gerrors.ErrVerifyInProgress, sentinel: gerrors.ErrVerifyInProgress, code: codeVerifyInProgress},
		{name: "invalid message", err: gerrors.ErrInvalidMessage, sentinel: gerrors.ErrInvalidMessage, code: codeInvalidMessage},
	}

	for _, tc := range testCases {
		t.Run("With "+tc.name, func(t *testing.T) {
			resp := errorResponse(tc.err)
			assert.Equal(t, tc.code, resp.Code)
			assert.ErrorIs(t, resp.err(), tc.sentinel)
		})
	}

	t.Run("With internal error", func(t *testing.T) {
		resp := errorResponse(errors.New("disk on fire"))
		assert.Equal(t, codeInternal, resp.Code)
		require.Error(t, resp.err())
		assert.Equal(t, "disk on fire", resp.err().Error())
	})
	t.Run("With success", func(t *testing.T) {
		assert.NoError(t, (&response{}).err())
	})
	t.Run("With kind names", func(t *testing.T) {
		assert.Equal(t, "SYNC", kindSync.String())
		assert.Equal(t, "VERIFY", kindVerify.String())
		assert.Equal(t, "GET", kindGet.String())
		assert.Equal(t, "SNAPSHOT", kindSnapshot.String())
		assert.Equal(t, "kind(42)", messageKind(42).String())
	})
}
