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

	gerrors "github.com/tochemey/distro/errors"
)

type messageKind uint8

const (
	kindSync messageKind = iota + 1
	kindVerify
	kindGet
	kindSnapshot
)

func (k messageKind) String() string {
	switch k {
	case kindSync:
		return "SYNC"
	case kindVerify:
		return "VERIFY"
	case kindGet:
		return "GET"
	case kindSnapshot:
		return "SNAPSHOT"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type request struct {
	Kind         messageKind   `msgpack:"kind"`
	Operation    DataOperation `msgpack:"op,omitempty"`
	Datum        *Datum        `msgpack:"datum,omitempty"`
	Key          Key           `msgpack:"key"`
	BusinessType string        `msgpack:"type,omitempty"`
	Entries      []VerifyEntry `msgpack:"entries,omitempty"`
}

type errorCode string

const (
	codeOK               errorCode = ""
	codeNotInitialized   errorCode = "not_initialized"
	codeNotFound         errorCode = "not_found"
	codeUnknownType      errorCode = "unknown_type"
	codeVerifyInProgress errorCode = "verify_in_progress"
	codeInvalidMessage   errorCode = "invalid_message"
	codeInternal         errorCode = "internal"
)

type response struct {
	Code    errorCode `msgpack:"code,omitempty"`
	Message string    `msgpack:"message,omitempty"`
	Datum   *Datum    `msgpack:"datum,omitempty"`
	Data    []Datum   `msgpack:"data,omitempty"`
}

var codes = []struct {
	code errorCode
	err  error
}{
	{codeNotInitialized, gerrors.ErrNotInitialized},
	{codeNotFound, gerrors.ErrDatumNotFound},
	{codeUnknownType, gerrors.ErrUnknownBusinessType},
	{codeVerifyInProgress, gerrors.ErrVerifyInProgress},
	{codeInvalidMessage, gerrors.ErrInvalidMessage},
}

func errorResponse(err error) *response {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return &response{Code: c.code, Message: err.Error()}
		}
	}
	return &response{Code: codeInternal, Message: err.Error()}
}

func (r *response) err() error {
	if r.Code == codeOK {
		return nil
	}

	for _, c := range codes {
		if c.code == r.Code {
			return fmt.Errorf("peer replied: %w", c.err)
		}
	}
	return errors.New(r.Message)
}
