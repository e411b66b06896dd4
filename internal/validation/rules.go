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

package validation

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// NewAssertion fails with message when isTrue is false
func NewAssertion(isTrue bool, message string) Validator {
	return ValidatorFunc(func() error {
		if !isTrue {
			return errors.New(message)
		}
		return nil
	})
}

// NewPositiveDurationValidator checks that a named duration setting is strictly positive
func NewPositiveDurationValidator(name string, value time.Duration) Validator {
	return ValidatorFunc(func() error {
		if value <= 0 {
			return fmt.Errorf("%s must be greater than zero, got %s", name, value)
		}
		return nil
	})
}

// NewDurationRangeValidator checks that the lower bound of a named range does not exceed its upper bound
func NewDurationRangeValidator(name string, lower, upper time.Duration) Validator {
	return ValidatorFunc(func() error {
		if lower > upper {
			return fmt.Errorf("%s lower bound (%s) exceeds upper bound (%s)", name, lower, upper)
		}
		return nil
	})
}

// NewPositiveIntValidator checks that a named count setting is strictly positive
func NewPositiveIntValidator(name string, value int) Validator {
	return ValidatorFunc(func() error {
		if value <= 0 {
			return fmt.Errorf("%s must be greater than zero, got %d", name, value)
		}
		return nil
	})
}

// NewAddressValidator checks that a named setting is a host:port pair with a usable port.
// Port 0 is refused since members advertise the address to their peers.
func NewAddressValidator(name, address string) Validator {
	return ValidatorFunc(func() error {
		host, port, err := net.SplitHostPort(strings.TrimSpace(address))
		if err != nil {
			return fmt.Errorf("%s=(%s) is not a valid address: %w", name, address, err)
		}

		number, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%s=(%s) has an invalid port: %w", name, address, err)
		}

		if host == "" {
			return fmt.Errorf("%s=(%s) is missing its host", name, address)
		}

		if number <= 0 || number > 65535 {
			return fmt.Errorf("%s=(%s) port is out of range", name, address)
		}
		return nil
	})
}
