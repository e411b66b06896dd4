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

package cluster

import (
	"net"
	"strconv"
	"time"

	gerrors "github.com/tochemey/distro/errors"
	"github.com/tochemey/distro/internal/validation"
	"github.com/tochemey/distro/log"
)

// Config defines the memberlist node configuration
type Config struct {
	name              string
	host              string
	port              int
	peers             []string
	maxJoinAttempts   int
	joinRetryInterval time.Duration
	joinTimeout       time.Duration
	requestTimeout    time.Duration
	shutdownTimeout   time.Duration
	logger            log.Logger
}

var _ validation.Validator = (*Config)(nil)

// NewConfig creates a Config for the node name bound to host:port
func NewConfig(name, host string, port int) *Config {
	return &Config{
		name:              name,
		host:              host,
		port:              port,
		maxJoinAttempts:   5,
		joinRetryInterval: time.Second,
		joinTimeout:       time.Minute,
		requestTimeout:    5 * time.Second,
		shutdownTimeout:   3 * time.Second,
		logger:            log.DefaultLogger,
	}
}

// WithPeers sets the seed peers addresses to join
func (c *Config) WithPeers(peers ...string) *Config {
	c.peers = peers
	return c
}

// WithMaxJoinAttempts sets the number of join attempts
func (c *Config) WithMaxJoinAttempts(attempts int) *Config {
	c.maxJoinAttempts = attempts
	return c
}

// WithJoinRetryInterval sets the interval between join attempts
func (c *Config) WithJoinRetryInterval(interval time.Duration) *Config {
	c.joinRetryInterval = interval
	return c
}

// WithJoinTimeout sets the overall join timeout
func (c *Config) WithJoinTimeout(timeout time.Duration) *Config {
	c.joinTimeout = timeout
	return c
}

// WithRequestTimeout sets the default timeout of a request to a peer
func (c *Config) WithRequestTimeout(timeout time.Duration) *Config {
	c.requestTimeout = timeout
	return c
}

// WithShutdownTimeout sets the graceful leave timeout
func (c *Config) WithShutdownTimeout(timeout time.Duration) *Config {
	c.shutdownTimeout = timeout
	return c
}

// WithLogger sets the logger
func (c *Config) WithLogger(logger log.Logger) *Config {
	c.logger = logger
	return c
}

// Name returns the node name
func (c *Config) Name() string {
	return c.name
}

// Address returns the node host:port
func (c *Config) Address() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// Peers returns the seed peers
func (c *Config) Peers() []string {
	return c.peers
}

// Validate checks the configuration
func (c *Config) Validate() error {
	chain := validation.New(validation.AllErrors()).
		AddAssertion(c.name != "", "node name is required").
		AddValidator(validation.NewAddressValidator("bind address", c.Address())).
		AddValidator(validation.NewPositiveIntValidator("max join attempts", c.maxJoinAttempts)).
		AddValidator(validation.NewPositiveDurationValidator("join retry interval", c.joinRetryInterval)).
		AddValidator(validation.NewPositiveDurationValidator("join timeout", c.joinTimeout)).
		AddValidator(validation.NewPositiveDurationValidator("request timeout", c.requestTimeout)).
		AddValidator(validation.NewPositiveDurationValidator("shutdown timeout", c.shutdownTimeout)).
		AddAssertion(c.logger != nil, "logger is required")

	for _, peer := range c.peers {
		chain.AddValidator(validation.NewAddressValidator("peer", peer))
	}

	if err := chain.Validate(); err != nil {
		return gerrors.NewErrInvalidConfig(err)
	}
	return nil
}
