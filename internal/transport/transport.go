// SPDX-License-Identifier: MIT
package transport

// Transport defines a generic interface for pushing processed data or
// events to clients. Implementations must be thread-safe and must not
// block the caller; slow consumers drop data.
type Transport interface {
	Send(data any) error
	Close() error
}
