// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the tick engine to distinguish between different failure
// scenarios: a missing referenced entity, or a guarded funds debit that
// found an insufficient balance.
package repository

import "errors"

// ErrRoomNotFound is returned when a referenced room does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrRoomNotFound = errors.New("room not found")

// ErrPlayerNotFound is returned when a referenced player does not exist.
var ErrPlayerNotFound = errors.New("player not found")

// ErrBidNotFound is returned when a referenced bid does not exist or is
// not visible to the caller.
var ErrBidNotFound = errors.New("bid not found")

// ErrOrderNotFound is returned when a referenced renovation order does
// not exist. The worker treats it as a poison message.
var ErrOrderNotFound = errors.New("renovation order not found")

// ErrInsufficientFunds is returned by guarded debits when the player's
// balance cannot cover the requested amount. The balance is left
// untouched.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrEmailExists is returned when registration hits the unique email key.
var ErrEmailExists = errors.New("email already exists")
