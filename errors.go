/*
 * errors.go, part of goMDI.
 *
 * Copyright 2025 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 * goMDI is currently developed at the Universidad de Santiago de Chile
 * (USACH)
 *
 */

package mdi

import "fmt"

//Error is the interface for the errors of this library. The Decorate method
//allows to add and retrieve info from the error, without changing its type or
//wrapping it around something else. Each call appends the caller's name (plus,
//optionally, extra info in the format "FunctionName: Extra info") and returns
//the resulting slice. If passed an empty string it just returns the current
//slice.
type Error interface {
	Error() string
	Decorate(string) []string
	Critical() bool
}

//The errors of the protocol fall in three classes. ConnectionError covers
//handshake and transport establishment failures, and is fatal to the whole
//session. ProtocolError covers commands issued against a closed or
//mis-sequenced handle, including direction/shape violations caught before
//touching the wire; it is fatal to that handle only, so a driver can skip the
//offending engine and keep the rest. TransferError covers the wire failing
//mid-exchange (short read/write, deadline expiry, reset); the in-progress
//exchange is lost and is not retried, as re-requesting the same quantity from
//an engine mid-step is not generally safe.

//ConnectionError is a handshake or transport failure.
type ConnectionError struct {
	message  string
	engine   string //the engine involved, or empty if none/unknown.
	deco     []string
	critical bool
}

func (err ConnectionError) Error() string {
	if err.engine == "" {
		return fmt.Sprintf("mdi connection error: %s", err.message)
	}
	return fmt.Sprintf("mdi connection error, engine %s: %s", err.engine, err.message)
}

//Decorate adds new information to the error
func (err ConnectionError) Decorate(dec string) []string {
	//Even though this method does not use a pointer as a receiver, and tries to alter the receiver,
	//it should work, since err.deco is a slice, and hence a pointer itself.
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical returns whether the error is critical or it can be ignored
func (err ConnectionError) Critical() bool { return err.critical }

//EngineName returns the name of the engine associated to the error, if known.
func (err ConnectionError) EngineName() string { return err.engine }

//ProtocolError is a command issued against a closed or mis-sequenced handle.
type ProtocolError struct {
	message  string
	engine   string
	deco     []string
	critical bool
}

func (err ProtocolError) Error() string {
	if err.engine == "" {
		return fmt.Sprintf("mdi protocol error: %s", err.message)
	}
	return fmt.Sprintf("mdi protocol error, engine %s: %s", err.engine, err.message)
}

//Decorate adds new information to the error
func (err ProtocolError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical returns whether the error is critical or it can be ignored
func (err ProtocolError) Critical() bool { return err.critical }

//EngineName returns the name of the engine associated to the error, if known.
func (err ProtocolError) EngineName() string { return err.engine }

//TransferError is a failure of an in-progress payload exchange.
type TransferError struct {
	message  string
	engine   string
	deco     []string
	critical bool
}

func (err TransferError) Error() string {
	if err.engine == "" {
		return fmt.Sprintf("mdi transfer error: %s", err.message)
	}
	return fmt.Sprintf("mdi transfer error, engine %s: %s", err.engine, err.message)
}

//Decorate adds new information to the error
func (err TransferError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical returns whether the error is critical or it can be ignored
func (err TransferError) Critical() bool { return err.critical }

//EngineName returns the name of the engine associated to the error, if known.
func (err TransferError) EngineName() string { return err.engine }

//errDecorate is a helper that asserts that the error implements Error and
//decorates it with the caller's name before returning it. Used with an error
//from outside this library, it will cause a panic.
func errDecorate(err error, caller string) error {
	err2 := err.(Error)
	err2.Decorate(caller)
	return err2
}

//Message constants for the errors of this package.
const (
	HandleClosed      = "Command issued on a closed engine handle"
	TransferPending   = "Previous command still has a payload transfer pending"
	NoPendingTransfer = "No payload transfer pending on this handle"
	WrongDirection    = "Transfer direction does not match the pending command"
	WrongElementType  = "Element type does not match the pending command"
	WrongCount        = "Payload length does not match the pending command"
	NatomsUnknown     = "Atom count not yet known for this engine"
	ShortTransfer     = "Channel closed or reset mid-transfer"
	DeadlineExceeded  = "Deadline expired awaiting the payload"
	BadHandshake      = "Malformed handshake record"
	HandshakeRefused  = "Driver refused the handshake"
	DuplicateName     = "Engine name already in use in this session"
	UnknownToken      = "Unrecognized command token"
	BadOptions        = "Invalid transport options"
	ExpectedNotMet    = "Expected engine count not reached"
)
