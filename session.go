/*
 * session.go, part of goMDI.
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

import (
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"
)

//Session tracks the engines connected to one driver. It is an explicit
//context object: several independent sessions can live in one process, and no
//connection state is kept at package level. A Session is meant to be used
//from a single goroutine; the handles it hands out can then be distributed,
//one goroutine per handle.
type Session struct {
	engines map[string]*Engine
	names   []string //in connection order.
	timeout time.Duration
	log     *slog.Logger
}

//NewSession returns an empty session, ready to Adopt connections. Drivers
//using TCP will normally call Connect instead.
func NewSession() *Session {
	return &Session{engines: make(map[string]*Engine), log: slog.Default()}
}

//SetLogger replaces the session's logger (slog.Default() initially). The
//session only logs connection lifecycle events, at debug level.
func (S *Session) SetLogger(l *slog.Logger) {
	if l != nil {
		S.log = l
	}
}

//SetTimeout sets the per-operation deadline applied to every handle adopted
//from now on. Zero means block indefinitely.
func (S *Session) SetTimeout(d time.Duration) { S.timeout = d }

//Adopt performs the driver side of the handshake on an established
//bidirectional channel and, on success, adds the engine to the session and
//returns its handle. This is how in-process engines (or tests, over
//net.Pipe) join a session. A handshake reusing a name already in the session
//is refused on the wire and reported as a ProtocolError; the channel is
//closed in that case. The session's timeout, if set, bounds the handshake
//itself, so a peer that connects and then sends nothing surfaces as a
//ConnectionError instead of blocking the adoption forever.
func (S *Session) Adopt(conn io.ReadWriteCloser) (*Engine, error) {
	if S.timeout > 0 {
		if d, ok := conn.(deadliner); ok {
			d.SetDeadline(time.Now().Add(S.timeout))
		}
	}
	name, err := readHandshake(conn)
	if err != nil {
		conn.Close()
		return nil, errDecorate(err, "Adopt")
	}
	if _, taken := S.engines[name]; taken {
		writeAck(conn, ackDuplicate) //the engine learns it was refused.
		conn.Close()
		return nil, ProtocolError{message: DuplicateName + ": " + name, engine: name, critical: false}
	}
	if err := writeAck(conn, ackOK); err != nil {
		conn.Close()
		return nil, errDecorate(err, "Adopt")
	}
	if d, ok := conn.(deadliner); ok {
		d.SetDeadline(time.Time{}) //the handle re-arms per operation.
	}
	eng := newEngine(name, conn, S.timeout)
	S.engines[name] = eng
	S.names = append(S.names, name)
	S.log.Debug("engine connected", "name", name, "engines", len(S.engines))
	return eng, nil
}

//Engine returns the handle for the named engine, or nil if no engine
//hand-shook under that name.
func (S *Session) Engine(name string) *Engine { return S.engines[name] }

//Names returns the engine names in connection order.
func (S *Session) Names() []string {
	n := make([]string, len(S.names))
	copy(n, S.names)
	return n
}

//Len returns the number of connected engines.
func (S *Session) Len() int { return len(S.engines) }

//Release releases every engine of the session, in connection order,
//regardless of individual failures, and returns the first error found.
//Like the per-handle Release, it is idempotent.
func (S *Session) Release() error {
	var first error
	for _, name := range S.names {
		if err := S.engines[name].Release(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

//Connect listens according to the given transport options and blocks until
//nengines distinct engines have completed their handshakes, then returns the
//session holding their handles. The options must carry the DRIVER role and
//the TCP method. On any failure, including not reaching the expected engine
//count within Options.Timeout and a duplicate engine name, every engine
//adopted so far is released and a non-nil error is returned.
func Connect(o *Options, nengines int) (*Session, error) {
	if err := o.Validate(Driver); err != nil {
		return nil, errDecorate(err, "Connect")
	}
	if nengines <= 0 {
		return nil, ConnectionError{message: BadOptions + ": expected engine count must be positive", critical: true}
	}
	lis, err := net.Listen("tcp", net.JoinHostPort(o.Host, strconv.Itoa(o.Port)))
	if err != nil {
		return nil, ConnectionError{message: err.Error(), critical: true}
	}
	defer lis.Close()
	S := NewSession()
	S.timeout = o.Timeout
	S.log.Debug("driver listening", "addr", lis.Addr().String(), "expected", nengines)
	//one absolute window for the whole negotiation, however many engines
	//are expected.
	if o.Timeout > 0 {
		if d, ok := lis.(deadliner); ok {
			d.SetDeadline(time.Now().Add(o.Timeout))
		}
	}
	for S.Len() < nengines {
		conn, err := lis.Accept()
		if err != nil {
			S.Release()
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil, ConnectionError{message: ExpectedNotMet + ": " + err.Error(), critical: true}
			}
			return nil, ConnectionError{message: err.Error(), critical: true}
		}
		if _, err := S.Adopt(conn); err != nil {
			//a bad or duplicate handshake poisons the whole negotiation:
			//the launcher that started the engines is misconfigured.
			S.Release()
			return nil, errDecorate(err, "Connect")
		}
	}
	return S, nil
}
