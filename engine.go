/*
 * engine.go, part of goMDI.
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package mdi

import (
	"io"
	"time"

	"gonum.org/v1/gonum/mat"
)

//the per-handle state machine. @NODE commands move between connected and
//atNode; EXIT moves to handleClosed, which is terminal. < and > commands do
//not change the state but require a non-closed handle.
type handleState byte

const (
	connected handleState = iota
	atNode
	handleClosed
)

//Engine is the driver-side handle to one connected engine. It owns the
//underlying connection for the connection's lifetime and is not safe for
//concurrent use: each handle belongs to the goroutine driving it.
type Engine struct {
	name     string
	conn     io.ReadWriteCloser
	state    handleState
	node     string   //the node the engine was last sent to, if state==atNode.
	natoms   int      //cached after <NATOMS or SetNatoms. 0 means unknown.
	pending  *Command //transfer declared by the last < or > command. nil if none.
	timeout  time.Duration
	released bool
}

func newEngine(name string, conn io.ReadWriteCloser, timeout time.Duration) *Engine {
	return &Engine{name: name, conn: conn, timeout: timeout}
}

//Name returns the unique name under which the engine hand-shook.
func (E *Engine) Name() string { return E.name }

//Node returns the name of the node the engine was last advanced to, or the
//empty string if it has not been sent to any node (or is closed).
func (E *Engine) Node() string {
	if E.state != atNode {
		return ""
	}
	return E.node
}

//Closed returns whether the handle has been closed with EXIT or Release.
func (E *Engine) Closed() bool { return E.state == handleClosed }

//SetNatoms declares the engine's atom count out of band, for drivers that
//know it without retrieving <NATOMS.
func (E *Engine) SetNatoms(n int) { E.natoms = n }

//SetTimeout sets the per-operation deadline for this handle. Zero or negative
//means block indefinitely, which is the protocol's own behavior.
func (E *Engine) SetTimeout(d time.Duration) { E.timeout = d }

type deadliner interface {
	SetDeadline(time.Time) error
}

//arm sets the I/O deadline for the next blocking operation, when a timeout
//was configured and the connection supports deadlines (net.Conn and net.Pipe
//do, an arbitrary in-process ReadWriteCloser may not).
func (E *Engine) arm() {
	if E.timeout <= 0 {
		return
	}
	if d, ok := E.conn.(deadliner); ok {
		d.SetDeadline(time.Now().Add(E.timeout))
	}
}

//SendCommand encodes and transmits the command to the engine as a single
//atomic record write. No response is implied unless the command's sigil
//declares a transfer, in which case the matching Receive/Send call must
//follow before any further command. Issuing any command on a closed handle,
//or while a transfer is pending, is a ProtocolError.
func (E *Engine) SendCommand(c Command) error {
	if E.state == handleClosed {
		return ProtocolError{message: HandleClosed, engine: E.name, critical: false}
	}
	if c.name == "" {
		return ProtocolError{message: UnknownToken, engine: E.name, critical: false}
	}
	if E.pending != nil {
		return ProtocolError{message: TransferPending, engine: E.name, critical: false}
	}
	E.arm()
	if err := writeCommand(E.conn, c); err != nil {
		return errDecorate(err, "SendCommand: "+E.name)
	}
	switch c.sigil {
	case Recv, Send:
		pend := c
		E.pending = &pend
	case Node:
		E.state = atNode
		E.node = c.name
	case Control:
		//EXIT is the only control action in the vocabulary. The state
		//becomes terminal but the transport is torn down by Release.
		E.state = handleClosed
	}
	return nil
}

//ReceiveFloats blocks until the payload declared by the immediately preceding
//"<" command has been fully read, and returns it in wire order. Calling it
//with no pending transfer, or when the pending command declares another
//direction or element type, is a ProtocolError; the channel failing
//mid-transfer is a TransferError.
func (E *Engine) ReceiveFloats() ([]float64, error) {
	count, err := E.checkPending(Recv, Float)
	if err != nil {
		return nil, err
	}
	E.arm()
	vals, err := ReadFloats(E.conn, count)
	if err != nil {
		return nil, errDecorate(err, "ReceiveFloats: "+E.name)
	}
	E.pending = nil
	return vals, nil
}

//ReceiveInts is the integer counterpart of ReceiveFloats. If the pending
//command is <NATOMS, the received atom count is cached on the handle, so
//later per-atom shaped commands resolve their counts.
func (E *Engine) ReceiveInts() ([]int, error) {
	count, err := E.checkPending(Recv, Int)
	if err != nil {
		return nil, err
	}
	name := E.pending.name
	E.arm()
	raw, err := ReadInts(E.conn, count)
	if err != nil {
		return nil, errDecorate(err, "ReceiveInts: "+E.name)
	}
	E.pending = nil
	vals := make([]int, len(raw))
	for i, v := range raw {
		vals[i] = int(v)
	}
	if name == "NATOMS" && len(vals) == 1 {
		E.natoms = vals[0]
	}
	return vals, nil
}

//SendFloats blocks until all the given values have been written to the
//engine. The caller must supply exactly the count declared by the immediately
//preceding ">" command; no length is transmitted, so a mismatch here would
//desynchronize both sides, and is refused as a TransferError before touching
//the wire.
func (E *Engine) SendFloats(vals []float64) error {
	count, err := E.checkPending(Send, Float)
	if err != nil {
		return err
	}
	if len(vals) != count {
		return TransferError{message: WrongCount, engine: E.name, critical: true}
	}
	E.arm()
	if err := WriteFloats(E.conn, vals); err != nil {
		return errDecorate(err, "SendFloats: "+E.name)
	}
	E.pending = nil
	return nil
}

//checkPending enforces the direction-sigil discipline for a transfer about to
//happen, and resolves its element count.
func (E *Engine) checkPending(dir Sigil, kind Kind) (int, error) {
	if E.state == handleClosed {
		return 0, ProtocolError{message: HandleClosed, engine: E.name, critical: false}
	}
	if E.pending == nil {
		return 0, ProtocolError{message: NoPendingTransfer, engine: E.name, critical: false}
	}
	if E.pending.sigil != dir {
		return 0, ProtocolError{message: WrongDirection, engine: E.name, critical: false}
	}
	if E.pending.kind != kind {
		return 0, ProtocolError{message: WrongElementType, engine: E.name, critical: false}
	}
	count, err := E.pending.Count(E.natoms)
	if err != nil {
		return 0, ProtocolError{message: NatomsUnknown, engine: E.name, critical: false}
	}
	return count, nil
}

//Release sends the terminal EXIT command, if the handle is still open, and
//tears the transport down. It must be called on every exit path, including
//driver-side failure, or the remote engine process is leaked in a blocked
//state. If a driver-to-engine payload is still owed, the engine is reading
//raw payload bytes and an EXIT record would be consumed as data, so the
//channel is closed without one; the engine sees the abort as a failed
//transfer. Release is idempotent: a second call on an already-released handle
//is a no-op, not an error.
func (E *Engine) Release() error {
	if E == nil || E.released {
		return nil
	}
	E.released = true
	var err error
	if E.state != handleClosed {
		if E.pending == nil || E.pending.sigil != Send {
			E.pending = nil //an aborted receive cannot be resumed anyway.
			E.arm()
			err = writeCommand(E.conn, mustCommand("EXIT"))
		}
		E.pending = nil
		E.state = handleClosed
	}
	if cerr := E.conn.Close(); cerr != nil && err == nil {
		err = TransferError{message: ShortTransfer + ": " + cerr.Error(), engine: E.name, critical: false}
	}
	return err
}

//What follows are typed conveniences over SendCommand plus the raw
//Receive/Send calls, returning goChem-style gonum matrices where the payload
//is per-atom cartesian data.

//Natoms retrieves the engine's atom count, from the handle's cache if it was
//already retrieved (the count of a connected engine does not change).
func (E *Engine) Natoms() (int, error) {
	if E.natoms > 0 {
		return E.natoms, nil
	}
	if err := E.SendCommand(mustCommand("<NATOMS")); err != nil {
		return 0, errDecorate(err, "Natoms")
	}
	vals, err := E.ReceiveInts()
	if err != nil {
		return 0, errDecorate(err, "Natoms")
	}
	return vals[0], nil
}

//Cell retrieves the engine's 3x3 cell matrix, in Bohr.
func (E *Engine) Cell() (*mat.Dense, error) {
	if err := E.SendCommand(mustCommand("<CELL")); err != nil {
		return nil, errDecorate(err, "Cell")
	}
	vals, err := E.ReceiveFloats()
	if err != nil {
		return nil, errDecorate(err, "Cell")
	}
	return mat.NewDense(3, 3, vals), nil
}

//Masses retrieves the per-atom masses, in the engine's indexing order.
func (E *Engine) Masses() ([]float64, error) {
	if _, err := E.Natoms(); err != nil {
		return nil, errDecorate(err, "Masses")
	}
	if err := E.SendCommand(mustCommand("<MASSES")); err != nil {
		return nil, errDecorate(err, "Masses")
	}
	vals, err := E.ReceiveFloats()
	if err != nil {
		return nil, errDecorate(err, "Masses")
	}
	return vals, nil
}

//Energy retrieves the engine's current total energy, in Hartree.
func (E *Engine) Energy() (float64, error) {
	if err := E.SendCommand(mustCommand("<ENERGY")); err != nil {
		return 0, errDecorate(err, "Energy")
	}
	vals, err := E.ReceiveFloats()
	if err != nil {
		return 0, errDecorate(err, "Energy")
	}
	return vals[0], nil
}

//Coords retrieves the current coordinates as a natoms x 3 matrix, in Bohr,
//one atom per row in the engine's own indexing order. If dst is not nil it is
//filled and returned, avoiding an allocation per call; it must be natoms x 3.
func (E *Engine) Coords(dst *mat.Dense) (*mat.Dense, error) {
	n, err := E.Natoms()
	if err != nil {
		return nil, errDecorate(err, "Coords")
	}
	if err := E.SendCommand(mustCommand("<COORDS")); err != nil {
		return nil, errDecorate(err, "Coords")
	}
	vals, err := E.ReceiveFloats()
	if err != nil {
		return nil, errDecorate(err, "Coords")
	}
	if dst == nil {
		return mat.NewDense(n, 3, vals), nil
	}
	r, c := dst.Dims()
	if r != n || c != 3 {
		return nil, TransferError{message: WrongCount, engine: E.name, critical: true}
	}
	for i := 0; i < n; i++ {
		dst.Set(i, 0, vals[3*i])
		dst.Set(i, 1, vals[3*i+1])
		dst.Set(i, 2, vals[3*i+2])
	}
	return dst, nil
}

//SetForces supplies externally computed forces, in Hartree/Bohr, as a
//natoms x 3 matrix with the same atom ordering the engine reports.
func (E *Engine) SetForces(forces *mat.Dense) error {
	return errDecorate2(E.sendPerAtom(mustCommand(">FORCES"), forces), "SetForces")
}

//SetCoords replaces the engine's coordinates, in Bohr.
func (E *Engine) SetCoords(coords *mat.Dense) error {
	return errDecorate2(E.sendPerAtom(mustCommand(">COORDS"), coords), "SetCoords")
}

func (E *Engine) sendPerAtom(c Command, m *mat.Dense) error {
	n, err := E.Natoms()
	if err != nil {
		return err
	}
	if m == nil {
		return TransferError{message: WrongCount, engine: E.name, critical: true}
	}
	r, cols := m.Dims()
	if r != n || cols != 3 {
		return TransferError{message: WrongCount, engine: E.name, critical: true}
	}
	if err := E.SendCommand(c); err != nil {
		return err
	}
	vals := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		vals[3*i] = m.At(i, 0)
		vals[3*i+1] = m.At(i, 1)
		vals[3*i+2] = m.At(i, 2)
	}
	return E.SendFloats(vals)
}

//GoTo advances the engine to the named execution node, where it halts
//awaiting further commands. The node must be in the vocabulary ("INIT_MD",
//"FORCES").
func (E *Engine) GoTo(node string) error {
	c, err := ParseCommand("@" + node)
	if err != nil {
		return errDecorate(err, "GoTo")
	}
	return errDecorate2(E.SendCommand(c), "GoTo")
}

//InitMD advances the engine to its dynamics-initialization node.
func (E *Engine) InitMD() error {
	return errDecorate2(E.SendCommand(mustCommand("@INIT_MD")), "InitMD")
}

//errDecorate2 is errDecorate tolerating a nil error, for the one-liner
//wrappers above.
func errDecorate2(err error, caller string) error {
	if err == nil {
		return nil
	}
	return errDecorate(err, caller)
}
