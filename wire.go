/*
 * wire.go, part of goMDI.
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
	"encoding/binary"
	"io"
	"strings"
)

//The wire format. Everything is little-endian. An engine introduces itself
//with a fixed handshake record: the magic "GMDI", an int32 protocol version,
//its name in an 80-byte space-padded block, and the check value 84. The driver
//answers with an int32, 0 for acceptance. After that, the driver writes 12-byte
//space-padded ASCII command records, and payloads travel as raw arrays of
//int32 or float64 with no length prefix: the element count is agreed out of
//band through the command vocabulary.

const (
	wireMagic      = "GMDI"
	wireVersion    = int32(1)
	commandLen     = 12
	nameLen        = 80 //like the 80-byte title records of the old binary trajectory formats.
	handshakeCheck = int32(84)
	ackOK          = int32(0)
	ackDuplicate   = int32(1)
)

//WriteHandshake introduces an engine named name to the driver at the other
//end of rw, and waits for the driver's acceptance. It is the engine-role half
//of the handshake; the driver-role half is Session.Adopt.
func WriteHandshake(rw io.ReadWriter, name string) error {
	if len(name) == 0 || len(name) > nameLen {
		return ConnectionError{message: BadHandshake, engine: name, critical: true}
	}
	rec := make([]byte, 0, len(wireMagic)+4+nameLen+4)
	rec = append(rec, wireMagic...)
	rec = binary.LittleEndian.AppendUint32(rec, uint32(wireVersion))
	padded := name + strings.Repeat(" ", nameLen-len(name))
	rec = append(rec, []byte(padded)...)
	rec = binary.LittleEndian.AppendUint32(rec, uint32(handshakeCheck))
	if _, err := rw.Write(rec); err != nil {
		return ConnectionError{message: BadHandshake + ": " + err.Error(), engine: name, critical: true}
	}
	var ack int32
	if err := binary.Read(rw, binary.LittleEndian, &ack); err != nil {
		return ConnectionError{message: BadHandshake + ": " + err.Error(), engine: name, critical: true}
	}
	if ack != ackOK {
		return ConnectionError{message: HandshakeRefused, engine: name, critical: true}
	}
	return nil
}

//readHandshake is the driver-role half of the handshake: it reads and checks
//the engine's introduction record from r and returns the engine's name. The
//acceptance (or refusal) int32 is written by the caller, which is the only
//one that can check name uniqueness.
func readHandshake(r io.Reader) (string, error) {
	magic := make([]byte, len(wireMagic))
	if err := binary.Read(r, binary.LittleEndian, magic); err != nil {
		return "", ConnectionError{message: BadHandshake + ": " + err.Error(), critical: true}
	}
	if string(magic) != wireMagic {
		return "", ConnectionError{message: BadHandshake + ": wrong magic number", critical: true}
	}
	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return "", ConnectionError{message: BadHandshake + ": " + err.Error(), critical: true}
	}
	if version != wireVersion {
		return "", ConnectionError{message: BadHandshake + ": unsupported protocol version", critical: true}
	}
	nameblock := make([]byte, nameLen)
	if err := binary.Read(r, binary.LittleEndian, nameblock); err != nil {
		return "", ConnectionError{message: BadHandshake + ": " + err.Error(), critical: true}
	}
	name := strings.TrimRight(string(nameblock), " ")
	var check int32
	if err := binary.Read(r, binary.LittleEndian, &check); err != nil {
		return "", ConnectionError{message: BadHandshake + ": " + err.Error(), engine: name, critical: true}
	}
	if check != handshakeCheck {
		return "", ConnectionError{message: BadHandshake + ": failed check value", engine: name, critical: true}
	}
	if name == "" {
		return "", ConnectionError{message: BadHandshake + ": empty engine name", critical: true}
	}
	return name, nil
}

//writeAck answers a handshake.
func writeAck(w io.Writer, ack int32) error {
	if err := binary.Write(w, binary.LittleEndian, ack); err != nil {
		return ConnectionError{message: BadHandshake + ": " + err.Error(), critical: true}
	}
	return nil
}

//writeCommand writes the 12-byte command record for c. The record is built
//first and written with a single Write call, so the token hits the channel
//atomically.
func writeCommand(w io.Writer, c Command) error {
	token := c.Token()
	if len(token) > commandLen {
		return ProtocolError{message: UnknownToken + ": " + token, critical: false}
	}
	rec := []byte(token + strings.Repeat(" ", commandLen-len(token)))
	if _, err := w.Write(rec); err != nil {
		return TransferError{message: ShortTransfer + ": " + err.Error(), critical: true}
	}
	return nil
}

//ReadCommand reads one command record from r and parses it against the
//vocabulary. It is the engine-role counterpart of Engine.SendCommand.
func ReadCommand(r io.Reader) (Command, error) {
	rec := make([]byte, commandLen)
	if _, err := io.ReadFull(r, rec); err != nil {
		return Command{}, TransferError{message: ShortTransfer + ": " + err.Error(), critical: true}
	}
	token := strings.TrimRight(string(rec), " ")
	c, err := ParseCommand(token)
	if err != nil {
		return Command{}, errDecorate(err, "ReadCommand")
	}
	return c, nil
}

//ReadFloats performs a blocking read of exactly n float64 values from r,
//preserving wire order. A short read or a disrupted channel is a
//TransferError.
func ReadFloats(r io.Reader, n int) ([]float64, error) {
	vals := make([]float64, n)
	if err := binary.Read(r, binary.LittleEndian, vals); err != nil {
		return nil, TransferError{message: ShortTransfer + ": " + err.Error(), critical: true}
	}
	return vals, nil
}

//WriteFloats performs a blocking write of all the given float64 values to w.
func WriteFloats(w io.Writer, vals []float64) error {
	if err := binary.Write(w, binary.LittleEndian, vals); err != nil {
		return TransferError{message: ShortTransfer + ": " + err.Error(), critical: true}
	}
	return nil
}

//ReadInts performs a blocking read of exactly n int32 values from r,
//preserving wire order.
func ReadInts(r io.Reader, n int) ([]int32, error) {
	vals := make([]int32, n)
	if err := binary.Read(r, binary.LittleEndian, vals); err != nil {
		return nil, TransferError{message: ShortTransfer + ": " + err.Error(), critical: true}
	}
	return vals, nil
}

//WriteInts performs a blocking write of all the given int32 values to w.
func WriteInts(w io.Writer, vals []int32) error {
	if err := binary.Write(w, binary.LittleEndian, vals); err != nil {
		return TransferError{message: ShortTransfer + ": " + err.Error(), critical: true}
	}
	return nil
}
