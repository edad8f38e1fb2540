/*
 * command.go, part of goMDI.
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

//Sigil is the leading character of a command token, which declares whether,
//and in which direction, a payload transfer follows the command.
type Sigil byte

const (
	Control Sigil = iota //bare token, a control action with no payload (EXIT).
	Recv                 //'<', the engine sends a payload to the driver next.
	Send                 //'>', the driver sends a payload to the engine next.
	Node                 //'@', advance the engine to a named node. No payload.
)

//Kind is the element type of a payload.
type Kind byte

const (
	Int   Kind = iota //32-bit signed integers on the wire.
	Float             //64-bit IEEE floats on the wire.
)

//Command is one entry of the closed command vocabulary: a sigil, a name, and
//the shape of the associated payload, if any. Commands are only built by
//ParseCommand, which rejects tokens outside the vocabulary, so an unknown or
//malformed token fails at construction time, not at transmission time. The
//zero Command is invalid and rejected by every handle operation.
type Command struct {
	sigil   Sigil
	name    string
	kind    Kind
	count   int //fixed element count. 0 when the count is per-atom.
	perAtom int //elements per atom (1 for masses, 3 for coords/forces). 0 when fixed.
}

//The protocol vocabulary. Counts marked per-atom resolve against the engine's
//atom count, which the driver learns with <NATOMS (or declares out of band).
var vocabulary = map[string]Command{
	"<NATOMS":  {Recv, "NATOMS", Int, 1, 0},
	"<CELL":    {Recv, "CELL", Float, 9, 0}, //3x3 cell matrix, row-major, Bohr.
	"<MASSES":  {Recv, "MASSES", Float, 0, 1},
	"<COORDS":  {Recv, "COORDS", Float, 0, 3},
	"<ENERGY":  {Recv, "ENERGY", Float, 1, 0},
	">COORDS":  {Send, "COORDS", Float, 0, 3},
	">FORCES":  {Send, "FORCES", Float, 0, 3},
	"@INIT_MD": {Node, "INIT_MD", 0, 0, 0},
	"@FORCES":  {Node, "FORCES", 0, 0, 0},
	"EXIT":     {Control, "EXIT", 0, 0, 0},
}

//ParseCommand returns the Command for the given token ("<NATOMS", ">FORCES",
//"@INIT_MD", "EXIT"...). A token outside the vocabulary is a ProtocolError.
func ParseCommand(token string) (Command, error) {
	c, ok := vocabulary[token]
	if !ok {
		return Command{}, ProtocolError{message: UnknownToken + ": " + token, critical: false}
	}
	return c, nil
}

//mustCommand is for vocabulary tokens used internally, which cannot fail.
func mustCommand(token string) Command {
	c, err := ParseCommand(token)
	if err != nil {
		panic(err.Error())
	}
	return c
}

//Sigil returns the direction sigil of the command.
func (c Command) Sigil() Sigil { return c.sigil }

//Name returns the command name, without the sigil.
func (c Command) Name() string { return c.name }

//Kind returns the element type of the command's payload. Only meaningful for
//Recv and Send commands.
func (c Command) Kind() Kind { return c.kind }

//Token reassembles the wire token of the command.
func (c Command) Token() string {
	switch c.sigil {
	case Recv:
		return "<" + c.name
	case Send:
		return ">" + c.name
	case Node:
		return "@" + c.name
	default:
		return c.name
	}
}

//Count resolves the element count of the command's payload. For per-atom
//shaped commands natoms must be known (positive); using them before the atom
//count has been retrieved is a ProtocolError.
func (c Command) Count(natoms int) (int, error) {
	if c.perAtom == 0 {
		return c.count, nil
	}
	if natoms <= 0 {
		return 0, ProtocolError{message: NatomsUnknown, critical: false}
	}
	return c.perAtom * natoms, nil
}
