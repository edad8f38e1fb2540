/*
 * doc.go, part of goMDI.
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

/*Package mdi implements the driver side of the standardized command/data
exchange protocol used to steer molecular simulation engines (MD codes,
QM codes) from an external program.

A driver opens a Session, which listens for one or more engines to
connect and hand-shake, each under a unique name. It then issues command
tokens to each engine handle: "<"-prefixed commands make the engine send
a payload of known count and type, ">"-prefixed commands announce a
payload the driver will send next, "@"-prefixed commands advance the
engine to a named node of its execution (say, the point where forces are
about to be evaluated) where it halts and awaits further instruction, and
bare tokens (EXIT) are control actions with no payload.



	**goMDI capabilities**


    Connects to one or several engines over TCP, or to in-process engines
	over any bidirectional channel.

    Issues the protocol commands (<NATOMS, <CELL, <MASSES, <COORDS,
	<ENERGY, >COORDS, >FORCES, @INIT_MD, @FORCES, EXIT) with the
	direction and payload-shape discipline enforced on the driver side,
	so a mis-sequenced exchange fails before touching the wire.

    Retrieves coordinates, cell and masses as gonum matrices/slices, and
	supplies externally computed forces, all in the protocol's atomic
	units. Conversion factors to/from common engine-native units are
	provided.

    Drives an engine (or several, concurrently) through a complete
	force-exchange dynamics loop, optionally recording the retrieved
	coordinates to a compressed trajectory (see the traj/stf subpackage)
	and plotting per-step data (see the mdiplot subpackage).

    The engine subpackage implements the other end of the wire, so pure
	Go engines can be driven in-process, and so tests have a real
	counterpart to talk to.


All payloads crossing the protocol are in atomic units (lengths in Bohr,
energies in Hartree, forces in Hartree/Bohr). An engine with a different
native unit system must be bridged by the driver with the conversion
factors in this package, both on receipt and before each send.

The protocol itself specifies no receive timeout: a blocked receive with
no matching send from the engine blocks forever. As a hardening measure,
Options.Timeout sets a per-operation deadline on every handle of a
session, and bounds the negotiation too: Connect gets one absolute window
for the whole turnout, and each adopted connection gets that long to
complete its handshake. A deadline expiry surfaces as a TransferError, or
as a ConnectionError during negotiation. This is an extension of this
library, not part of the protocol.

Each engine handle is owned by the goroutine that drives it. Commands
against different handles may be freely interleaved; commands against the
same handle must be strictly ordered, and the handles do no internal
locking.*/
package mdi
