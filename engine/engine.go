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

/*Package engine implements the engine side of the protocol: a command loop
that lets any Go object satisfying Backend be driven by an external driver,
in-process over any bidirectional channel or over TCP. It also provides a
small harmonic-oscillator engine, which is what the library's own tests are
driven against.*/
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"

	mdi "github.com/rmera/gomdi"
	"gonum.org/v1/gonum/mat"
)

//Backend is what an engine must expose to be servable. All quantities cross
//in atomic units (Bohr, Hartree, Hartree/Bohr); masses in Daltons. The
//Backend is called from the single goroutine running Serve, in the strict
//order the driver issues commands, so it needs no internal locking.
type Backend interface {

	//Number of atoms. Fixed for the engine's lifetime.
	Natoms() int

	//The 3x3 cell matrix, row-major, 9 values.
	Cell() []float64

	//Per-atom masses, in the engine's own atom ordering.
	Masses() []float64

	//Coords fills dst (natoms x 3) with the current coordinates.
	Coords(dst *mat.Dense) error

	//SetCoords replaces the current coordinates.
	SetCoords(coords *mat.Dense) error

	//SetForces supplies the forces for the current step. The engine
	//integrates one timestep once they are in.
	SetForces(forces *mat.Dense) error

	//Current total energy.
	Energy() float64

	//AdvanceTo runs the engine up to the named node ("INIT_MD", "FORCES")
	//and halts there.
	AdvanceTo(node string) error
}

//Serve introduces the backend to the driver at the other end of conn under
//the given name, then answers the driver's commands until EXIT (nil error) or
//failure. It closes conn before returning on every path. Serve blocks; run it
//in its own goroutine for an in-process engine.
func Serve(conn io.ReadWriteCloser, name string, b Backend) error {
	defer conn.Close()
	if err := mdi.WriteHandshake(conn, name); err != nil {
		return err
	}
	slog.Default().Debug("engine serving", "name", name, "natoms", b.Natoms())
	scratch := mat.NewDense(b.Natoms(), 3, nil)
	for {
		c, err := mdi.ReadCommand(conn)
		if err != nil {
			return errDecorate(err, "Serve: "+name)
		}
		switch c.Token() {
		case "EXIT":
			slog.Default().Debug("engine released", "name", name)
			return nil
		case "<NATOMS":
			err = mdi.WriteInts(conn, []int32{int32(b.Natoms())})
		case "<CELL":
			err = mdi.WriteFloats(conn, b.Cell())
		case "<MASSES":
			err = mdi.WriteFloats(conn, b.Masses())
		case "<ENERGY":
			err = mdi.WriteFloats(conn, []float64{b.Energy()})
		case "<COORDS":
			if err = b.Coords(scratch); err == nil {
				err = mdi.WriteFloats(conn, flatten(scratch))
			}
		case ">FORCES", ">COORDS":
			var count int
			count, err = c.Count(b.Natoms())
			if err != nil {
				break
			}
			var vals []float64
			vals, err = mdi.ReadFloats(conn, count)
			if err != nil {
				break
			}
			m := mat.NewDense(b.Natoms(), 3, vals)
			if c.Name() == "FORCES" {
				err = b.SetForces(m)
			} else {
				err = b.SetCoords(m)
			}
		default:
			if c.Sigil() == mdi.Node {
				err = b.AdvanceTo(c.Name())
			} else {
				err = Error{message: "Command not supported by this engine: " + c.Token(), engine: name, critical: true}
			}
		}
		if err != nil {
			return errDecorate2(err, "Serve: "+name)
		}
	}
}

//Dial establishes the engine's TCP connection to a listening driver. The
//options must carry the ENGINE role; Options.Timeout bounds the dial.
func Dial(o *mdi.Options) (net.Conn, error) {
	if err := o.Validate(mdi.EngineRole); err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
	conn, err := net.DialTimeout("tcp", addr, o.Timeout)
	if err != nil {
		return nil, Error{message: "Unable to reach the driver: " + err.Error(), engine: o.Name, critical: true}
	}
	return conn, nil
}

//Run is Dial plus Serve: the whole lifetime of a TCP engine process.
func Run(o *mdi.Options, b Backend) error {
	conn, err := Dial(o)
	if err != nil {
		return err
	}
	return Serve(conn, o.Name, b)
}

//flatten lays a natoms x 3 matrix out in wire order, x, y, z contiguous per
//atom.
func flatten(m *mat.Dense) []float64 {
	r, _ := m.Dims()
	vals := make([]float64, 3*r)
	for i := 0; i < r; i++ {
		vals[3*i] = m.At(i, 0)
		vals[3*i+1] = m.At(i, 1)
		vals[3*i+2] = m.At(i, 2)
	}
	return vals
}

//Errors

//Error is the error type for the engine side. It fulfills mdi.Error.
type Error struct {
	message  string
	engine   string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.engine == "" {
		return fmt.Sprintf("mdi engine error: %s", err.message)
	}
	return fmt.Sprintf("mdi engine %s error: %s", err.engine, err.message)
}

//Decorate adds new information to the error
func (err Error) Decorate(dec string) []string {
	//Even though this method does not use a pointer as a receiver, and tries to alter the receiver,
	//it should work, since err.deco is a slice, and hence a pointer itself.
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical returns whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

//errDecorate is a helper that asserts that the error implements mdi.Error and
//decorates it with the caller's name before returning it.
func errDecorate(err error, caller string) error {
	err2 := err.(mdi.Error)
	err2.Decorate(caller)
	return err2
}

//errDecorate2 tolerates errors from backends, which need not implement
//mdi.Error, by wrapping them instead of asserting.
func errDecorate2(err error, caller string) error {
	if err2, ok := err.(mdi.Error); ok {
		err2.Decorate(caller)
		return err2
	}
	return Error{message: err.Error(), deco: []string{caller}, critical: true}
}
