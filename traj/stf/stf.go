/*
 * stf.go, part of goMDI.
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

/*Package stf records the coordinates a driver retrieves from an engine,
one frame per force-exchange step, to a zstd-compressed text trajectory.
The format is a simple text one: a header of "key value" lines closed by a
"**" line, then, per frame, one "x y z" line per atom (Bohr) and a "*"
terminator line, which may carry the 9 values of the cell matrix. The
Writer satisfies the Recorder interface of the parent package, so it plugs
straight into the MD loop.*/
package stf

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"
)

//Write!
type StfW struct {
	f         *os.File
	h         *zstd.Encoder
	natoms    int
	filename  string
	writeable bool
}

//NewWriter opens name for writing a trajectory of natoms atoms. The optional
//header entries (say, the engine's name, the timestep) are written to the
//file header verbatim.
func NewWriter(name string, natoms int, header map[string]string) (*StfW, error) {
	if natoms <= 0 {
		return nil, Error{message: NilCoordinates, filename: name, critical: true}
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, Error{message: UnableToOpen + ": " + err.Error(), filename: name, critical: true}
	}
	h, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, Error{message: UnableToOpen + ": " + err.Error(), filename: name, critical: true}
	}
	S := &StfW{f: f, h: h, natoms: natoms, filename: name, writeable: true}
	fmt.Fprintf(S.h, "natoms %d\n", natoms)
	for k, v := range header {
		if k == "natoms" {
			continue //not overridable.
		}
		fmt.Fprintf(S.h, "%s %s\n", k, v)
	}
	fmt.Fprintf(S.h, "**\n")
	return S, nil
}

//Len returns the number of atoms per frame.
func (S *StfW) Len() int { return S.natoms }

//WNext writes one frame. If a box is given, its first 9 values are written to
//the frame terminator line.
func (S *StfW) WNext(coord *mat.Dense, box ...[]float64) error {
	if !S.writeable {
		return Error{message: TrajUnIniWrite, filename: S.filename, critical: true}
	}
	if coord == nil {
		return Error{message: NilCoordinates, filename: S.filename, critical: true}
	}
	r, c := coord.Dims()
	if r != S.natoms || c != 3 {
		return Error{message: fmt.Sprintf("%d coordinate rows given, but %d expected", r, S.natoms), filename: S.filename, critical: true}
	}
	for i := 0; i < r; i++ {
		if _, err := fmt.Fprintf(S.h, "%.6f %.6f %.6f\n", coord.At(i, 0), coord.At(i, 1), coord.At(i, 2)); err != nil {
			return Error{message: err.Error(), filename: S.filename, critical: true}
		}
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		b := box[0]
		fmt.Fprintf(S.h, "* %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f\n",
			b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8])
	} else {
		fmt.Fprintf(S.h, "*\n")
	}
	return nil
}

//Close flushes and closes the trajectory. It is safe to call on a nil or
//already-closed writer.
func (S *StfW) Close() {
	if S == nil || !S.writeable {
		return
	}
	S.h.Close()
	S.f.Close()
	S.writeable = false
}

//Read!
type StfR struct {
	f        *os.File
	z        *zstd.Decoder
	scan     *bufio.Scanner
	natoms   int
	filename string
	readable bool
}

//New opens a trajectory for reading, parses its header and returns the
//reader plus the header entries.
func New(name string) (*StfR, map[string]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, Error{message: UnableToOpen + ": " + err.Error(), filename: name, critical: true}
	}
	z, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, Error{message: UnableToOpen + ": " + err.Error(), filename: name, critical: true}
	}
	R := &StfR{f: f, z: z, scan: bufio.NewScanner(z), filename: name}
	header := make(map[string]string)
	for R.scan.Scan() {
		line := R.scan.Text()
		if line == "**" {
			break
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			R.Close()
			return nil, nil, Error{message: WrongFormat + ": bad header line: " + line, filename: name, critical: true}
		}
		header[fields[0]] = fields[1]
	}
	n, err := strconv.Atoi(header["natoms"])
	if err != nil || n <= 0 {
		R.Close()
		return nil, nil, Error{message: WrongFormat + ": missing or bad natoms header", filename: name, critical: true}
	}
	R.natoms = n
	R.readable = true
	return R, header, nil
}

//Readable returns true if the object is ready to be read from. It doesn't
//guarantee that there is something to read.
func (R *StfR) Readable() bool { return R.readable }

//Len returns the number of atoms per frame.
func (R *StfR) Len() int { return R.natoms }

//Next reads the next frame into coord (natoms x 3), or discards the frame if
//coord is nil. If a box slice of at least 9 elements is given and the frame
//carries a cell, the cell is copied into it. Returns a LastFrameError after
//the last frame.
func (R *StfR) Next(coord *mat.Dense, box ...[]float64) error {
	if !R.readable {
		return Error{message: TrajUnIniRead, filename: R.filename, critical: true}
	}
	if coord != nil {
		r, c := coord.Dims()
		if r != R.natoms || c != 3 {
			return Error{message: NotEnoughSpace, filename: R.filename, critical: true}
		}
	}
	for i := 0; i < R.natoms; i++ {
		if !R.scan.Scan() {
			R.readable = false
			if i == 0 {
				return newlastFrameError(R.filename, "Next")
			}
			return Error{message: EOF + " mid-frame", filename: R.filename, critical: true}
		}
		if coord == nil {
			continue
		}
		fields := strings.Fields(R.scan.Text())
		if len(fields) != 3 {
			R.readable = false
			return Error{message: WrongFormat, filename: R.filename, critical: true}
		}
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				R.readable = false
				return Error{message: WrongFormat + ": " + err.Error(), filename: R.filename, critical: true}
			}
			coord.Set(i, j, v)
		}
	}
	if !R.scan.Scan() {
		R.readable = false
		return Error{message: EOF + " mid-frame", filename: R.filename, critical: true}
	}
	term := strings.Fields(R.scan.Text())
	if len(term) == 0 || term[0] != "*" {
		R.readable = false
		return Error{message: WrongFormat + ": missing frame terminator", filename: R.filename, critical: true}
	}
	if len(term) >= 10 && len(box) > 0 && len(box[0]) >= 9 {
		for j := 0; j < 9; j++ {
			v, err := strconv.ParseFloat(term[j+1], 64)
			if err != nil {
				R.readable = false
				return Error{message: WrongFormat + ": " + err.Error(), filename: R.filename, critical: true}
			}
			box[0][j] = v
		}
	}
	return nil
}

//Close closes the trajectory. Safe on a nil or already-closed reader.
func (R *StfR) Close() {
	if R == nil || R.z == nil {
		return
	}
	R.z.Close()
	R.f.Close()
	R.readable = false
	R.z = nil
}

//Errors

//Error is the general structure for stf trajectory errors.
type Error struct {
	message  string
	filename string //the file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
}

//Decorate adds new information to the error
func (err Error) Decorate(deco string) []string {
	//Even though this method does not use a pointer as a receiver, and tries to alter the receiver,
	//it should work, since err.deco is a slice, and hence a pointer itself.
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//FileName returns the file to which the failing trajectory was associated
func (err Error) FileName() string { return err.filename }

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	UnableToOpen   = "Unable to open file"
	NilCoordinates = "Given nil coordinates"
	WrongFormat    = "Wrong format in the STF file or frame"
	NotEnoughSpace = "Not enough space in passed blocks"
	EOF            = "EOF"
)

//LastFrameError is the harmless error returned after the last frame, so it
//can be filtered in a type switch looking for this interface.
type LastFrameError interface {
	error
	FileName() string
	NormalLastFrameTermination() //does nothing, just to separate this interface from other errors.
}

//lastFrameError implements LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

//lastFrameError does nothing
func (E lastFrameError) NormalLastFrameTermination() {}

func (E lastFrameError) FileName() string { return E.fileName }

func (E lastFrameError) Error() string { return "EOF" }

func (E lastFrameError) Critical() bool { return false }

func (E lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
