/*
 * harmonic.go, part of goMDI.
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

package engine

import (
	"gonum.org/v1/gonum/mat"
)

//Daltons to atomic units of mass (electron masses).
const amu2au = 1822.888486

//Harmonic is a toy engine: natoms non-interacting atoms, each tethered to
//the origin by an isotropic spring of constant k (Hartree/Bohr^2),
//integrated with a symplectic Euler step of dt atomic time units once forces
//are supplied. It exists so drivers and tests have a complete, deterministic
//engine to talk to; it is not a simulation code.
type Harmonic struct {
	natoms int
	k      float64
	dt     float64
	box    float64 //cubic cell side, Bohr.
	x      *mat.Dense
	v      *mat.Dense
	masses []float64 //Daltons, as engines report them.
	init   bool
}

//NewHarmonic builds a Harmonic engine from element symbols and initial
//coordinates (natoms x 3, Bohr). Masses are assigned from the symbols;
//an element outside the (bio-element) mass table is an error.
func NewHarmonic(symbols []string, coords *mat.Dense, k, dt float64) (*Harmonic, error) {
	r, c := coords.Dims()
	if c != 3 || r != len(symbols) {
		return nil, Error{message: "Need one element symbol per coordinate row, and 3 columns", critical: true}
	}
	masses := make([]float64, r)
	for i, s := range symbols {
		m, ok := symbolMass[s]
		if !ok {
			return nil, Error{message: "No mass for element: " + s, critical: true}
		}
		masses[i] = m
	}
	H := &Harmonic{
		natoms: r,
		k:      k,
		dt:     dt,
		box:    100, //generous vacuum box.
		x:      mat.DenseCopyOf(coords),
		v:      mat.NewDense(r, 3, nil),
		masses: masses,
	}
	return H, nil
}

func (H *Harmonic) Natoms() int { return H.natoms }

func (H *Harmonic) Cell() []float64 {
	return []float64{H.box, 0, 0, 0, H.box, 0, 0, 0, H.box}
}

func (H *Harmonic) Masses() []float64 {
	m := make([]float64, len(H.masses))
	copy(m, H.masses)
	return m
}

func (H *Harmonic) Coords(dst *mat.Dense) error {
	r, c := dst.Dims()
	if r != H.natoms || c != 3 {
		return Error{message: "Not enough space in passed matrix", critical: true}
	}
	dst.Copy(H.x)
	return nil
}

func (H *Harmonic) SetCoords(coords *mat.Dense) error {
	r, c := coords.Dims()
	if r != H.natoms || c != 3 {
		return Error{message: "Wrong coordinate dimensions", critical: true}
	}
	H.x.Copy(coords)
	return nil
}

//SetForces takes the driver's forces (Hartree/Bohr) and integrates one
//timestep: v += dt*f/m, then x += dt*v. The spring contribution is already
//part of what the driver computed, or not, as the driver pleases; the engine
//trusts the forces it is given.
func (H *Harmonic) SetForces(forces *mat.Dense) error {
	r, c := forces.Dims()
	if r != H.natoms || c != 3 {
		return Error{message: "Wrong force dimensions", critical: true}
	}
	for i := 0; i < H.natoms; i++ {
		m := H.masses[i] * amu2au
		for j := 0; j < 3; j++ {
			vel := H.v.At(i, j) + H.dt*forces.At(i, j)/m
			H.v.Set(i, j, vel)
			H.x.Set(i, j, H.x.At(i, j)+H.dt*vel)
		}
	}
	return nil
}

//Energy returns kinetic plus the engine's own spring potential, in Hartree.
func (H *Harmonic) Energy() float64 {
	var kin, pot float64
	for i := 0; i < H.natoms; i++ {
		m := H.masses[i] * amu2au
		for j := 0; j < 3; j++ {
			v := H.v.At(i, j)
			x := H.x.At(i, j)
			kin += 0.5 * m * v * v
			pot += 0.5 * H.k * x * x
		}
	}
	return kin + pot
}

func (H *Harmonic) AdvanceTo(node string) error {
	switch node {
	case "INIT_MD":
		H.v.Zero()
		H.init = true
	case "FORCES":
		if !H.init {
			return Error{message: "Dynamics not initialized, @INIT_MD is needed first", critical: true}
		}
		//this is the halt point: the engine now awaits <COORDS / >FORCES.
	default:
		return Error{message: "Unknown node: " + node, critical: true}
	}
	return nil
}
