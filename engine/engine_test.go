/*
 * engine_test.go, part of goMDI.
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
 */

package engine

import (
	"fmt"
	"math"
	"net"
	"testing"
	"time"

	mdi "github.com/rmera/gomdi"
	"gonum.org/v1/gonum/mat"
)

//the driver-side model matching the Harmonic engine: f = -k x.
type spring struct {
	k float64
}

func (s *spring) Forces(coords, out *mat.Dense) (float64, error) {
	r, _ := coords.Dims()
	var energy float64
	for i := 0; i < r; i++ {
		for j := 0; j < 3; j++ {
			x := coords.At(i, j)
			out.Set(i, j, -s.k*x)
			energy += 0.5 * s.k * x * x
		}
	}
	return energy, nil
}

func water() (*Harmonic, error) {
	coords := mat.NewDense(3, 3, []float64{
		0, 0, 0.2,
		1.43, 0, 1.1,
		-1.43, 0, 1.1, //roughly a water, in Bohr, displaced off the origin.
	})
	return NewHarmonic([]string{"O", "H", "H"}, coords, 0.05, 10)
}

//TestServe drives a Harmonic engine in-process, through the full protocol,
//with the parent package's MD loop.
func TestServe(Te *testing.T) {
	H, err := water()
	if err != nil {
		Te.Fatal(err)
	}
	dconn, econn := net.Pipe()
	done := make(chan error, 1)
	go func() { done <- Serve(econn, "HARMONIC", H) }()
	S := mdi.NewSession()
	eng, err := S.Adopt(dconn)
	if err != nil {
		Te.Fatal(err)
	}
	masses, err := eng.Masses()
	if err != nil {
		Te.Error(err)
	}
	if len(masses) != 3 || masses[0] != 16.00 || masses[1] != 1.0 {
		Te.Error("wrong masses:", masses)
	}
	cell, err := eng.Cell()
	if err != nil {
		Te.Error(err)
	}
	if cell.At(1, 1) != 100 {
		Te.Error("wrong cell")
	}
	const nsteps = 20
	R, err := mdi.MD(eng, &spring{k: 0.05}, nsteps)
	if err != nil {
		Te.Fatal(err)
	}
	if R.Steps != nsteps {
		Te.Error("did", R.Steps, "steps")
	}
	for i, e := range R.Energies {
		if math.IsNaN(e) || e < 0 {
			Te.Error("bad energy at step", i, ":", e)
		}
	}
	//the driver's spring matches the engine's own, so the engine's total
	//energy (kinetic + spring) should be roughly conserved.
	e0 := R.Energies[0]
	total, err := eng.Energy()
	if err != nil {
		Te.Error(err)
	}
	if math.Abs(total-e0) > 0.2*e0 {
		Te.Error("total energy drifted from", e0, "to", total)
	}
	if err := S.Release(); err != nil {
		Te.Error(err)
	}
	if err := <-done; err != nil {
		Te.Error("serve:", err)
	}
	fmt.Println("Harmonic MD over! potential", e0, "->", R.Energies[nsteps-1], "total", total)
}

//TestRunTCP exercises the whole TCP path: the engine dials the listening
//driver with Run, the driver negotiates it with Connect.
func TestRunTCP(Te *testing.T) {
	H, err := water()
	if err != nil {
		Te.Fatal(err)
	}
	done := make(chan error, 1)
	go func() {
		o, err := mdi.ParseOptions("-role ENGINE -name HARMONIC -method TCP -hostname 127.0.0.1 -port 36125 -timeout 2s")
		if err != nil {
			done <- err
			return
		}
		//the driver needs a moment to start listening.
		for i := 0; i < 100; i++ {
			err = Run(o, H)
			if _, bad := err.(Error); !bad {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		done <- err
	}()
	o, err := mdi.ParseOptions("-role DRIVER -name driver -method TCP -hostname 127.0.0.1 -port 36125 -timeout 5s")
	if err != nil {
		Te.Fatal(err)
	}
	S, err := mdi.Connect(o, 1)
	if err != nil {
		Te.Fatal(err)
	}
	eng := S.Engine("HARMONIC")
	if eng == nil {
		Te.Fatal("engine did not negotiate")
	}
	n, err := eng.Natoms()
	if err != nil {
		Te.Error(err)
	}
	if n != 3 {
		Te.Error("wrong atom count:", n)
	}
	if err := S.Release(); err != nil {
		Te.Error(err)
	}
	if err := <-done; err != nil {
		Te.Error("engine:", err)
	}
}

//The engine must refuse dynamics before initialization, and unknown nodes.
func TestNodeDiscipline(Te *testing.T) {
	H, err := water()
	if err != nil {
		Te.Fatal(err)
	}
	if err := H.AdvanceTo("FORCES"); err == nil {
		Te.Error("force node reached before @INIT_MD")
	}
	if err := H.AdvanceTo("INIT_MD"); err != nil {
		Te.Error(err)
	}
	if err := H.AdvanceTo("FORCES"); err != nil {
		Te.Error(err)
	}
	if err := H.AdvanceTo("TEATIME"); err == nil {
		Te.Error("unknown node accepted")
	}
}

//Unknown elements have no mass to assign.
func TestUnknownElement(Te *testing.T) {
	coords := mat.NewDense(1, 3, []float64{0, 0, 0})
	if _, err := NewHarmonic([]string{"Xx"}, coords, 1, 1); err == nil {
		Te.Error("engine built with a massless element")
	}
}
