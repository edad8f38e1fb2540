/*
 * md.go, part of goMDI.
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
	"gonum.org/v1/gonum/mat"
)

//Forcer is an external force model: given the current coordinates (Bohr) it
//fills out with the forces on each atom (Hartree/Bohr, same atom ordering)
//and returns the potential energy (Hartree). Anything feeding forces to an
//engine through this library must speak atomic units; a model working in
//engine-native units has to be wrapped with the conversion factors of this
//package.
type Forcer interface {
	Forces(coords, out *mat.Dense) (float64, error)
}

//Recorder takes the coordinates retrieved at each step. The Writer of the
//traj/stf subpackage implements it; so does anything with the WNext method
//of the goChem trajectory writers.
type Recorder interface {
	WNext(coords *mat.Dense, box ...[]float64) error
}

//Results holds what a force-exchange dynamics run produced on the driver
//side. Err is only set by MDConc, where the run happens in its own goroutine
//and has no other way to report.
type Results struct {
	Engine   string
	Steps    int       //steps actually completed.
	Energies []float64 //per-step potential energy from the Forcer, Hartree.
	Err      error
}

//MD drives the engine through nsteps force-exchange cycles: the engine is
//advanced to its force-evaluation node, its coordinates are retrieved and fed
//to the model, and the model's forces are supplied back, upon which the
//engine integrates one timestep. If a rec is given, the retrieved coordinates
//of every step are recorded before the forces are computed.
//
//If the engine dies or the channel closes mid-loop, the loop aborts and the
//error is propagated with the step count so far in Results; partial dynamics
//are not silently continued, and the handle is left for the caller to
//Release.
func MD(eng *Engine, model Forcer, nsteps int, rec ...Recorder) (*Results, error) {
	R := &Results{Engine: eng.Name(), Energies: make([]float64, 0, nsteps)}
	n, err := eng.Natoms()
	if err != nil {
		return R, errDecorate(err, "MD")
	}
	if err := eng.InitMD(); err != nil {
		return R, errDecorate(err, "MD")
	}
	coords := mat.NewDense(n, 3, nil)
	forces := mat.NewDense(n, 3, nil)
	for step := 0; step < nsteps; step++ {
		if err := eng.GoTo("FORCES"); err != nil {
			return R, errDecorate(err, "MD")
		}
		if _, err := eng.Coords(coords); err != nil {
			return R, errDecorate(err, "MD")
		}
		if len(rec) > 0 && rec[0] != nil {
			if err := rec[0].WNext(coords); err != nil {
				return R, err
			}
		}
		energy, err := model.Forces(coords, forces)
		if err != nil {
			return R, err
		}
		if err := eng.SetForces(forces); err != nil {
			return R, errDecorate(err, "MD")
		}
		R.Energies = append(R.Energies, energy)
		R.Steps = step + 1
	}
	return R, nil
}

//MDConc drives several engines through MD concurrently, one goroutine per
//engine, and returns one channel per engine through which that engine's
//Results will be transmitted. No state is shared between the goroutines
//beyond each engine's own handle, so no synchronization is needed beyond
//receiving from the channels. A per-engine failure is reported in the Err
//field of that engine's Results; the other engines are not interrupted.
func MDConc(engines []*Engine, models []Forcer, nsteps int) ([]chan *Results, error) {
	if len(engines) != len(models) {
		return nil, ProtocolError{message: "One force model per engine is needed", critical: false}
	}
	reschans := make([]chan *Results, len(engines))
	for i, eng := range engines {
		reschans[i] = make(chan *Results, 1)
		go func(eng *Engine, model Forcer, pipe chan *Results) {
			R, err := MD(eng, model, nsteps)
			R.Err = err
			pipe <- R
		}(eng, models[i], reschans[i])
	}
	return reschans, nil
}
