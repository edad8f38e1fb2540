/*
 * mdiplot_test.go, part of goMDI.
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

package mdiplot

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	mdi "github.com/rmera/gomdi"
)

func TestEnergies(Te *testing.T) {
	name := filepath.Join(os.TempDir(), "gomdi_energies.png")
	defer os.Remove(name)
	R := &mdi.Results{Engine: "LAMMPS", Steps: 50}
	for i := 0; i < 50; i++ {
		R.Energies = append(R.Energies, 0.16*math.Cos(float64(i)/8)*math.Cos(float64(i)/8))
	}
	if err := Energies(R, name); err != nil {
		Te.Error(err)
	}
	if fi, err := os.Stat(name); err != nil || fi.Size() == 0 {
		Te.Error("no plot written")
	}
	if err := Series("empty", "y", name, nil); err == nil {
		Te.Error("empty series plotted")
	}
}
