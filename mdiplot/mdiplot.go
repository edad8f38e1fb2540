/*
 * mdiplot.go, part of goMDI.
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

/*Package mdiplot draws per-step data from a driven dynamics run, using the
gonum plot library.*/
package mdiplot

import (
	"fmt"
	"image/color"

	mdi "github.com/rmera/gomdi"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//Series draws ys against the step number as a line plot and saves it to
//filename (the extension selects the format, ".png" being the usual choice).
func Series(title, ylabel, filename string, ys []float64) error {
	if len(ys) == 0 {
		return fmt.Errorf("mdiplot: given nil data")
	}
	pts := make(plotter.XYs, len(ys))
	for i, y := range ys {
		pts[i].X = float64(i)
		pts[i].Y = y
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Step"
	p.Y.Label.Text = ylabel
	//Draw the grid
	p.Add(plotter.NewGrid())
	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	l.LineStyle.Width = vg.Points(1)
	l.LineStyle.Color = color.RGBA{B: 255, A: 255}
	p.Add(l)
	return p.Save(4*vg.Inch, 4*vg.Inch, filename)
}

//Energies plots the per-step potential energies of a dynamics run.
func Energies(R *mdi.Results, filename string) error {
	title := "Potential energy"
	if R.Engine != "" {
		title = title + ", engine " + R.Engine
	}
	return Series(title, "Energy (Hartree)", filename, R.Energies)
}
