/*
 * conversion.go, part of goMDI.
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

//This provides useful conversion factors and other constants.
//Everything that crosses the protocol is in atomic units: lengths in Bohr,
//energies in Hartree, forces in Hartree/Bohr, time in atomic time units.
//These factors bridge engine-native unit systems to that convention.

//Conversions
const (
	Deg2Rad = 0.0174533
	Rad2Deg = 1 / 0.0174533
	H2Kcal  = 627.509 //Hartree 2 Kcal/mol
	Kcal2H  = 1 / 627.509
	KJ2Kcal = 1 / 4.184
	Kcal2KJ = 4.184
	H2eV    = 27.211386
	EV2H    = 1 / 27.211386
	A2Bohr  = 1.889725989
	Bohr2A  = 1 / 1.889725989
	Fs2AUT  = 41.341374575751 //femtoseconds 2 atomic time units
	AUT2Fs  = 1 / 41.341374575751
)

//a named unit: the dimension it measures, and the factor that takes a value
//in this unit to the protocol's canonical unit of that dimension.
type unit struct {
	dim         string
	toCanonical float64
}

var units = map[string]unit{
	"bohr":         {"length", 1},
	"angstrom":     {"length", A2Bohr},
	"nanometer":    {"length", 10 * A2Bohr},
	"hartree":      {"energy", 1},
	"ev":           {"energy", EV2H},
	"kcal/mol":     {"energy", Kcal2H},
	"kj/mol":       {"energy", KJ2Kcal * Kcal2H},
	"hartree/bohr": {"force", 1},
	"ev/angstrom":  {"force", EV2H / A2Bohr},
	"atomic_time":  {"time", 1},
	"femtosecond":  {"time", Fs2AUT},
	"picosecond":   {"time", 1000 * Fs2AUT},
}

//ConversionFactor returns the multiplier that takes a value in the unit named
//from to the unit named to. Both units must measure the same dimension.
//Unit names are lowercase ("angstrom", "bohr", "hartree", "ev", "kcal/mol",
//"kj/mol", "hartree/bohr", "ev/angstrom", "femtosecond", ...).
func ConversionFactor(from, to string) (float64, error) {
	f, ok := units[from]
	if !ok {
		return 0, ProtocolError{message: "Unknown unit name: " + from, critical: false}
	}
	t, ok := units[to]
	if !ok {
		return 0, ProtocolError{message: "Unknown unit name: " + to, critical: false}
	}
	if f.dim != t.dim {
		return 0, ProtocolError{message: "Units " + from + " and " + to + " do not measure the same dimension", critical: false}
	}
	return f.toCanonical / t.toCanonical, nil
}
