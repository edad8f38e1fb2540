/*
 * command_test.go, part of goMDI.
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

package mdi

import (
	"fmt"
	"testing"
)

//TestVocabulary checks that every token of the protocol parses to the right
//sigil and payload shape, and reassembles to itself.
func TestVocabulary(Te *testing.T) {
	cases := []struct {
		token string
		sigil Sigil
		kind  Kind
		count int //resolved with natoms=5
	}{
		{"<NATOMS", Recv, Int, 1},
		{"<CELL", Recv, Float, 9},
		{"<MASSES", Recv, Float, 5},
		{"<COORDS", Recv, Float, 15},
		{"<ENERGY", Recv, Float, 1},
		{">COORDS", Send, Float, 15},
		{">FORCES", Send, Float, 15},
		{"@INIT_MD", Node, 0, 0},
		{"@FORCES", Node, 0, 0},
		{"EXIT", Control, 0, 0},
	}
	for _, v := range cases {
		c, err := ParseCommand(v.token)
		if err != nil {
			Te.Error(err)
			continue
		}
		if c.Sigil() != v.sigil {
			Te.Errorf("%s: wrong sigil", v.token)
		}
		if c.Token() != v.token {
			Te.Errorf("%s: token reassembled to %s", v.token, c.Token())
		}
		if v.sigil != Recv && v.sigil != Send {
			continue
		}
		if c.Kind() != v.kind {
			Te.Errorf("%s: wrong element type", v.token)
		}
		count, err := c.Count(5)
		if err != nil {
			Te.Error(err)
		}
		if count != v.count {
			Te.Errorf("%s: count %d, wanted %d", v.token, count, v.count)
		}
	}
	fmt.Println("Vocabulary checked:", len(cases), "tokens")
}

//Tokens outside the vocabulary must be rejected at construction time.
func TestUnknownToken(Te *testing.T) {
	for _, token := range []string{"<NOPE", ">NATOMS", "@NOWHERE", "QUIT", ""} {
		if _, err := ParseCommand(token); err == nil {
			Te.Errorf("token %q accepted", token)
		} else if _, ok := err.(ProtocolError); !ok {
			Te.Errorf("token %q: error is not a ProtocolError", token)
		}
	}
}

//Per-atom shaped commands must refuse to resolve their count before the atom
//count is known.
func TestCountNeedsNatoms(Te *testing.T) {
	c, err := ParseCommand("<COORDS")
	if err != nil {
		Te.Error(err)
	}
	if _, err := c.Count(0); err == nil {
		Te.Error("count resolved with unknown atom count")
	}
	n, err := c.Count(216)
	if err != nil {
		Te.Error(err)
	}
	if n != 648 {
		Te.Errorf("got %d, wanted 648", n)
	}
}
