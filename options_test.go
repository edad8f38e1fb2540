/*
 * options_test.go, part of goMDI.
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
	"os"
	"testing"
	"time"
)

func TestParseOptions(Te *testing.T) {
	o, err := ParseOptions("-role DRIVER -name driver -method TCP -port 8021 -hostname localhost -timeout 30s")
	if err != nil {
		Te.Fatal(err)
	}
	if o.Role != Driver || o.Name != "driver" || o.Method != "TCP" {
		Te.Error("wrong role/name/method:", o)
	}
	if o.Host != "localhost" || o.Port != 8021 || o.Timeout != 30*time.Second {
		Te.Error("wrong transport parameters:", o)
	}
	//lowercase works too; the launcher scripts are not consistent about it.
	o, err = ParseOptions("-role engine -name LAMMPS -port 8021")
	if err != nil {
		Te.Fatal(err)
	}
	if o.Role != EngineRole || o.Method != "TCP" {
		Te.Error("defaults/case not applied:", o)
	}
}

func TestParseOptionsRejects(Te *testing.T) {
	bad := []string{
		"-role DRIVER -port 8021 -method CARRIER_PIGEON",
		"-role JANITOR -port 8021",
		"-role DRIVER -port notanumber",
		"-role DRIVER -port 8021 -frequency 42",
		"-role DRIVER",       //no port
		"-role DRIVER -port", //odd fields
	}
	for _, s := range bad {
		if _, err := ParseOptions(s); err == nil {
			Te.Errorf("accepted: %q", s)
		}
	}
}

func TestOptionsFromEnv(Te *testing.T) {
	vars := map[string]string{
		"MDI_ROLE":    "driver",
		"MDI_NAME":    "driver",
		"MDI_METHOD":  "tcp",
		"MDI_HOST":    "10.0.0.2",
		"MDI_PORT":    "8021",
		"MDI_TIMEOUT": "1m",
	}
	for k, v := range vars {
		os.Setenv(k, v)
		defer os.Unsetenv(k)
	}
	o, err := OptionsFromEnv()
	if err != nil {
		Te.Fatal(err)
	}
	if o.Role != Driver || o.Host != "10.0.0.2" || o.Port != 8021 || o.Timeout != time.Minute {
		Te.Error("environment not honored:", o)
	}
}
