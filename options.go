/*
 * options.go, part of goMDI.
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

package mdi

import (
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

//Role distinguishes the two participants of the protocol.
type Role string

const (
	Driver     Role = "DRIVER"
	EngineRole Role = "ENGINE"
)

//Options is the transport selection for one participant, normally supplied by
//the process launcher, either as an option string (ParseOptions) or through
//the environment (OptionsFromEnv). Timeout is this library's hardening
//extension; the protocol itself has no timeouts.
type Options struct {
	Role    Role          `env:"MDI_ROLE"`
	Name    string        `env:"MDI_NAME"`
	Method  string        `env:"MDI_METHOD" envDefault:"TCP"`
	Host    string        `env:"MDI_HOST" envDefault:"localhost"`
	Port    int           `env:"MDI_PORT"`
	Timeout time.Duration `env:"MDI_TIMEOUT"`
}

//ParseOptions parses the launcher's option-string form, e.g.
//"-role DRIVER -name driver -method TCP -port 8021 -hostname localhost".
//Unknown flags, roles or methods are rejected here, not at connection time.
func ParseOptions(s string) (*Options, error) {
	o := &Options{Method: "TCP", Host: "localhost"}
	fields := strings.Fields(s)
	if len(fields)%2 != 0 {
		return nil, ConnectionError{message: BadOptions + ": odd number of fields", critical: true}
	}
	for i := 0; i < len(fields); i += 2 {
		flag, val := fields[i], fields[i+1]
		switch flag {
		case "-role":
			o.Role = Role(strings.ToUpper(val))
		case "-name":
			o.Name = val
		case "-method":
			o.Method = strings.ToUpper(val)
		case "-hostname":
			o.Host = val
		case "-port":
			p, err := strconv.Atoi(val)
			if err != nil {
				return nil, ConnectionError{message: BadOptions + ": bad port: " + val, critical: true}
			}
			o.Port = p
		case "-timeout":
			d, err := time.ParseDuration(val)
			if err != nil {
				return nil, ConnectionError{message: BadOptions + ": bad timeout: " + val, critical: true}
			}
			o.Timeout = d
		default:
			return nil, ConnectionError{message: BadOptions + ": unknown flag: " + flag, critical: true}
		}
	}
	if err := o.check(); err != nil {
		return nil, errDecorate(err, "ParseOptions")
	}
	return o, nil
}

//OptionsFromEnv builds the options from MDI_ROLE, MDI_NAME, MDI_METHOD,
//MDI_HOST, MDI_PORT and MDI_TIMEOUT.
func OptionsFromEnv() (*Options, error) {
	o := &Options{}
	if err := env.Parse(o); err != nil {
		return nil, ConnectionError{message: BadOptions + ": " + err.Error(), critical: true}
	}
	o.Role = Role(strings.ToUpper(string(o.Role)))
	o.Method = strings.ToUpper(o.Method)
	if err := o.check(); err != nil {
		return nil, errDecorate(err, "OptionsFromEnv")
	}
	return o, nil
}

//check validates the fields common to both roles.
func (o *Options) check() error {
	switch o.Role {
	case Driver, EngineRole:
	default:
		return ConnectionError{message: BadOptions + ": unknown role: " + string(o.Role), critical: true}
	}
	//TCP is the only wire method with transport parameters; in-process
	//engines need none and join through Session.Adopt directly.
	if o.Method != "TCP" {
		return ConnectionError{message: BadOptions + ": unknown method: " + o.Method, critical: true}
	}
	if o.Port <= 0 || o.Port > 65535 {
		return ConnectionError{message: BadOptions + ": bad port: " + strconv.Itoa(o.Port), critical: true}
	}
	return nil
}

//Validate additionally checks that the options carry the expected role. The
//engine subpackage uses it with EngineRole before dialing.
func (o *Options) Validate(want Role) error {
	if o == nil {
		return ConnectionError{message: BadOptions + ": nil options", critical: true}
	}
	if err := o.check(); err != nil {
		return err
	}
	if o.Role != want {
		return ConnectionError{message: BadOptions + ": role " + string(o.Role) + " where " + string(want) + " was needed", critical: true}
	}
	return nil
}
