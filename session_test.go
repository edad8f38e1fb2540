/*
 * session_test.go, part of goMDI.
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
	"net"
	"testing"
	"time"
)

//dialAndServe keeps trying to reach the driver (which needs a moment to
//start listening), then serves the mock over the connection.
func dialAndServe(M *mockEngine, addr string, done chan error) {
	var conn net.Conn
	var err error
	for i := 0; i < 100; i++ {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		done <- err
		return
	}
	done <- M.serve(conn)
}

//TestConnect negotiates two TCP engines and checks the session bookkeeping.
func TestConnect(Te *testing.T) {
	const addr = "127.0.0.1:36123"
	done := make(chan error, 2)
	go dialAndServe(newMockEngine("LAMMPS", 216), addr, done)
	go dialAndServe(newMockEngine("QE", 8), addr, done)
	o, err := ParseOptions("-role DRIVER -name driver -method TCP -hostname 127.0.0.1 -port 36123 -timeout 5s")
	if err != nil {
		Te.Fatal(err)
	}
	S, err := Connect(o, 2)
	if err != nil {
		Te.Fatal(err)
	}
	if S.Len() != 2 {
		Te.Error("wrong engine count:", S.Len())
	}
	lammps := S.Engine("LAMMPS")
	if lammps == nil {
		Te.Fatal("LAMMPS did not connect")
	}
	n, err := lammps.Natoms()
	if err != nil {
		Te.Error(err)
	}
	if n != 216 {
		Te.Error("wrong atom count:", n)
	}
	if S.Engine("GROMACS") != nil {
		Te.Error("got a handle for an engine that never connected")
	}
	if err := S.Release(); err != nil {
		Te.Error(err)
	}
	//release of the whole session is idempotent too.
	if err := S.Release(); err != nil {
		Te.Error(err)
	}
	<-done
	<-done
	fmt.Println("Connected, drove and released 2 engines")
}

//If the expected engine count is not reached within the configured window,
//Connect must give up with a ConnectionError.
func TestConnectTimeout(Te *testing.T) {
	o, err := ParseOptions("-role DRIVER -name driver -method TCP -hostname 127.0.0.1 -port 36124 -timeout 200ms")
	if err != nil {
		Te.Fatal(err)
	}
	_, err = Connect(o, 1)
	if err == nil {
		Te.Fatal("connect succeeded with no engines around")
	}
	if _, ok := err.(ConnectionError); !ok {
		Te.Error("not a ConnectionError:", err)
	}
}

//An engine that connects and then sends nothing must not stall the
//negotiation past the configured window: the handshake read itself is
//deadline-bound.
func TestSilentEngine(Te *testing.T) {
	const addr = "127.0.0.1:36126"
	hold := make(chan struct{})
	go func() {
		var conn net.Conn
		var err error
		for i := 0; i < 100; i++ {
			conn, err = net.Dial("tcp", addr)
			if err == nil {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if err != nil {
			return
		}
		defer conn.Close()
		<-hold //no handshake bytes, ever; just squat on the connection.
	}()
	o, err := ParseOptions("-role DRIVER -name driver -method TCP -hostname 127.0.0.1 -port 36126 -timeout 300ms")
	if err != nil {
		Te.Fatal(err)
	}
	start := time.Now()
	_, err = Connect(o, 1)
	close(hold)
	if err == nil {
		Te.Fatal("connect succeeded with a mute engine")
	}
	if _, ok := err.(ConnectionError); !ok {
		Te.Error("not a ConnectionError:", err)
	}
	if time.Since(start) > 3*time.Second {
		Te.Error("mute engine held connect for", time.Since(start))
	}
}

//The timeout is one window for the whole negotiation, not one per engine: a
//partial turnout fails within it, and the engines adopted so far are released.
func TestConnectWindow(Te *testing.T) {
	const addr = "127.0.0.1:36127"
	done := make(chan error, 1)
	go dialAndServe(newMockEngine("LAMMPS", 8), addr, done)
	o, err := ParseOptions("-role DRIVER -name driver -method TCP -hostname 127.0.0.1 -port 36127 -timeout 300ms")
	if err != nil {
		Te.Fatal(err)
	}
	start := time.Now()
	_, err = Connect(o, 2) //only one engine will ever show up.
	if err == nil {
		Te.Fatal("connect succeeded with an engine missing")
	}
	if _, ok := err.(ConnectionError); !ok {
		Te.Error("not a ConnectionError:", err)
	}
	if time.Since(start) > 2*time.Second {
		Te.Error("single window not honored, connect took", time.Since(start))
	}
	//the adopted engine was released on the way out, so its loop ended on a
	//clean EXIT.
	if err := <-done; err != nil {
		Te.Error("adopted engine not released cleanly:", err)
	}
}

//A second handshake reusing a name is a protocol violation and poisons the
//negotiation.
func TestDuplicateName(Te *testing.T) {
	S := NewSession()
	d1, e1 := net.Pipe()
	go WriteHandshake(e1, "LAMMPS")
	if _, err := S.Adopt(d1); err != nil {
		Te.Fatal(err)
	}
	d2, e2 := net.Pipe()
	refused := make(chan error, 1)
	go func() { refused <- WriteHandshake(e2, "LAMMPS") }()
	_, err := S.Adopt(d2)
	if err == nil {
		Te.Fatal("duplicate name accepted")
	}
	if _, ok := err.(ProtocolError); !ok {
		Te.Error("duplicate name is not a ProtocolError:", err)
	}
	//the refused engine learns about it from the nack.
	if err := <-refused; err == nil {
		Te.Error("refused engine saw a successful handshake")
	}
	if S.Len() != 1 {
		Te.Error("refused engine counted in the session")
	}
	S.Engine("LAMMPS").conn.Close() //no EXIT reader on the other side.
	e1.Close()
}

//A channel that dies mid-handshake must surface as a ConnectionError.
func TestBadHandshake(Te *testing.T) {
	S := NewSession()
	d, e := net.Pipe()
	go func() {
		e.Write([]byte("XXXX")) //wrong magic, then nothing else.
		e.Close()
	}()
	if _, err := S.Adopt(d); err == nil {
		Te.Error("bad magic accepted")
	} else if _, ok := err.(ConnectionError); !ok {
		Te.Error("not a ConnectionError:", err)
	}
}
