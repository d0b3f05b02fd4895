//
// Copyright (c) 2019-2024 Markku Rossi
//
// All rights reserved.
//

package session

import (
	"crypto/rand"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/gogarble/yaogc/circuit"
	"github.com/gogarble/yaogc/garbler"
	"github.com/gogarble/yaogc/transport"
)

func mustParse(t *testing.T, src string) *circuit.Circuit {
	t.Helper()
	c, err := circuit.ParseReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return c
}

// runSession drives both sides of the protocol over an in-process
// net.Pipe(), returning the garbler's and evaluator's decoded outputs.
func runSession(t *testing.T, circ *circuit.Circuit, garblerInput, evaluatorInput []bool) (gOut, eOut string, gErr, eErr error) {
	t.Helper()
	a, b := net.Pipe()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ch := transport.NewChannel(a)
		defer ch.Close()
		gOut, gErr = RunGarbler(ch, circ, garblerInput)
	}()
	go func() {
		defer wg.Done()
		ch := transport.NewChannel(b)
		defer ch.Close()
		eOut, eErr = RunEvaluator(ch, circ, evaluatorInput)
	}()
	wg.Wait()
	return
}

const andCircuit = `
1 3 1 1 1
AND 0 1 2
`

func TestSingleAndGate(t *testing.T) {
	circ := mustParse(t, andCircuit)
	for _, tc := range []struct {
		a, b bool
		want string
	}{
		{false, false, "0"},
		{false, true, "0"},
		{true, false, "0"},
		{true, true, "1"},
	} {
		gOut, eOut, gErr, eErr := runSession(t, circ, []bool{tc.a}, []bool{tc.b})
		if gErr != nil || eErr != nil {
			t.Fatalf("a=%v b=%v: gErr=%v eErr=%v", tc.a, tc.b, gErr, eErr)
		}
		if gOut != tc.want || eOut != tc.want {
			t.Fatalf("a=%v b=%v: got garbler=%q evaluator=%q, want %q", tc.a, tc.b, gOut, eOut, tc.want)
		}
	}
}

const xorCircuit = `
1 3 1 1 1
XOR 0 1 2
`

func TestSingleXorGateNoTableEntries(t *testing.T) {
	circ := mustParse(t, xorCircuit)
	gOut, eOut, gErr, eErr := runSession(t, circ, []bool{true}, []bool{true})
	if gErr != nil || eErr != nil {
		t.Fatalf("gErr=%v eErr=%v", gErr, eErr)
	}
	if gOut != "0" || eOut != "0" {
		t.Fatalf("got garbler=%q evaluator=%q, want 0", gOut, eOut)
	}

	labels, gates, err := garbler.Garble(circ, rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	defer labels.Wipe()
	if len(gates[0].Entries) != 0 {
		t.Fatalf("XOR gate transmitted %d entries, want 0", len(gates[0].Entries))
	}
}

const notChainCircuit = `
2 3 1 0 1
NOT 0 1
NOT 1 2
`

func TestNotChain(t *testing.T) {
	circ := mustParse(t, notChainCircuit)
	for _, a := range []bool{false, true} {
		want := "0"
		if a {
			want = "1"
		}
		gOut, eOut, gErr, eErr := runSession(t, circ, []bool{a}, nil)
		if gErr != nil || eErr != nil {
			t.Fatalf("a=%v: gErr=%v eErr=%v", a, gErr, eErr)
		}
		if gOut != want || eOut != want {
			t.Fatalf("a=%v: got garbler=%q evaluator=%q, want %q", a, gOut, eOut, want)
		}
	}
}

// fullAdderCircuit computes (cout, sum) for a 1-bit full adder. Wires
// 0=a, 1=cin are garbler inputs, wire 2=b is the evaluator input.
const fullAdderCircuit = `
8 11 2 1 2
XOR 0 1 3
AND 0 1 4
AND 3 2 5
NOT 4 6
NOT 5 7
AND 6 7 8
NOT 8 9
XOR 3 2 10
`

func TestFullAdder(t *testing.T) {
	circ := mustParse(t, fullAdderCircuit)
	for _, tc := range []struct {
		a, cin, b  bool
		sum, carry bool
	}{
		{false, false, false, false, false},
		{false, false, true, true, false},
		{false, true, false, true, false},
		{false, true, true, false, true},
		{true, false, false, true, false},
		{true, false, true, false, true},
		{true, true, false, false, true},
		{true, true, true, true, true},
	} {
		want := bitStr(tc.carry) + bitStr(tc.sum)
		gOut, eOut, gErr, eErr := runSession(t, circ, []bool{tc.a, tc.cin}, []bool{tc.b})
		if gErr != nil || eErr != nil {
			t.Fatalf("a=%v cin=%v b=%v: gErr=%v eErr=%v", tc.a, tc.cin, tc.b, gErr, eErr)
		}
		if gOut != want || eOut != want {
			t.Fatalf("a=%v cin=%v b=%v: got garbler=%q evaluator=%q, want %q",
				tc.a, tc.cin, tc.b, gOut, eOut, want)
		}
	}
}

func bitStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// TestTamperedTableAborts flips a byte mid-transit on the GarbledTables
// message and checks that at least one side aborts, and that every side
// that aborts reports IntegrityFailure or TransportError.
func TestTamperedTableAborts(t *testing.T) {
	circ := mustParse(t, andCircuit)
	a, b := net.Pipe()
	ta := &tamperConn{Conn: a, tamperAfter: 2}

	var wg sync.WaitGroup
	var gErr, eErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		ch := transport.NewChannel(ta)
		defer ch.Close()
		_, gErr = RunGarbler(ch, circ, []bool{true})
	}()
	go func() {
		defer wg.Done()
		ch := transport.NewChannel(b)
		defer ch.Close()
		_, eErr = RunEvaluator(ch, circ, []bool{true})
	}()
	wg.Wait()

	if gErr == nil && eErr == nil {
		t.Fatal("expected at least one side to abort")
	}
	for _, err := range []error{gErr, eErr} {
		if err == nil {
			continue
		}
		var ae *AbortError
		if !errors.As(err, &ae) {
			t.Fatalf("expected AbortError, got %v", err)
		}
		if ae.Kind != IntegrityFailure && ae.Kind != TransportError {
			t.Fatalf("expected IntegrityFailure or TransportError, got %v", ae.Kind)
		}
	}
}

// tamperConn flips every bit of the last byte in the tamperAfter'th write made on the
// connection, simulating an on-the-wire attacker.
type tamperConn struct {
	net.Conn
	tamperAfter int
	writes      int
	mu          sync.Mutex
}

func (c *tamperConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	c.writes++
	n := c.writes
	c.mu.Unlock()
	if n == c.tamperAfter && len(p) > 8 {
		tampered := make([]byte, len(p))
		copy(tampered, p)
		tampered[len(tampered)-1] ^= 0xff
		return c.Conn.Write(tampered)
	}
	return c.Conn.Write(p)
}

// TestMismatchedEvaluatorInputLengthAbortsBeforeNetwork checks the input
// length is validated before any message is exchanged: closing the peer
// side immediately would turn any network attempt into a transport error,
// so observing InputError here proves no network activity occurred.
func TestMismatchedEvaluatorInputLengthAbortsBeforeNetwork(t *testing.T) {
	circ := mustParse(t, andCircuit)
	a, b := net.Pipe()
	b.Close()
	ch := transport.NewChannel(a)
	defer ch.Close()

	_, err := RunEvaluator(ch, circ, []bool{true, false})
	if err == nil {
		t.Fatal("expected abort")
	}
	var ae *AbortError
	if !errors.As(err, &ae) || ae.Kind != InputError {
		t.Fatalf("expected InputError, got %v", err)
	}
}
