//
// Copyright (c) 2019-2024 Markku Rossi
//
// All rights reserved.
//

// Command garbled runs one side of a two-party Yao garbled-circuit
// session: garbler or evaluator, listening or connecting over TCP.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/markkurossi/tabulate"

	"github.com/gogarble/yaogc/circuit"
	"github.com/gogarble/yaogc/session"
	"github.com/gogarble/yaogc/transport"
)

func main() {
	var (
		role      = flag.String("role", "", "garbler or evaluator")
		circFile  = flag.String("circuit", "", "circuit file")
		inputFile = flag.String("input", "", "input bits file ('0'/'1' characters)")
		listen    = flag.String("listen", "", "listen address, garbler side")
		connect   = flag.String("connect", "", "peer address, evaluator side")
		verbose   = flag.Bool("v", false, "verbose phase timing")
	)
	flag.Parse()

	if err := run(*role, *circFile, *inputFile, *listen, *connect, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "garbled: %v\n", err)
		os.Exit(1)
	}
}

func run(role, circFile, inputFile, listen, connect string, verbose bool) error {
	if circFile == "" {
		return errors.New("-circuit is required")
	}
	circ, err := circuit.Parse(circFile)
	if err != nil {
		return fmt.Errorf("parsing circuit: %w", err)
	}
	var input []bool
	if inputFile != "" {
		input, err = circuit.ParseInput(inputFile)
		if err != nil {
			return fmt.Errorf("parsing input: %w", err)
		}
	}

	start := time.Now()

	var conn net.Conn
	switch role {
	case "garbler":
		if listen == "" {
			return errors.New("-listen is required for the garbler")
		}
		ln, err := net.Listen("tcp", listen)
		if err != nil {
			return err
		}
		defer ln.Close()
		if verbose {
			log.Printf("listening on %s", listen)
		}
		conn, err = ln.Accept()
		if err != nil {
			return err
		}
	case "evaluator":
		if connect == "" {
			return errors.New("-connect is required for the evaluator")
		}
		conn, err = net.Dial("tcp", connect)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown -role %q, want garbler or evaluator", role)
	}
	defer conn.Close()

	if verbose {
		log.Printf("connected to %s", conn.RemoteAddr())
	}

	ch := transport.NewChannel(conn)
	defer ch.Close()

	var out string
	switch role {
	case "garbler":
		out, err = session.RunGarbler(ch, circ, input)
	case "evaluator":
		out, err = session.RunEvaluator(ch, circ, input)
	}
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	elapsed := time.Since(start)
	if verbose {
		log.Printf("session completed in %s", elapsed)
	}

	fmt.Printf("output: %s\n", out)
	printStats(circ, ch.Stats, elapsed)
	return nil
}

func printStats(circ *circuit.Circuit, stats transport.Stats, elapsed time.Duration) {
	tab := tabulate.New(tabulate.Unicode)
	tab.Header("Metric")
	tab.Header("Value").SetAlign(tabulate.MR)

	row := tab.Row()
	row.Column("Gates")
	row.Column(fmt.Sprintf("%d", circ.NumGates))

	row = tab.Row()
	row.Column("AND gates")
	row.Column(fmt.Sprintf("%d", circ.Stats[circuit.AND]))

	row = tab.Row()
	row.Column("XOR gates")
	row.Column(fmt.Sprintf("%d", circ.Stats[circuit.XOR]))

	row = tab.Row()
	row.Column("NOT gates")
	row.Column(fmt.Sprintf("%d", circ.Stats[circuit.NOT]))

	row = tab.Row()
	row.Column("Bytes sent")
	row.Column(fmt.Sprintf("%d", stats.Sent))

	row = tab.Row()
	row.Column("Bytes received")
	row.Column(fmt.Sprintf("%d", stats.Recvd))

	row = tab.Row()
	row.Column("Elapsed")
	row.Column(elapsed.String())

	tab.Print(os.Stdout)
}
