// Package main is the entry point for the vocalcollab server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
//  1. Read configuration (environment, optional .env file)
//  2. Create the logger
//  3. Hand over to the command the user asked for
//
// All actual logic lives in imported packages (internal/server,
// internal/service, ...).
//
// WHY COBRA?
// The binary does more than serve HTTP: it also creates the schema and
// removes accounts from the command line. cobra gives each job its own
// subcommand, flags and --help for free:
//
//	vocalcollab                     # same as "vocalcollab serve"
//	vocalcollab serve
//	vocalcollab migrate
//	vocalcollab deleteuser alice
package main

import (
	"os"
)

func main() {
	// cobra has already printed the error by the time Execute returns it.
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
