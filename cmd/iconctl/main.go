// Package main provides iconctl, the administration CLI of the board icon server.
//
// It works directly on the database and application directory, so it can be
// used while the server is stopped. With the badger staging backend the
// server must be stopped: badger allows only one process at a time.
//
// Usage:
//
//	iconctl regenerate [--check]
//	iconctl sweep [--older-than 24h]
//	iconctl icons list
//	iconctl export [file]
//	iconctl import <file>
package main

import (
	"os"
)

func main() {
	err := rootCmd.Execute()
	if cerr := closeApp(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		os.Exit(1)
	}
}
