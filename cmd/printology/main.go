// Command printology runs and operates the Printology storefront backend.
//
//	printology serve            start the HTTP server
//	printology ask <question>   ask the shop assistant once
//	printology check            verify the assistant key and backend
//	printology mock             run the mock AI and mail backend
//	printology token            mint an operator JWT
package main

import (
	"fmt"
	"os"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
