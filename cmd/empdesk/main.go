package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/phillip-england/empdesk/internal/empdeskcli"
)

func main() {
	if err := empdeskcli.Execute(os.Args[1:]); err != nil {
		if errors.Is(err, empdeskcli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr)
			empdeskcli.PrintUsage(os.Stderr)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
