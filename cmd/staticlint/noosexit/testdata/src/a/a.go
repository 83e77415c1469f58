package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("shutting down")
	os.Exit(1) // want "avoid using os.Exit in main.main"
}

// helper is not main.main, so an os.Exit call here is not reported.
func helper() {
	os.Exit(2)
}
