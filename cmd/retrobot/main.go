package main

import (
	"fmt"
	"os"

	"github.com/tbourn/go-retrobot/internal/command"
)

//go:generate swag init -g cmd/retrobot/main.go -d ../../ -o ../../internal/http/docs

// @title        retrobot report API
// @version      1.0
// @description  Read-only access to recorded retro feedback and channel summaries.
// @BasePath     /api/v1
func main() {
	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
