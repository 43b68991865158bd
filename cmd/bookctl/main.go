package main

import (
	"os"

	"github.com/Lelo88/book-management-api/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
