package main

import (
	"github.com/lockplane/sqlrunner/cmd"
)

func main() {
	cmd.Execute()
}
