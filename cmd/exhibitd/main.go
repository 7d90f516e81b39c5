// Command exhibitd runs the forensic exhibit register.
package main

import (
	_ "time/tzdata"

	"exhibitcore/internal/cli"
)

func main() {
	cli.Execute()
}
