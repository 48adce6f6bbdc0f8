package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/dropgate/internal/naming"
)

func classifyCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("at least one file name is required", 2)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCLASSIFICATION\tREMOTE KEY")
	for _, name := range c.Args().Slice() {
		class := naming.Classify(name)
		key := "-"
		if class != naming.Invalid {
			key = naming.RemoteKey(name)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, class, key)
	}
	return w.Flush()
}
