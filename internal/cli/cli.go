package cli

import (
	"context"
	"io"
)

// Execute runs the command tree with args and returns the process exit code.
func Execute(args []string, out io.Writer, errOut io.Writer) int {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	if err := root.ExecuteContext(context.Background()); err != nil {
		return 1
	}
	return 0
}
