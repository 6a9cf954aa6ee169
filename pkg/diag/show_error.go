package diag

import (
	"fmt"
	"io"
)

// ShowError writes an error to w. It uses the Show method if the error
// implements Shower; other errors are shown as their message in bold red.
func ShowError(w io.Writer, err error) {
	if shower, ok := err.(Shower); ok {
		fmt.Fprintln(w, shower.Show(""))
	} else {
		fmt.Fprintf(w, "\033[31;1m%s\033[m\n", err.Error())
	}
}
