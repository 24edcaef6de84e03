package flightlog

import (
	"bufio"
	"fmt"
	"io"
)

// WriteHexLog renders a raw binary log in the container format produced by
// the recorder's dump firmware: a start marker with the byte count, one line
// of "%02X " groups per record, and an end marker.
func WriteHexLog(w io.Writer, data []byte) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "start %d\n", len(data))
	for _, frame := range SplitRecords(data) {
		for _, b := range frame {
			fmt.Fprintf(bw, "%02X ", b)
		}
		bw.WriteString("\n")
	}
	bw.WriteString("end\n")
	return bw.Flush()
}
