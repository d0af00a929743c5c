package ai

import (
	"bufio"
	"io"
	"strings"
)

// DoneSentinel terminates an OpenAI-style SSE stream.
const DoneSentinel = "[DONE]"

// SSEDecoder yields "data:" payloads from an event stream.
//
// It buffers partial trailing bytes across network reads, so the payload
// sequence it produces does not depend on where the transport happened to
// split the byte stream. Non-payload lines (comments, event names, blanks)
// are ignored. It returns io.EOF when the underlying body ends; a body that
// ends before the sentinel is still a normal end of stream.
type SSEDecoder struct {
	r *bufio.Reader
}

func NewSSEDecoder(r io.Reader) *SSEDecoder {
	return &SSEDecoder{r: bufio.NewReader(r)}
}

// NextData returns the next data payload, or io.EOF at end of stream.
func (d *SSEDecoder) NextData() (string, error) {
	for {
		line, err := d.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}

		trimmed := strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(trimmed, "data:") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "data:")), nil
		}

		if err == io.EOF {
			return "", io.EOF
		}
	}
}
