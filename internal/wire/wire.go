// Package wire implements the line-delimited request/response protocol.
//
// A request is a 2-digit action code followed by ';'-separated fields,
// terminated by '\n'. A response is the 3-character status token directly
// followed by the first field (no separator in between), remaining fields
// ';'-separated, '\n'-terminated. Neither separator may appear inside a
// field value; there is no escaping.
package wire

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Separator  = ";"
	Terminator = '\n'

	StatusAccepted = "SUC"
	StatusRejected = "ERR"
)

// FramingError reports a connection that closed before a terminator
// arrived. The request is aborted; nothing is written back.
type FramingError struct {
	Err error
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("connection closed before terminator: %v", e.Err)
}

func (e *FramingError) Unwrap() error { return e.Err }

// ErrMalformed reports a frame whose action code or field layout cannot be
// parsed. The dispatcher answers with a bare rejection.
var ErrMalformed = fmt.Errorf("malformed request")

// ReadFrame reads from r until the terminator and returns the frame without
// it. There is no read deadline; a silent client blocks the server.
func ReadFrame(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString(Terminator)
	if err != nil {
		return "", &FramingError{Err: err}
	}
	return strings.TrimSuffix(line, string(Terminator)), nil
}

// ParseRequest splits a frame into its action code and data fields.
func ParseRequest(frame string) (code int, fields []string, err error) {
	if len(frame) < 2 {
		return 0, nil, ErrMalformed
	}
	code, err = strconv.Atoi(frame[:2])
	if err != nil {
		return 0, nil, ErrMalformed
	}
	rest := frame[2:]
	if rest == "" {
		return code, nil, nil
	}
	return code, strings.Split(rest, Separator), nil
}

// Accepted serializes a success response.
func Accepted(fields ...string) string {
	return StatusAccepted + strings.Join(fields, Separator) + string(Terminator)
}

// Rejected serializes a failure response. An empty reason yields the bare
// rejection used for protocol-level errors.
func Rejected(reason string) string {
	return StatusRejected + reason + string(Terminator)
}

// FormatAmount renders a money amount with two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatCount renders the element-count field preceding repeated groups.
func FormatCount(n int) string {
	return strconv.Itoa(n)
}
