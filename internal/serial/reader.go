package serial

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Reader pulls the printer's output off the port line by line and hands
// each line to the Parser.
//
// The underlying Read has no timeout; stopping the loop is done by
// closing the port, which the caller owns.
type Reader struct {
	src    io.Reader
	parser *Parser
	logger Logger

	// onError is invoked once when the read loop dies on a port error.
	onError func(err error)
}

// NewReader creates a reader feeding parser from src.
func NewReader(src io.Reader, parser *Parser) *Reader {
	return &Reader{
		src:    src,
		parser: parser,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the reader.
func (r *Reader) SetLogger(logger Logger) {
	r.logger = logger
}

// SetOnError registers a callback for read failures, fired before Run
// returns. Used to raise the serial-error override.
func (r *Reader) SetOnError(fn func(err error)) {
	r.onError = fn
}

// Run consumes the port until it fails or the context is cancelled.
// It returns ErrPortClosed when the port goes away mid-read.
func (r *Reader) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.src)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		r.logger.Debug("printer output", "line", line)
		r.parser.Decide(line)
	}

	if ctx.Err() != nil {
		return nil
	}

	err := scanner.Err()
	if err == nil {
		// EOF without a scanner error: the port was closed on us.
		err = ErrPortClosed
	}
	r.logger.Error("serial read loop ended", "error", err)
	if r.onError != nil {
		r.onError(err)
	}
	return err
}
