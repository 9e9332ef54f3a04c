package netx

import (
	"net"

	"github.com/go-ring/ringkit/connstate"
	"github.com/go-ring/ringkit/netbuf"
)

var _ Conn = &conn{}

type Conn interface {
	// Conn is extended to provide the native interfaces of net.Conn.
	// NOT recommended to directly call the Write/Read interface.
	// Instead, calling the Reader and Writer to implement higher-performance
	// user mode zero-copy read/writes.
	net.Conn

	// Reader returns netbuf.FrameReader for nocopy reading.
	Reader() netbuf.FrameReader
	// Writer returns netbuf.FrameWriter for nocopy writing.
	Writer() netbuf.FrameWriter

	// State returns the state of a connection.
	State() connstate.ConnState
}

type conn struct {
	net.Conn
	stater connstate.ConnStater

	reader netbuf.FrameReader
	writer netbuf.FrameWriter
}

func (c *conn) Reader() netbuf.FrameReader {
	return c.reader
}

func (c *conn) Writer() netbuf.FrameWriter {
	return c.writer
}

func (c *conn) State() connstate.ConnState {
	return c.stater.State()
}

func (c *conn) Close() error {
	_ = c.stater.Close()
	return c.Conn.Close()
}

func Wrap(cn net.Conn) (Conn, error) {
	stater, err := connstate.ListenConnState(cn)
	if err != nil {
		return nil, err
	}
	return &conn{
		Conn:   cn,
		stater: stater,
		reader: netbuf.NewReader(cn),
		writer: netbuf.NewWriter(cn),
	}, nil
}
