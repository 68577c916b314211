// network/connection.go
package network

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MaxPayloadSize bounds a single frame; anything larger is treated as a
// protocol violation and the connection is dropped.
const MaxPayloadSize = 65536

const headerSize = 6 // 2-byte type + 4-byte length

// writeTimeout bounds a single outbound write. Sends can run under game
// locks, so a peer that stops draining its socket must fail fast instead
// of wedging the caller; the read loop then reaps the connection.
var writeTimeout = 10 * time.Second

// Packet is one decoded frame: [2 bytes type][4 bytes length][payload].
type Packet struct {
	Type uint16
	Data []byte
}

// Connection abstracts a framed client link so the rest of the server does
// not care whether the client arrived over raw TCP or a websocket.
type Connection interface {
	Send(msgType uint16, data []byte) error
	ReadPacket() (*Packet, error)
	Close() error
	RemoteAddr() net.Addr
}

// ErrPayloadTooLarge is returned when a frame declares a payload beyond
// MaxPayloadSize.
var ErrPayloadTooLarge = fmt.Errorf("payload exceeds %d bytes", MaxPayloadSize)

func encodeFrame(msgType uint16, data []byte) []byte {
	frame := make([]byte, headerSize+len(data))
	binary.BigEndian.PutUint16(frame[0:2], msgType)
	binary.BigEndian.PutUint32(frame[2:6], uint32(len(data)))
	copy(frame[headerSize:], data)
	return frame
}

// TCPConnection frames packets over a raw TCP stream.
type TCPConnection struct {
	conn      net.Conn
	reader    *bufio.Reader
	sendMutex sync.Mutex
}

func NewTCPConnection(conn net.Conn) *TCPConnection {
	return &TCPConnection{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

func (c *TCPConnection) Send(msgType uint16, data []byte) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := c.conn.Write(encodeFrame(msgType, data))
	return err
}

func (c *TCPConnection) ReadPacket() (*Packet, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(c.reader, header[:]); err != nil {
		return nil, err
	}

	msgType := binary.BigEndian.Uint16(header[0:2])
	length := binary.BigEndian.Uint32(header[2:6])

	if length > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(c.reader, data); err != nil {
		return nil, err
	}

	return &Packet{Type: msgType, Data: data}, nil
}

func (c *TCPConnection) Close() error {
	return c.conn.Close()
}

func (c *TCPConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// WSConnection carries the same frames inside websocket binary messages,
// one frame per message.
type WSConnection struct {
	conn      *websocket.Conn
	sendMutex sync.Mutex
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	return &WSConnection{conn: conn}
}

func (c *WSConnection) Send(msgType uint16, data []byte) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.BinaryMessage, encodeFrame(msgType, data))
}

func (c *WSConnection) ReadPacket() (*Packet, error) {
	_, frame, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	if len(frame) < headerSize {
		return nil, io.ErrShortBuffer
	}

	msgType := binary.BigEndian.Uint16(frame[0:2])
	length := binary.BigEndian.Uint32(frame[2:6])

	if length > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	if len(frame) < int(headerSize+length) {
		return nil, io.ErrShortBuffer
	}

	return &Packet{Type: msgType, Data: frame[headerSize : headerSize+length]}, nil
}

func (c *WSConnection) Close() error {
	return c.conn.Close()
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
