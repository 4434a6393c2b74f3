package ipc

import "net"

// Client is the thin dialer side of the protocol used by the CLI's attach
// command: it owns one socket to the server and turns it into a channel of
// decoded messages plus a synchronous Send.
type Client struct {
	nc net.Conn
}

// Dial connects to the server listening at sockPath.
func Dial(sockPath string) (*Client, error) {
	nc, err := net.Dial("unix", sockPath)
	if err != nil {
		return nil, err
	}
	return &Client{nc: nc}, nil
}

// Send writes one framed message to the server.
func (c *Client) Send(msgType MessageType, flags uint16, payload []byte) error {
	return WriteMessage(c.nc, msgType, flags, payload)
}

// Receive blocks until the server writes the next message.
func (c *Client) Receive() (Message, error) {
	return ReadMessage(c.nc)
}

// Messages returns a channel fed by a background goroutine calling
// Receive in a loop, until the connection errors or is closed; the channel
// is then closed. Used by the attach command to drive a select loop
// alongside os.Stdin reads.
func (c *Client) Messages() <-chan Message {
	ch := make(chan Message, 16)
	go func() {
		defer close(ch)
		for {
			msg, err := c.Receive()
			if err != nil {
				return
			}
			ch <- msg
		}
	}()
	return ch
}

// Close closes the connection to the server.
func (c *Client) Close() error {
	return c.nc.Close()
}
