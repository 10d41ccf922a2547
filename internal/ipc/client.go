package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Uplink.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Networks retrieves the recently observed network view.
func (c *Client) Networks() (*NetworksResponse, error) {
	var resp NetworksResponse
	if err := c.client.Call("Uplink.Networks", NetworksRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events retrieves recent change events, newest first.
func (c *Client) Events(limit int) (*EventsResponse, error) {
	var resp EventsResponse
	if err := c.client.Call("Uplink.Events", EventsRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
