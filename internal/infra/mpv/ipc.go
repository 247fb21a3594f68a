package mpv

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	readDeadline = 2 * time.Second
	readBufSize  = 64 * 1024
)

// errPropertyUnavailable is mpv's answer for properties of unloaded media.
var errPropertyUnavailable = errors.New("property unavailable")

type ipcCommand struct {
	Command []any `json:"command"`
}

type ipcResponse struct {
	Data  any    `json:"data"`
	Error string `json:"error"`
}

// conn sends single IPC commands to an mpv socket.
type conn struct {
	socketPath string
	mu         sync.Mutex
}

// send performs one command on a fresh connection.
func (c *conn) send(command ...any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nc, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	defer nc.Close()

	payload, err := json.Marshal(ipcCommand{Command: command})
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}
	// mpv reads newline-delimited JSON
	if _, err := nc.Write(append(payload, '\n')); err != nil {
		return nil, errors.Wrap(err, "write")
	}

	if err := nc.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return nil, errors.Wrap(err, "set deadline")
	}

	// Events are broadcast to every client; skip lines until the reply,
	// the first one carrying an "error" field.
	r := bufio.NewReaderSize(nc, readBufSize)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			var resp ipcResponse
			if json.Unmarshal(line, &resp) == nil && resp.Error != "" {
				return replyData(resp)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("no reply from mpv")
			}
			return nil, errors.Wrap(err, "read")
		}
	}
}

func replyData(resp ipcResponse) (any, error) {
	switch resp.Error {
	case "success":
		return resp.Data, nil
	case "property unavailable":
		return nil, errPropertyUnavailable
	default:
		return nil, errors.Newf("mpv error: %s", resp.Error)
	}
}

// number reads a numeric property.
func (c *conn) number(name string) (float64, error) {
	data, err := c.send("get_property", name)
	if err != nil {
		return 0, err
	}
	v, ok := data.(float64)
	if !ok {
		return 0, errors.Newf("property %s: expected number, got %T", name, data)
	}
	return v, nil
}

// flag reads a flag property.
func (c *conn) flag(name string) (bool, error) {
	data, err := c.send("get_property", name)
	if err != nil {
		return false, err
	}
	v, ok := data.(bool)
	if !ok {
		return false, errors.Newf("property %s: expected bool, got %T", name, data)
	}
	return v, nil
}
