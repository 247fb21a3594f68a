package mpv

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// observed lists the properties the listener subscribes to.
var observed = []string{"pause", "eof-reached"}

// ipcEvent is an asynchronous message from mpv.
type ipcEvent struct {
	Event string `mapstructure:"event"`
	Name  string `mapstructure:"name"`
	Data  any    `mapstructure:"data"`
}

// listener reads events from a persistent mpv connection.
type listener struct {
	conn   net.Conn
	handle func(ipcEvent)

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// listen opens the event connection and subscribes to property changes.
func listen(socketPath string, handle func(ipcEvent)) (*listener, error) {
	nc, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, errors.Wrap(err, "event listener connect")
	}

	for i, name := range observed {
		payload, err := json.Marshal(ipcCommand{Command: []any{"observe_property", i + 1, name}})
		if err != nil {
			nc.Close()
			return nil, errors.Wrap(err, "marshal")
		}
		if _, err := nc.Write(append(payload, '\n')); err != nil {
			nc.Close()
			return nil, errors.Wrapf(err, "observe %s", name)
		}
	}

	l := &listener{conn: nc, handle: handle, done: make(chan struct{})}
	go l.readLoop()
	return l, nil
}

func (l *listener) readLoop() {
	defer close(l.done)

	scanner := bufio.NewScanner(l.conn)
	scanner.Buffer(make([]byte, 0, 4096), readBufSize)
	for scanner.Scan() {
		ev, ok := decodeEvent(scanner.Bytes())
		if !ok {
			continue
		}
		l.handle(ev)
	}

	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if err := scanner.Err(); err != nil && !closed {
		zlog.Warn().Err(err).Msg("mpv: event listener read error")
	}
}

// decodeEvent parses one line; command replies and garbage are skipped.
func decodeEvent(line []byte) (ipcEvent, bool) {
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return ipcEvent{}, false
	}
	if _, ok := raw["event"]; !ok {
		return ipcEvent{}, false
	}

	var ev ipcEvent
	if err := mapstructure.Decode(raw, &ev); err != nil {
		return ipcEvent{}, false
	}
	return ev, true
}

// close stops the read loop and waits for it.
func (l *listener) close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.conn.Close()
	<-l.done
}
