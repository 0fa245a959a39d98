package cache

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeMemcached speaks enough of the memcached text protocol for the client:
// get/gets, set and delete.
type fakeMemcached struct {
	ln    net.Listener
	mu    sync.Mutex
	items map[string][]byte
}

func newFakeMemcached(t *testing.T) *fakeMemcached {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeMemcached{ln: ln, items: make(map[string][]byte)}
	go f.serve()
	t.Cleanup(func() { ln.Close() })
	return f
}

func (f *fakeMemcached) Addr() string {
	return f.ln.Addr().String()
}

func (f *fakeMemcached) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	return keys
}

func (f *fakeMemcached) Put(key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[key] = value
}

func (f *fakeMemcached) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeMemcached) handle(conn net.Conn) {
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	for {
		line, err := rw.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "get", "gets":
			f.mu.Lock()
			for _, key := range fields[1:] {
				if v, ok := f.items[key]; ok {
					fmt.Fprintf(rw, "VALUE %s 0 %d 1\r\n", key, len(v))
					rw.Write(v)
					rw.WriteString("\r\n")
				}
			}
			f.mu.Unlock()
			rw.WriteString("END\r\n")

		case "set":
			if len(fields) < 5 {
				rw.WriteString("ERROR\r\n")
				break
			}
			n, err := strconv.Atoi(fields[4])
			if err != nil {
				return
			}
			data := make([]byte, n+2)
			if _, err := io.ReadFull(rw, data); err != nil {
				return
			}
			f.Put(fields[1], data[:n])
			rw.WriteString("STORED\r\n")

		case "delete":
			f.mu.Lock()
			_, ok := f.items[fields[1]]
			delete(f.items, fields[1])
			f.mu.Unlock()
			if ok {
				rw.WriteString("DELETED\r\n")
			} else {
				rw.WriteString("NOT_FOUND\r\n")
			}

		default:
			rw.WriteString("ERROR\r\n")
		}

		if err := rw.Flush(); err != nil {
			return
		}
	}
}
