package wire

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoDispatcher struct{}

func (echoDispatcher) Dispatch(raw []byte) []byte {
	resp, _ := Marshal(NewSuccess(&Request{Token: string(raw)}))
	return resp
}

func TestServer_RoundTrip(t *testing.T) {
	srv := &Server{Addr: "127.0.0.1:0", Dispatcher: echoDispatcher{}}

	go func() {
		_ = srv.ListenAndServe()
	}()

	var addr string
	for i := 0; i < 100; i++ {
		addr = srv.ActualAddr()
		if addr != "127.0.0.1:0" && addr != "" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NotEqual(t, "127.0.0.1:0", addr)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("ping\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"status":"success"`)

	require.NoError(t, srv.Close())
	srv.Wait()
}
