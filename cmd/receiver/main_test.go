package main

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/client"
	"chatrelay/internal/protocol"
)

func TestRunPlain(t *testing.T) {
	a, b := net.Pipe()
	srv := protocol.NewConn(b)

	go func() {
		var m protocol.Message
		srv.Receive(&m)
		srv.Send(protocol.New(protocol.TagOK, "successfully joined room"))
		srv.Send(protocol.New(protocol.TagDelivery, "general:alice:hi"))
		srv.Send(protocol.New(protocol.TagDelivery, "random:carol:not for us"))
		srv.Send(protocol.New(protocol.TagDelivery, "general:dave:a:b"))
		srv.Close()
	}()

	r := client.NewReceiver(protocol.NewConn(a))
	require.NoError(t, r.Join("general"))

	var out bytes.Buffer
	assert.Error(t, runPlain(r, &out))
	assert.Equal(t, "alice: hi\ndave: a:b\n", out.String())
}
