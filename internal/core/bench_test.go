package core

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := DefaultOptions()
	opts.MaxClients = recipients + 1
	opts.PipeCapacity = 1024
	r := NewRouter(opts, nil, nil)
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	dial := func(name string) (net.Conn, *bufio.Reader) {
		server, client := net.Pipe()
		if err := r.Admit(ctx, server); err != nil {
			b.Fatal(err)
		}
		if _, err := client.Write([]byte(name + "\n/join bench\n")); err != nil {
			b.Fatal(err)
		}
		return client, bufio.NewReader(client)
	}

	sender, _ := dial("sender")
	var target *bufio.Reader
	for i := range recipients {
		conn, reader := dial("client" + strconv.Itoa(i))
		if i == 0 {
			target = reader
			continue
		}
		// Drain everyone but the first recipient to avoid backpressure.
		go func(c net.Conn) {
			buf := make([]byte, 4096)
			for {
				if _, err := c.Read(buf); err != nil {
					return
				}
			}
		}(conn)
	}

	for {
		st, err := r.Stats(ctx)
		if err != nil {
			b.Fatal(err)
		}
		joined := 0
		for _, w := range st.Workers {
			if w.Room == "bench" {
				joined++
			}
		}
		if joined == recipients+1 {
			break
		}
	}

	payload := []byte("payload\n")
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := sender.Write(payload); err != nil {
			b.Fatal(err)
		}
		if _, err := target.ReadString('\n'); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
