// util/util_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"errors"
	"io"
	"net"
	"net/rpc"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestSelect(t *testing.T) {
	if Select(true, 1, 2) != 1 || Select(false, 1, 2) != 2 {
		t.Errorf("Select returned the wrong value")
	}
}

func TestSortedMapKeys(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}
	if keys := SortedMapKeys(m); !slices.Equal(keys, []string{"a", "b", "c"}) {
		t.Errorf("got keys %v, expected [a b c]", keys)
	}
}

func TestErrorLogger(t *testing.T) {
	var e ErrorLogger
	e.Push("KJFK")
	e.Push("SID SKORR5")
	e.ErrorString("bad leg %d", 3)
	e.Pop()
	if e.CurrentDepth() != 1 {
		t.Errorf("got depth %d, expected 1", e.CurrentDepth())
	}
	e.Pop()

	if !e.HaveErrors() {
		t.Fatalf("expected errors")
	}
	if s := e.String(); s != "KJFK / SID SKORR5: bad leg 3" {
		t.Errorf("got %q", s)
	}

	errBad := errors.New("bad fix")
	e.Error(errBad)
	if !errors.Is(e.Err(), errBad) {
		t.Errorf("got %v, expected %v to be wrapped", e.Err(), errBad)
	}
	if s := e.Errors()[1].Error(); s != "bad fix" {
		t.Errorf("got %q, expected no context", s)
	}
}

type testObject struct {
	Name   string
	Values []float32
	Nested map[string]int
}

func TestEncodeDecodeCompressed(t *testing.T) {
	in := testObject{Name: "plan", Values: []float32{1, 2.5, -3}, Nested: map[string]int{"a": 1}}

	var buf bytes.Buffer
	if err := EncodeCompressed(&buf, in); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var out testObject
	if err := DecodeCompressed(&buf, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Name != in.Name || !slices.Equal(out.Values, in.Values) || out.Nested["a"] != 1 {
		t.Errorf("got %+v, expected %+v", out, in)
	}

	if err := DecodeCompressed(bytes.NewReader([]byte("not zstd")), &out); err == nil {
		t.Errorf("expected error decoding garbage")
	}
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(plain, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	zw, _ := zstd.NewWriter(nil)
	compressed := filepath.Join(dir, "b.txt.zst")
	if err := os.WriteFile(compressed, zw.EncodeAll([]byte("hello"), nil), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, fn := range []string{plain, compressed} {
		r, err := OpenFile(fn)
		if err != nil {
			t.Fatalf("%s: %v", fn, err)
		}
		b, err := io.ReadAll(r)
		r.Close()
		if err != nil || string(b) != "hello" {
			t.Errorf("%s: got %q (%v), expected \"hello\"", fn, b, err)
		}
	}
}

type Echo struct{}

type EchoArgs struct {
	Text  string
	Count int
}

func (Echo) Repeat(args EchoArgs, reply *string) error {
	for range args.Count {
		*reply += args.Text
	}
	return nil
}

func TestMessagepackRPC(t *testing.T) {
	server := rpc.NewServer()
	if err := server.Register(Echo{}); err != nil {
		t.Fatal(err)
	}

	sc, cc := net.Pipe()
	go server.ServeCodec(MakeLoggingServerCodec("test", MakeMessagepackServerCodec(sc, nil), nil))

	client := rpc.NewClientWithCodec(MakeLoggingClientCodec("test", MakeMessagepackClientCodec(cc), nil))
	defer client.Close()

	var reply string
	if err := client.Call("Echo.Repeat", EchoArgs{Text: "ab", Count: 3}, &reply); err != nil {
		t.Fatalf("call: %v", err)
	}
	if reply != "ababab" {
		t.Errorf("got %q, expected \"ababab\"", reply)
	}

	if err := client.Call("Echo.Missing", EchoArgs{}, &reply); err == nil {
		t.Errorf("expected error calling unknown method")
	}
}

func TestCompressedConnRPC(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("unable to listen: %v", err)
	}
	defer l.Close()

	server := rpc.NewServer()
	if err := server.Register(Echo{}); err != nil {
		t.Fatal(err)
	}
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		cc, err := MakeCompressedConn(conn)
		if err != nil {
			t.Error(err)
			return
		}
		server.ServeCodec(MakeMessagepackServerCodec(cc, nil))
	}()

	conn, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	cc, err := MakeCompressedConn(conn)
	if err != nil {
		t.Fatal(err)
	}
	client := rpc.NewClientWithCodec(MakeMessagepackClientCodec(cc))
	defer client.Close()

	for _, count := range []int{1, 100, 5000} {
		var reply string
		if err := client.Call("Echo.Repeat", EchoArgs{Text: "xyz", Count: count}, &reply); err != nil {
			t.Fatalf("call: %v", err)
		}
		if len(reply) != 3*count || reply[:3] != "xyz" {
			t.Errorf("got %d byte reply, expected %d", len(reply), 3*count)
		}
	}
}

func TestLoggingMutex(t *testing.T) {
	a, b := &LoggingMutex{Name: "a"}, &LoggingMutex{Name: "b"}
	b.Lock(nil)
	a.Lock(nil)
	if h := HeldMutexes(); !slices.Equal(h, []string{"a", "b"}) {
		t.Errorf("got held %v, expected [a b]", h)
	}

	done := make(chan struct{})
	go func() {
		a.Lock(nil)
		a.Unlock(nil)
		close(done)
	}()
	a.Unlock(nil)
	<-done

	b.Unlock(nil)
	if h := HeldMutexes(); len(h) != 0 {
		t.Errorf("got held %v, expected none", h)
	}
}
