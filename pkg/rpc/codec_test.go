package rpc

import (
	"testing"

	"google.golang.org/grpc/encoding"
)

func TestJSONCodecRegistered(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	if codec == nil {
		t.Fatal("json codec not registered")
	}

	in := &BookSeatRequest{SessionToken: "tok", ShowID: "hamlet", SeatID: 7, CardNumber: "4242"}
	data, err := codec.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	out := new(BookSeatRequest)
	if err := codec.Unmarshal(data, out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if *out != *in {
		t.Fatalf("round trip changed the message: %+v != %+v", out, in)
	}
}
