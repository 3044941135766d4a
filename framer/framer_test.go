package framer

import (
	"errors"
	"reflect"
	"testing"
)

func TestDefaultPacketSizes(t *testing.T) {
	tests := []struct {
		bitrate int
		size    int
	}{
		{3200, 8},
		{6000, 15},
		{9200, 23},
	}

	for _, tc := range tests {
		size, err := PacketSizeForBitrate(tc.bitrate)
		if err != nil {
			t.Fatalf("bitrate %d: %v", tc.bitrate, err)
		}
		if size != tc.size {
			t.Errorf("bitrate %d: got packet size %d, want %d", tc.bitrate, size, tc.size)
		}
	}
}

func TestUnsupportedBitrate(t *testing.T) {
	for _, b := range []int{0, -1, 3000, 64000} {
		if _, err := PacketSizeForBitrate(b); !errors.Is(err, ErrUnsupportedBitrate) {
			t.Errorf("bitrate %d: expected ErrUnsupportedBitrate, got %v", b, err)
		}
	}
}

func TestNewRejectsFractionalPackets(t *testing.T) {
	if _, err := New(50, 3300); err == nil {
		t.Fatal("expected error for a bitrate which doesn't fit into whole bytes")
	}
	if _, err := New(0, 3200); err == nil {
		t.Fatal("expected error for frame rate 0")
	}
	if _, err := New(50); err == nil {
		t.Fatal("expected error for empty bitrate table")
	}
}

func TestBitratesSortedCopy(t *testing.T) {
	f := MustNew(50, 9200, 3200, 6000, 3200)
	got := f.Bitrates()
	want := []int{3200, 6000, 9200}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	got[0] = 1
	if f.Bitrates()[0] != 3200 {
		t.Fatal("Bitrates must return a copy")
	}
}

func TestSplit(t *testing.T) {
	f := Default()
	stream := make([]byte, 3*15)
	for i := range stream {
		stream[i] = byte(i)
	}

	packets, err := f.Split(stream, 6000)
	if err != nil {
		t.Fatal(err)
	}
	if len(packets) != 3 {
		t.Fatalf("expected 3 packets, got %d", len(packets))
	}
	for i, p := range packets {
		if len(p) != 15 {
			t.Errorf("packet %d: got %d bytes", i, len(p))
		}
		if p[0] != byte(i*15) {
			t.Errorf("packet %d: starts with %d", i, p[0])
		}
	}
}

func TestSplitEmpty(t *testing.T) {
	packets, err := Default().Split(nil, 3200)
	if err != nil {
		t.Fatal(err)
	}
	if len(packets) != 0 {
		t.Fatalf("expected no packets, got %d", len(packets))
	}
}

func TestSplitTruncated(t *testing.T) {
	_, err := Default().Split(make([]byte, 17), 3200)
	if !errors.Is(err, ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got %v", err)
	}
}
