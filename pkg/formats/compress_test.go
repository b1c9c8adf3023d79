package formats

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestInflateDeflate_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	noise := make([]byte, 4096)
	rng.Read(noise)

	inputs := map[string][]byte{
		"empty":      {},
		"one byte":   {0x42},
		"repetitive": bytes.Repeat([]byte("brick_d"), 500),
		"noise":      noise,
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			z, err := Deflate(data, DefaultCompressionLevel)
			if err != nil {
				t.Fatalf("Deflate failed: %v", err)
			}
			got, err := Inflate(z, len(data))
			if err != nil {
				t.Fatalf("Inflate failed: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Error("round trip mismatch")
			}
		})
	}
}

func TestInflate_Errors(t *testing.T) {
	z, err := Deflate([]byte("short"), DefaultCompressionLevel)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Inflate(z, 64); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("oversized target: got %v, want ErrTruncatedData", err)
	}
	if _, err := Inflate([]byte{1, 2, 3}, 3); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("garbage stream: got %v, want ErrTruncatedData", err)
	}
	if _, err := Inflate(z, -1); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("negative size: got %v, want ErrInvalidFormat", err)
	}
}

func TestPackCompressed(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4}, 64)
	packed, err := packCompressed(data, DefaultCompressionLevel)
	if err != nil {
		t.Fatal(err)
	}
	if packed[0] != 0 || packed[1] != 1 || packed[2] != 0 || packed[3] != 0 {
		t.Errorf("size prefix = % x, want 00 01 00 00", packed[:4])
	}

	got, err := unpackCompressed(packed)
	if err != nil {
		t.Fatalf("unpackCompressed failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("unpacked data mismatch")
	}

	if _, err := unpackCompressed([]byte{1, 0}); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("short prefix: got %v", err)
	}
}
