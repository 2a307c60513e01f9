package iocontext

import (
	"context"
	"fmt"
	"io"
	"testing"
)

func TestDefaultIO(t *testing.T) {
	streams := DefaultIO()
	if streams.Out == nil || streams.ErrOut == nil || streams.In == nil {
		t.Error("DefaultIO should return non-nil streams")
	}
}

func TestWithIO(t *testing.T) {
	streams, out, _ := Buffered("")
	ctx := WithIO(context.Background(), streams)

	_, _ = fmt.Fprint(GetIO(ctx).Out, "hello")
	if out.String() != "hello" {
		t.Errorf("expected output in buffer, got %q", out.String())
	}
}

func TestBufferedStdin(t *testing.T) {
	streams, _, errOut := Buffered(`{"a":1}`)
	data, err := io.ReadAll(streams.In)
	if err != nil {
		t.Fatalf("read stdin: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("unexpected stdin %q", data)
	}
	if errOut.Len() != 0 {
		t.Error("stderr buffer should start empty")
	}
}

func TestGetIO_DefaultsWhenNotSet(t *testing.T) {
	if GetIO(context.Background()) == nil {
		t.Error("GetIO should return default IO when not set")
	}
	if GetIO(WithIO(context.Background(), nil)) == nil {
		t.Error("GetIO should ignore a nil IO")
	}
}
