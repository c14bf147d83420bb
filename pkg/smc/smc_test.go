package smc

import (
	"bytes"
	"testing"
)

func newTestController(t *testing.T, cfg Config) (*Controller, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	c, err := New(buf, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return c, buf
}

func TestNewExitsSafeStart(t *testing.T) {
	_, buf := newTestController(t, Config{LeftDevice: 13, RightDevice: 14, MaxSpeed: 6000})
	expected := []byte{0xaa, 13, 0x03, 0xaa, 14, 0x03}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Fatalf("Got % x, expected % x", buf.Bytes(), expected)
	}
}

func TestSetSpeeds(t *testing.T) {
	c, buf := newTestController(t, Config{LeftDevice: 13, RightDevice: 14, MaxSpeed: 6000, InvertRight: true})
	buf.Reset()

	if err := c.SetSpeeds(6000, 3000); err != nil {
		t.Fatal(err)
	}
	// Left full forward: 3200 = 0x64<<5.  Right inverted half: reverse 1600.
	expected := []byte{
		0xaa, 13, 0x05, 3200 & 0x1f, 3200 >> 5,
		0xaa, 14, 0x06, 1600 & 0x1f, 1600 >> 5,
	}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Fatalf("Got % x, expected % x", buf.Bytes(), expected)
	}
}

func TestSetSpeedsClamps(t *testing.T) {
	c, buf := newTestController(t, Config{LeftDevice: 1, RightDevice: 2, MaxSpeed: 100})
	buf.Reset()

	if err := c.SetSpeeds(-500, 0); err != nil {
		t.Fatal(err)
	}
	expected := []byte{
		0xaa, 1, 0x06, 3200 & 0x1f, 3200 >> 5,
		0xaa, 2, 0x05, 0, 0,
	}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Fatalf("Got % x, expected % x", buf.Bytes(), expected)
	}
}

func TestStop(t *testing.T) {
	c, buf := newTestController(t, Config{LeftDevice: 1, RightDevice: 2, MaxSpeed: 100})
	buf.Reset()

	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}
	expected := []byte{
		0xaa, 1, 0x60,
		0xaa, 2, 0x60,
	}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Fatalf("Got % x, expected % x", buf.Bytes(), expected)
	}
}

func TestNewRejectsBadMaxSpeed(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, Config{}); err == nil {
		t.Fatal("Expected zero max speed to be rejected")
	}
}
