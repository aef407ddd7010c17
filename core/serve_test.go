package core

import (
	"net"
	"testing"
	"time"

	"espgpio/protocol"
)

func TestServerRoundTrip(t *testing.T) {
	bus, _ := setupCommands(t)

	device, host := net.Pipe()
	srv := NewServer(device)
	srv.IdleDelay = 0
	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	ht := protocol.NewHostTransport(host)
	defer func() {
		ht.Close()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve returned %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Serve did not return after the host closed")
		}
	}()

	setDir, _ := GetGlobalRegistry().GetCommandByName("gpio_set_direction")
	err := ht.SendCommand(setDir.ID, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, 5)
		protocol.EncodeVLQUint(out, uint32(DirOutput))
	})
	if err != nil {
		t.Fatalf("SendCommand failed: %v", err)
	}
	if ht.Sequence() != protocol.SeqDest+1 {
		t.Errorf("host sequence = %#x after one ack", ht.Sequence())
	}

	f, err := ht.ReceiveResponse(time.Second)
	if err != nil {
		t.Fatalf("ReceiveResponse failed: %v", err)
	}
	payload := f.Payload
	id, _ := protocol.DecodeVLQUint(&payload)
	result, _ := GetGlobalRegistry().GetCommandByName("gpio_result")
	if uint16(id) != result.ID {
		t.Fatalf("response id %d, want gpio_result (%d)", id, result.ID)
	}
	vals, _ := decodeArgs(&payload, 3)
	if vals[0] != uint32(OpSetDirection) || vals[1] != uint32(ResultOK) {
		t.Errorf("gpio_result = %v", vals)
	}

	if bus.Load(regEnable)&(1<<5) == 0 {
		t.Error("GPIO5 output not enabled through the server")
	}
}

func TestServerDropsGarbage(t *testing.T) {
	setupCommands(t)

	device, host := net.Pipe()
	srv := NewServer(device)
	srv.IdleDelay = 0
	go srv.Serve()

	ht := protocol.NewHostTransport(host)
	defer ht.Close()

	// Noise first: the firmware resynchronises on the next sync byte
	if _, err := host.Write([]byte{0x01, 0x02, 0x03, protocol.SyncByte}); err != nil {
		t.Fatalf("write noise: %v", err)
	}

	getLevel, _ := GetGlobalRegistry().GetCommandByName("gpio_get_level")
	err := ht.SendCommand(getLevel.ID, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, 5)
	})
	if err != nil {
		t.Fatalf("SendCommand after noise failed: %v", err)
	}
}
