package hostlib

import (
	"testing"

	"unitrt/host"
	"unitrt/value"
)

func TestRegisterAndUnregister(t *testing.T) {
	bridge := host.NewBridge()
	guards := Register(bridge)

	if !bridge.HasFunction("io.print") || !bridge.HasFunction("time.now") {
		t.Fatal("expected both host functions registered")
	}

	for _, g := range guards {
		if err := g.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	if bridge.HasFunction("io.print") || bridge.HasFunction("time.now") {
		t.Fatal("expected both host functions unregistered after Close")
	}
}

func TestTimeNowReturnsNumber(t *testing.T) {
	bridge := host.NewBridge()
	guards := Register(bridge)
	defer func() {
		for _, g := range guards {
			g.Close()
		}
	}()

	result, ok, err := bridge.CallFunction("time.now", nil)
	if !ok || err != nil {
		t.Fatalf("CallFunction: ok=%v err=%v", ok, err)
	}
	if result.Kind != value.KindNumber {
		t.Fatalf("expected a Number result, got %s", result.Kind)
	}
}

func TestTimeNowRejectsArgs(t *testing.T) {
	bridge := host.NewBridge()
	guards := Register(bridge)
	defer func() {
		for _, g := range guards {
			g.Close()
		}
	}()

	_, ok, err := bridge.CallFunction("time.now", []value.Value{value.Number(1)})
	if !ok || err == nil {
		t.Fatal("expected an error calling time.now with arguments")
	}
}
