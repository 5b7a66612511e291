package event

import "testing"

func TestBus_SynchronousInOrderDelivery(t *testing.T) {
	bus := NewBus()
	var order []int
	bus.On(LevelSwitching, func(kind Kind, data any) {
		order = append(order, 1)
	})
	bus.On(LevelSwitching, func(kind Kind, data any) {
		order = append(order, 2)
	})

	bus.Emit(LevelSwitching, nil)

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("Expected handlers to run synchronously in registration order, got %v", order)
	}
}

func TestBus_KindIsolation(t *testing.T) {
	bus := NewBus()
	called := false
	bus.On(LevelLoading, func(kind Kind, data any) {
		called = true
	})
	bus.Emit(LevelSwitching, nil)
	if called {
		t.Errorf("Expected handler not to fire for a different kind")
	}
}

func TestBus_DeferRunsAfterOutermostEmit(t *testing.T) {
	bus := NewBus()
	var order []string

	bus.On(ManifestLoaded, func(kind Kind, data any) {
		order = append(order, "outer-start")
		bus.Defer(func() {
			order = append(order, "deferred")
		})
		// Nested emission must not flush the deferred queue.
		bus.Emit(LevelSwitching, nil)
		order = append(order, "outer-end")
	})
	bus.On(LevelSwitching, func(kind Kind, data any) {
		order = append(order, "nested")
	})

	bus.Emit(ManifestLoaded, nil)

	want := []string{"outer-start", "nested", "outer-end", "deferred"}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, order)
		}
	}
}

func TestBus_DeferOutsideDispatchRunsImmediately(t *testing.T) {
	bus := NewBus()
	ran := false
	bus.Defer(func() { ran = true })
	if !ran {
		t.Errorf("Expected deferred function to run immediately outside dispatch")
	}
}

func TestBus_ReentrantEmit(t *testing.T) {
	bus := NewBus()
	var got []Kind
	bus.On(LevelSwitching, func(kind Kind, data any) {
		got = append(got, kind)
		if len(got) == 1 {
			bus.Emit(LevelLoading, nil)
		}
	})
	bus.On(LevelLoading, func(kind Kind, data any) {
		got = append(got, kind)
	})

	bus.Emit(LevelSwitching, nil)
	if len(got) != 2 || got[0] != LevelSwitching || got[1] != LevelLoading {
		t.Errorf("Expected reentrant emission to complete inline, got %v", got)
	}
}
