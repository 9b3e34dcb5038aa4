package app

import "testing"

func TestDispatcherNestedPostKeepsOrder(t *testing.T) {
	d := NewDispatcher()
	var got []int
	d.Post(func() {
		got = append(got, 1)
		d.Post(func() { got = append(got, 3) })
		got = append(got, 2)
	})
	d.Post(func() { got = append(got, 4) })

	want := []int{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDispatcherSkipsNil(t *testing.T) {
	d := NewDispatcher()
	d.Post(nil)
	d.Flush()
}

func TestDispatcherSurvivesPanickingCallback(t *testing.T) {
	d := NewDispatcher()
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()
		d.Enqueue(func() { panic("boom") })
		d.Enqueue(func() {})
		d.Flush()
	}()

	ran := 0
	d.Post(func() { ran++ })
	if ran != 1 {
		t.Fatalf("callback after panic ran %d times, want 1", ran)
	}
}
