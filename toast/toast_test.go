package toast

import "testing"

type holder struct {
	Binding
}

func TestQueue(t *testing.T) {
	q := NewQueue(2)
	q.Push("first")
	q.Push("   ")
	q.Push("")
	if q.Len() != 1 {
		t.Fatalf("Expected blank messages to be ignored, got %d queued", q.Len())
	}

	q.Push("second")
	q.Push("third")
	drained := q.Drain()
	if len(drained) != 2 || drained[0].Text != "second" || drained[1].Text != "third" {
		t.Errorf("Expected the two newest messages, got %+v", drained)
	}
	if got := q.Drain(); len(got) != 0 || got == nil {
		t.Errorf("Expected an empty non-nil slice, got %#v", got)
	}
}

func TestBinding(t *testing.T) {
	h := &holder{}
	h.Show("nobody listening")

	q := NewQueue(0)
	unbind := Bind(q.Toaster(), h)
	h.Show("hello")
	unbind()
	h.Show("after unbind")

	drained := q.Drain()
	if len(drained) != 1 || drained[0].Text != "hello" {
		t.Errorf("Expected only the bound message, got %+v", drained)
	}
}
