package errs

import "testing"

func TestKindOfCodeError(t *testing.T) {
	err := New(KindInvalidInput, "text is empty")
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("KindOf() = %v, want %v", KindOf(err), KindInvalidInput)
	}
	if Message(err) != "text is empty" {
		t.Fatalf("Message() = %q", Message(err))
	}
}

func TestKindOfUnrecognized(t *testing.T) {
	if KindOf(nil) != "" {
		t.Fatalf("KindOf(nil) should be empty")
	}
	plain := &struct{ error }{}
	if KindOf(plain) != KindInternal {
		t.Fatalf("KindOf(unrecognized) = %v, want %v", KindOf(plain), KindInternal)
	}
}

func TestWrapNilCause(t *testing.T) {
	if Wrap(KindInternal, nil, "x") != nil {
		t.Fatalf("Wrap with nil cause should return nil")
	}
}

func TestWrapPreservesKind(t *testing.T) {
	cause := New(KindInvalidInput, "inner")
	wrapped := Wrap(KindProjectNotFound, cause, "outer")
	if KindOf(wrapped) != KindProjectNotFound {
		t.Fatalf("KindOf(wrapped) = %v, want %v", KindOf(wrapped), KindProjectNotFound)
	}
}
