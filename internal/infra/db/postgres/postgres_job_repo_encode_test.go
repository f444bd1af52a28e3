//go:build !integration

package postgres

import "testing"

func TestJobDocumentEncoding(t *testing.T) {
	t.Run("nil payload encodes as an empty object, never NULL", func(t *testing.T) {
		b, err := marshalPayload(nil)
		if err != nil {
			t.Fatalf("marshalPayload: %v", err)
		}
		if string(b) != "{}" {
			t.Errorf("marshalPayload(nil) = %q, want {}", b)
		}
	})

	t.Run("nil result stays NULL", func(t *testing.T) {
		b, err := marshalDoc(nil)
		if err != nil {
			t.Fatalf("marshalDoc: %v", err)
		}
		if b != nil {
			t.Errorf("marshalDoc(nil) = %q, want nil", b)
		}
	})

	t.Run("populated documents round-trip through JSON", func(t *testing.T) {
		b, err := marshalPayload(map[string]any{"k": "v"})
		if err != nil {
			t.Fatalf("marshalPayload: %v", err)
		}
		if string(b) != `{"k":"v"}` {
			t.Errorf("marshalPayload = %q", b)
		}
	})
}
