package reg

import "testing"

// TestNewRegFile checks the initial register file: every general register
// zero, Sp seeded to InitialSP, no pending async loads anywhere.
func TestNewRegFile(t *testing.T) {
	rf := New()
	if v, d, err := rf.Read(Sp); err != nil || v != InitialSP || d != notWaiting {
		t.Fatalf("Read(Sp) = %d, %v, %v; want %d, %v, nil", v, d, err, uint64(InitialSP), notWaiting)
	}
	if v, _, err := rf.Read(R1); err != nil || v != 0 {
		t.Fatalf("Read(R1) = %d, %v; want 0, nil", v, err)
	}
}

// TestRegFileReadNone checks that reading None is an error.
func TestRegFileReadNone(t *testing.T) {
	rf := New()
	if _, _, err := rf.Read(None); err == nil {
		t.Fatal("Read(None) succeeded, want error")
	}
}

// TestRegFileWriteArgFails checks that argument registers cannot be
// written through the ordinary Write path.
func TestRegFileWriteArgFails(t *testing.T) {
	rf := New()
	if err := rf.Write(A1, 5); err == nil {
		t.Fatal("Write(A1, ...) succeeded, want error")
	}
}

// TestRegFileArgBounds checks that reading past nargs is an error, and
// that reads within bounds succeed.
func TestRegFileArgBounds(t *testing.T) {
	rf := New()
	rf.SetNargs(2)
	rf.SetValue(A1, 10)
	rf.SetValue(A2, 20)
	if v, _, err := rf.Read(A1); err != nil || v != 10 {
		t.Fatalf("Read(A1) = %d, %v; want 10, nil", v, err)
	}
	if _, _, err := rf.Read(A3); err == nil {
		t.Fatal("Read(A3) succeeded with nargs=2, want error")
	}
}

// TestRegFileAsyncLoad exercises the single outstanding deadline per
// register and its resolution on the next Read.
func TestRegFileAsyncLoad(t *testing.T) {
	rf := New()
	if err := rf.SetAsync(R1, 42.0); err != nil {
		t.Fatalf("SetAsync(R1, 42.0) = %v, want nil", err)
	}
	if err := rf.SetAsync(R1, 10.0); err == nil {
		t.Fatal("second SetAsync(R1, ...) succeeded, want error")
	}
	if err := rf.Write(R1, 7); err != nil {
		t.Fatalf("Write(R1, 7) = %v, want nil", err)
	}
	if _, d, err := rf.Read(R1); err != nil || d != notWaiting {
		t.Fatalf("Read(R1) after Write = _, %v, %v; want notWaiting, nil", d, err)
	}
	if err := rf.SetAsync(R2, 99.0); err != nil {
		t.Fatalf("SetAsync(R2, 99.0) = %v, want nil", err)
	}
	if v, d, err := rf.Read(R2); err != nil || v != 0 || d != 99.0 {
		t.Fatalf("Read(R2) = %d, %v, %v; want 0, 99.0, nil", v, d, err)
	}
	if _, d, err := rf.Read(R2); err != nil || d != notWaiting {
		t.Fatalf("second Read(R2) = _, %v, %v; want notWaiting, nil", d, err)
	}
}

// TestRegFileClone checks that Clone is independent of the original.
func TestRegFileClone(t *testing.T) {
	rf := New()
	rf.Write(R1, 100)
	clone := rf.Clone()
	clone.Write(R1, 200)
	if v, _, _ := rf.Read(R1); v != 100 {
		t.Fatalf("original R1 = %d, want 100 (unaffected by clone mutation)", v)
	}
	if v, _, _ := clone.Read(R1); v != 200 {
		t.Fatalf("clone R1 = %d, want 200", v)
	}
}
