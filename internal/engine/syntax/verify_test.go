package syntax

import (
	"sync"
	"testing"
)

func TestVerifyCleanSource(t *testing.T) {
	v := NewVerifier()
	rep := v.Verify([]byte("package a; public class A { int m(String s) { return 1; } }"))
	if !rep.Clean() {
		t.Fatalf("expected clean report, got %s", rep)
	}
	if rep.FirstLine != 0 {
		t.Errorf("expected FirstLine 0, got %d", rep.FirstLine)
	}
}

func TestVerifyBrokenSource(t *testing.T) {
	v := NewVerifier()
	rep := v.Verify([]byte("package a;\npublic class A {\n  void m( {\n"))
	if rep.Clean() {
		t.Fatal("expected syntax problems to be reported")
	}
	if rep.FirstLine < 1 {
		t.Errorf("expected a positive first line, got %d", rep.FirstLine)
	}
}

func TestVerifyConcurrentUse(t *testing.T) {
	v := NewVerifier()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rep := v.Verify([]byte("class B {}")); !rep.Clean() {
				t.Errorf("unexpected report: %s", rep)
			}
		}()
	}
	wg.Wait()
	if n := v.pool.Leased(); n != 0 {
		t.Errorf("expected all parsers returned, %d still leased", n)
	}
}
