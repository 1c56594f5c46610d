package authz_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/timgst1/coffeeshop/internal/authz"
	"github.com/timgst1/coffeeshop/internal/policy"
)

func TestCompile_DefaultPolicy(t *testing.T) {
	rt, err := authz.Compile(policy.Default())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	p, ok := rt.Permission(policy.OpCreateDrink)
	if !ok || p != "post:drinks" {
		t.Fatalf("expected post:drinks, got %q (ok=%v)", p, ok)
	}
	p, ok = rt.Permission(policy.OpListDrinks)
	if !ok || p != "" {
		t.Fatalf("expected public drinks.list, got %q (ok=%v)", p, ok)
	}
	if _, ok := rt.Permission("drinks.purge"); ok {
		t.Fatalf("expected unknown operation to be reported")
	}
}

func TestCompile_RejectsInvalid(t *testing.T) {
	if _, err := authz.Compile(nil); err == nil {
		t.Fatalf("expected error for nil document")
	}

	doc := policy.Default()
	doc.Routes = doc.Routes[1:]
	if _, err := authz.Compile(doc); err == nil {
		t.Fatalf("expected error for incomplete route table")
	}
}

type swapSource struct {
	doc   atomic.Pointer[policy.Document]
	calls atomic.Int32
}

func (s *swapSource) Current() (*policy.Document, bool) {
	s.calls.Add(1)
	d := s.doc.Load()
	return d, d != nil
}

func TestRuntimeRoutes_FollowsDocumentSwaps(t *testing.T) {
	src := &swapSource{}
	rr := authz.NewRuntimeRoutes(src)

	if _, ok := rr.Permission(policy.OpCreateDrink); ok {
		t.Fatalf("expected no permission without a document")
	}

	src.doc.Store(policy.Default())
	if p, _ := rr.Permission(policy.OpListDrinks); p != "" {
		t.Fatalf("expected public list, got %q", p)
	}

	strict := policy.Default()
	strict.Routes[0].Permission = "get:drinks"
	src.doc.Store(strict)
	if p, _ := rr.Permission(policy.OpListDrinks); p != "get:drinks" {
		t.Fatalf("expected swapped policy to apply, got %q", p)
	}

	broken := policy.Default()
	broken.Kind = "Nope"
	src.doc.Store(broken)
	if _, ok := rr.Permission(policy.OpListDrinks); ok {
		t.Fatalf("expected invalid document to resolve nothing")
	}
}

func TestRuntimeRoutes_Concurrent(t *testing.T) {
	src := &swapSource{}
	src.doc.Store(policy.Default())
	rr := authz.NewRuntimeRoutes(src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if p, ok := rr.Permission(policy.OpDeleteDrink); !ok || p != "delete:drinks" {
					t.Errorf("unexpected %q (ok=%v)", p, ok)
					return
				}
			}
		}()
	}
	wg.Wait()
}
