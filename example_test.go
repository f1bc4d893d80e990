package arbor_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/scheduler"
)

func list(items ...string) *domain.Node {
	b := dsl.New("list")
	for _, it := range items {
		b.Child(dsl.Text(it).Key(it))
	}
	return b.Build()
}

// ExampleEngine_Render shows that removing a keyed child costs a single patch.
func ExampleEngine_Render() {
	ctx := context.Background()
	host := memory.NewHost()
	eng := arbor.New(arbor.WithHost(host))

	if _, err := eng.Render(ctx, list("a", "b", "c")); err != nil {
		log.Fatal(err)
	}
	if _, err := eng.Render(ctx, list("a", "c")); err != nil {
		log.Fatal(err)
	}

	for _, call := range host.Calls()[1:] {
		for _, p := range call.Patches {
			fmt.Println(call.BoundaryID, p.Op, p.Path)
		}
	}
	// Output:
	// 0 remove children[1]
}

// ExampleWithThreshold shows implicit boundaries on a deep tree.
func ExampleWithThreshold() {
	eng := arbor.New(arbor.WithThreshold(4))
	if _, err := eng.Render(context.Background(), dsl.Chain("view", 10)); err != nil {
		log.Fatal(err)
	}

	for _, b := range eng.Boundaries() {
		fmt.Println(b.ID, b.Cause, b.Depth)
	}
	// Output:
	// 0 page 0
	// 1 threshold 4
	// 2 threshold 8
}

// ExampleEngine_Flush shows deferred renders coalesced into one host call.
func ExampleEngine_Flush() {
	ctx := context.Background()
	host := memory.NewHost()
	eng := arbor.New(arbor.WithHost(host), arbor.WithFlushMode(scheduler.FlushDeferred))

	for i := 0; i < 3; i++ {
		if _, err := eng.Render(ctx, dsl.Text(fmt.Sprint(i)).Build()); err != nil {
			log.Fatal(err)
		}
	}
	report, err := eng.Flush(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(report.Renders, len(host.Calls()))
	// Output: 3 1
}
