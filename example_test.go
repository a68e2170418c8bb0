package thunk_test

import (
	"context"
	"fmt"

	"github.com/go-thunk/thunk"
	"github.com/go-thunk/thunk/event"
)

func Example() {
	// Wrap an operation into a lifecycle task.
	fetchUser, err := thunk.New("user/fetch",
		func(ctx context.Context, req *thunk.Request) (interface{}, error) {
			// Load the user identified by req.Input here.
			return "Ada Lovelace", nil
		})
	if err != nil {
		fmt.Printf("Failed to create task: %v\n", err)
		return
	}

	// Collect the dispatched events; a real sink would feed a store.
	var events []event.Event
	env := thunk.Env{Dispatch: func(e event.Event) {
		events = append(events, e)
	}}

	// Start one invocation and unwrap its result.
	h := fetchUser.Start(context.Background(), env, 7)
	value, err := h.Unwrap(context.Background())
	if err != nil {
		fmt.Printf("Fetch failed: %v\n", err)
		return
	}

	for _, e := range events {
		fmt.Println(e.Type)
	}
	fmt.Println(value)

	// Output:
	// user/fetch/pending
	// user/fetch/succeeded
	// Ada Lovelace
}

func ExampleHandle_Abort() {
	download, err := thunk.New("file/download",
		func(ctx context.Context, req *thunk.Request) (interface{}, error) {
			// A cooperating operation unwinds when its context ends.
			<-ctx.Done()
			return nil, ctx.Err()
		})
	if err != nil {
		fmt.Printf("Failed to create task: %v\n", err)
		return
	}

	h := download.Start(context.Background(), thunk.Env{}, "big.iso")
	h.Abort("user pressed stop")

	_, err = h.Unwrap(context.Background())
	fmt.Println(err)

	// Output:
	// user pressed stop
}

func ExampleWithCondition() {
	loaded := false
	loadProfile, err := thunk.New("profile/load",
		func(ctx context.Context, req *thunk.Request) (interface{}, error) {
			return "profile data", nil
		},
		thunk.WithCondition(func(ctx context.Context, input interface{}, api thunk.API) (bool, error) {
			// Skip the fetch when the profile is already in memory.
			return !loaded, nil
		}),
	)
	if err != nil {
		fmt.Printf("Failed to create task: %v\n", err)
		return
	}

	value, err := loadProfile.Start(context.Background(), thunk.Env{}, nil).Unwrap(context.Background())
	if err != nil {
		fmt.Printf("Load failed: %v\n", err)
		return
	}
	fmt.Println(value)

	loaded = true
	_, err = loadProfile.Start(context.Background(), thunk.Env{}, nil).Unwrap(context.Background())
	fmt.Println(err)

	// Output:
	// profile data
	// Aborted due to condition callback returning false.
}
