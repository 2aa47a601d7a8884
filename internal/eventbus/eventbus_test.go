package eventbus

import "testing"

func TestPublishDispatchesInSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int

	b.On(StateChange, func(any) { order = append(order, 1) })
	b.On(StateChange, func(any) { order = append(order, 2) })
	b.On(StateChange, func(any) { order = append(order, 3) })

	b.Publish(StateChange, nil)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected dispatch order: %v", order)
	}
}

func TestUnsubscribeStopsFutureDelivery(t *testing.T) {
	b := New()
	calls := 0
	unsub := b.On(Progress, func(any) { calls++ })

	b.Publish(Progress, nil)
	unsub()
	b.Publish(Progress, nil)

	if calls != 1 {
		t.Fatalf("expected exactly 1 call, got %d", calls)
	}
}

func TestPublishIsolatesEventNames(t *testing.T) {
	b := New()
	var gotInfo, gotError bool
	b.On(Info, func(any) { gotInfo = true })
	b.On(Error, func(any) { gotError = true })

	b.Publish(Info, "hello")

	if !gotInfo || gotError {
		t.Fatalf("expected only Info handler to fire, got info=%v error=%v", gotInfo, gotError)
	}
}
