package api

import (
    "testing"
    "time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
    b := NewBroker()
    tenant := "acme"
    ch := b.Subscribe(tenant)

    evt := Event{Type: "solve.completed", Data: map[string]any{"solveId": "s1"}}
    b.Publish(tenant, evt)

    select {
    case got := <-ch:
        if got.Type != evt.Type { t.Fatalf("got type %s, want %s", got.Type, evt.Type) }
        if got.Data["solveId"].(string) != "s1" { t.Fatalf("bad payload: %+v", got.Data) }
    case <-time.After(200 * time.Millisecond):
        t.Fatal("timeout waiting for event")
    }

    b.Unsubscribe(tenant, ch)
    select {
    case _, ok := <-ch:
        if ok { t.Fatal("channel should be closed after unsubscribe") }
    case <-time.After(50 * time.Millisecond):
        t.Fatal("channel should be closed after unsubscribe")
    }
}

func TestBrokerTenantIsolation(t *testing.T) {
    b := NewBroker()
    ch := b.Subscribe("acme")
    defer b.Unsubscribe("acme", ch)

    b.Publish("beta", Event{Type: "solve.completed", Data: map[string]any{"solveId": "x"}})
    select {
    case evt := <-ch:
        t.Fatalf("crossed tenants: %+v", evt)
    case <-time.After(50 * time.Millisecond):
    }

    b.Publish("acme", Event{Type: "matrix.created", Data: map[string]any{"matrixId": "m1"}})
    select {
    case evt := <-ch:
        if evt.Type != "matrix.created" { t.Fatalf("got %s", evt.Type) }
    case <-time.After(200 * time.Millisecond):
        t.Fatal("timeout waiting for tenant event")
    }
}

func TestBrokerSlowSubscriberDoesNotBlock(t *testing.T) {
    b := NewBroker()
    ch := b.Subscribe("acme")
    defer b.Unsubscribe("acme", ch)

    // channel buffer is 8; publishing more must not block the publisher
    done := make(chan struct{})
    go func() {
        for i := 0; i < 50; i++ {
            b.Publish("acme", Event{Type: "solve.progress", Data: map[string]any{"pass": i}})
        }
        close(done)
    }()
    select {
    case <-done:
    case <-time.After(time.Second):
        t.Fatal("publish blocked on a slow subscriber")
    }
}
