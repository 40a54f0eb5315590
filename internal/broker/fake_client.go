package broker

import (
	"context"
	"sync"
)

// FakeClient is an in-memory Client used by unit tests so scheduler/car/
// floor agent packages can be exercised without a live broker. Grounded on
// the teacher's factory.ElevatorFactory pattern of swapping a real
// implementation for a test double behind a shared interface.
type FakeClient struct {
	mu            sync.Mutex
	subscriptions []fakeSubscription
	published     []FakePublication
}

type fakeSubscription struct {
	pattern string
	handler MessageHandler
}

// FakePublication records one Publish call for test assertions.
type FakePublication struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// NewFakeClient returns a ready-to-use FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

// Connect is a no-op; FakeClient is always "connected".
func (f *FakeClient) Connect(ctx context.Context) error {
	return nil
}

// Disconnect is a no-op.
func (f *FakeClient) Disconnect() {}

// Publish records the publication and delivers it synchronously to every
// matching subscription, including ones registered by the publisher itself
// — this mirrors a real broker echoing messages back to local subscribers.
func (f *FakeClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	f.published = append(f.published, FakePublication{Topic: topic, QoS: qos, Retained: retained, Payload: payload})
	subs := make([]fakeSubscription, len(f.subscriptions))
	copy(subs, f.subscriptions)
	f.mu.Unlock()

	for _, s := range subs {
		if Topic(topic).Matches(s.pattern) {
			s.handler(topic, payload)
		}
	}
	return nil
}

// Subscribe registers handler for pattern.
func (f *FakeClient) Subscribe(pattern string, qos byte, handler MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptions = append(f.subscriptions, fakeSubscription{pattern: pattern, handler: handler})
	return nil
}

// Published returns every publication recorded so far, in order.
func (f *FakeClient) Published() []FakePublication {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakePublication, len(f.published))
	copy(out, f.published)
	return out
}

// LastPublished returns the most recent publication to topic, or false if
// none occurred.
func (f *FakeClient) LastPublished(topic string) (FakePublication, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.published) - 1; i >= 0; i-- {
		if f.published[i].Topic == topic {
			return f.published[i], true
		}
	}
	return FakePublication{}, false
}
