package broker

type publication[TTopic comparable, TPayload any] struct {
	Topic   TTopic
	Payload TPayload
}

type subscription[TTopic comparable, TPayload any] struct {
	Topic   TTopic
	Channel chan TPayload
}

// Fanout delivers every published payload to all current subscribers of its
// topic. Delivery never blocks the publisher: a subscriber whose buffer is
// full misses the payload and is expected to re-read the store on its next
// event. This replaces interval polling for cross-view updates.
type Fanout[TTopic comparable, TPayload any] struct {
	stopChannel        chan struct{}
	publishChannel     chan publication[TTopic, TPayload]
	subscribeChannel   chan subscription[TTopic, TPayload]
	unsubscribeChannel chan subscription[TTopic, TPayload]
}

// subscriberBuffer absorbs short bursts, one event per store write in a turn.
const subscriberBuffer = 16

// NewFanout creates a Fanout. Call Start in a goroutine and Stop to shut it down.
func NewFanout[TTopic comparable, TPayload any]() *Fanout[TTopic, TPayload] {
	return &Fanout[TTopic, TPayload]{
		stopChannel:        make(chan struct{}),
		publishChannel:     make(chan publication[TTopic, TPayload]),
		subscribeChannel:   make(chan subscription[TTopic, TPayload]),
		unsubscribeChannel: make(chan subscription[TTopic, TPayload]),
	}
}

// Start listening for publish, subscribe, and unsubscribe events. This function
// blocks until Stop() is called, so it should be called in a goroutine. It does
// not handle panics, so it should be wrapped in a recover.
func (b *Fanout[TTopic, TPayload]) Start() {
	subscribers := map[TTopic][]chan TPayload{}
	for {
		select {
		case <-b.stopChannel:
			for _, channels := range subscribers {
				for _, c := range channels {
					close(c)
				}
			}
			return

		case sub := <-b.subscribeChannel:
			subscribers[sub.Topic] = append(subscribers[sub.Topic], sub.Channel)

		case sub := <-b.unsubscribeChannel:
			channels := subscribers[sub.Topic]
			for i, c := range channels {
				if c == sub.Channel {
					subscribers[sub.Topic] = append(channels[:i], channels[i+1:]...)
					close(c)
					break
				}
			}

		case pub := <-b.publishChannel:
			for _, c := range subscribers[pub.Topic] {
				select {
				case c <- pub.Payload:
				default:
					// Slow subscriber, drop. It catches up on the next event.
				}
			}
		}
	}
}

// Stop the goroutine that handles the broker and close all subscriber channels.
func (b *Fanout[TTopic, TPayload]) Stop() {
	close(b.stopChannel)
}

// Subscribe to payloads published on topic. The returned channel is closed by
// Unsubscribe or Stop.
func (b *Fanout[TTopic, TPayload]) Subscribe(topic TTopic) chan TPayload {
	channel := make(chan TPayload, subscriberBuffer)
	select {
	case b.subscribeChannel <- subscription[TTopic, TPayload]{Topic: topic, Channel: channel}:
	case <-b.stopChannel:
		close(channel)
	}
	return channel
}

// Unsubscribe removes a channel previously returned by Subscribe and closes it.
func (b *Fanout[TTopic, TPayload]) Unsubscribe(topic TTopic, channel chan TPayload) {
	select {
	case b.unsubscribeChannel <- subscription[TTopic, TPayload]{Topic: topic, Channel: channel}:
	case <-b.stopChannel:
	}
}

// Publish delivers payload to every current subscriber of topic.
func (b *Fanout[TTopic, TPayload]) Publish(topic TTopic, payload TPayload) {
	select {
	case b.publishChannel <- publication[TTopic, TPayload]{Topic: topic, Payload: payload}:
	case <-b.stopChannel:
	}
}
