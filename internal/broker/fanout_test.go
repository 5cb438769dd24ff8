package broker_test

import (
	"testing"

	"github.com/jlaasanen/dmvault/internal/broker"
	"github.com/stretchr/testify/require"
)

func TestFanout(t *testing.T) {
	type testCase struct {
		name     string
		testFunc func(t *testing.T, b *broker.Fanout[string, string])
	}
	tests := []testCase{
		{
			name: "subscriber receives published payload",
			testFunc: func(t *testing.T, b *broker.Fanout[string, string]) {
				channel := b.Subscribe("campaigns")
				b.Publish("campaigns", "changed")
				require.Equal(t, "changed", <-channel)
			},
		},
		{
			name: "all subscribers of a topic receive the payload",
			testFunc: func(t *testing.T, b *broker.Fanout[string, string]) {
				first := b.Subscribe("party")
				second := b.Subscribe("party")
				b.Publish("party", "changed")
				require.Equal(t, "changed", <-first)
				require.Equal(t, "changed", <-second)
			},
		},
		{
			name: "topics are independent",
			testFunc: func(t *testing.T, b *broker.Fanout[string, string]) {
				partyChannel := b.Subscribe("party")
				campaignChannel := b.Subscribe("campaigns")
				b.Publish("campaigns", "changed")
				require.Equal(t, "changed", <-campaignChannel)
				select {
				case payload := <-partyChannel:
					t.Fatalf("unrelated topic received payload %q", payload)
				default:
				}
			},
		},
		{
			name: "publish without subscribers does not block",
			testFunc: func(_ *testing.T, b *broker.Fanout[string, string]) {
				b.Publish("adventures", "changed")
			},
		},
		{
			name: "unsubscribe closes the channel",
			testFunc: func(t *testing.T, b *broker.Fanout[string, string]) {
				channel := b.Subscribe("party")
				b.Unsubscribe("party", channel)
				_, ok := <-channel
				require.False(t, ok, "channel not closed after unsubscribe")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := broker.NewFanout[string, string]()
			go b.Start()
			t.Cleanup(func() {
				b.Stop()
			})
			tt.testFunc(t, b)
		})
	}
}
