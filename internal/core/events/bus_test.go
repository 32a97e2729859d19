package events_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/viakashmir/admin-console/internal/core/events"
	"github.com/viakashmir/admin-console/pkg/logger"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var (
		bus *events.EventBus
		ctx context.Context
	)

	BeforeEach(func() {
		bus = events.NewEventBus(logger.Discard())
		ctx = context.Background()
	})

	It("should deliver synchronously to every subscriber in order", func() {
		var seen []string
		bus.Subscribe(events.EventTypeEntityMutated, func(_ context.Context, e events.Event) error {
			seen = append(seen, "a:"+e.(*events.EntityMutatedEvent).Entity)
			return nil
		})
		bus.Subscribe(events.EventTypeEntityMutated, func(_ context.Context, e events.Event) error {
			seen = append(seen, "b:"+e.(*events.EntityMutatedEvent).Op)
			return nil
		})

		Expect(bus.PublishSync(ctx, events.NewEntityMutatedEvent("categories", events.OpDelete, "7"))).To(Succeed())
		Expect(seen).To(Equal([]string{"a:categories", "b:delete"}))
	})

	It("should stop delivering after unsubscribe", func() {
		var calls atomic.Int32
		unsubscribe := bus.Subscribe(events.EventTypeEntityMutated, func(context.Context, events.Event) error {
			calls.Add(1)
			return nil
		})

		Expect(bus.PublishSync(ctx, events.NewEntityMutatedEvent("users", events.OpCreate, "1"))).To(Succeed())
		unsubscribe()
		unsubscribe()
		Expect(bus.PublishSync(ctx, events.NewEntityMutatedEvent("users", events.OpCreate, "2"))).To(Succeed())
		Expect(calls.Load()).To(BeEquivalentTo(1))
	})

	It("should run every synchronous handler and join their errors", func() {
		var after atomic.Int32
		bus.Subscribe(events.EventTypeEntityMutated, func(context.Context, events.Event) error {
			return errors.New("refetch failed")
		})
		bus.Subscribe(events.EventTypeEntityMutated, func(context.Context, events.Event) error {
			after.Add(1)
			return nil
		})
		err := bus.PublishSync(ctx, events.NewEntityMutatedEvent("packages", events.OpUpdate, "3"))
		Expect(err).To(MatchError(ContainSubstring("refetch failed")))
		Expect(after.Load()).To(BeEquivalentTo(1))
	})

	It("should deliver asynchronously on Publish", func() {
		var calls atomic.Int32
		bus.Subscribe(events.EventTypeEntityMutated, func(context.Context, events.Event) error {
			calls.Add(1)
			return nil
		})
		Expect(bus.Publish(ctx, events.NewEntityMutatedEvent("packages", events.OpUpdate, "3"))).To(Succeed())
		Eventually(calls.Load).Should(BeEquivalentTo(1))
	})

	It("should keep async handlers running after the publisher's context ends", func() {
		release := make(chan struct{})
		var handlerErr atomic.Value
		bus.Subscribe(events.EventTypeEntityMutated, func(hctx context.Context, _ events.Event) error {
			<-release
			handlerErr.Store(fmt.Sprint(hctx.Err()))
			return nil
		})

		pubCtx, cancel := context.WithCancel(ctx)
		Expect(bus.Publish(pubCtx, events.NewEntityMutatedEvent("users", events.OpDelete, "9"))).To(Succeed())
		cancel()
		close(release)
		bus.Wait()
		Expect(handlerErr.Load()).To(Equal("<nil>"))
	})

	It("should ignore events nobody listens to", func() {
		Expect(bus.Publish(ctx, events.NewEntityMutatedEvent("packages", events.OpUpdate, "3"))).To(Succeed())
	})
})
